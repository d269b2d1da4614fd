// Package postgres provides PostgreSQL connection and schema utilities.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// maxBackoff caps the delay between connection attempts.
const maxBackoff = 16 * time.Second

// Config contains PostgreSQL connection configuration.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectAttempts int
}

// Connect establishes a connection pool to PostgreSQL, retrying with
// exponential backoff until ConnectAttempts is exhausted or ctx is done.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var (
		pool    *pgxpool.Pool
		attempt int
	)

	err = retry.Do(ctx, backoff(attempts), func(ctx context.Context) error {
		attempt++

		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			slog.Warn("failed to create connection pool",
				"attempt", attempt,
				"max_attempts", attempts,
				"error", err,
			)
			return retry.RetryableError(err)
		}

		if err := p.Ping(ctx); err != nil {
			p.Close()
			slog.Warn("failed to ping database",
				"attempt", attempt,
				"max_attempts", attempts,
				"error", err,
			)
			return retry.RetryableError(err)
		}

		pool = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database after %d attempts: %w", attempt, err)
	}

	slog.Info("connected to database", "attempts", attempt)
	return pool, nil
}

// backoff doubles from one second, capped at maxBackoff, for attempts-1 retries.
func backoff(attempts int) retry.Backoff {
	b := retry.NewExponential(time.Second)
	b = retry.WithCappedDuration(maxBackoff, b)
	return retry.WithMaxRetries(uint64(attempts-1), b)
}
