package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/bissquit/rental-portal/internal/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// PasswordHasher turns plaintext passwords into stored secrets and back.
type PasswordHasher interface {
	// Hash returns a salted one-way secret for the password.
	Hash(ctx context.Context, password string) (string, error)

	// Compare reports whether the password matches the secret.
	// Returns (false, nil) on mismatch and an error only on malformed secrets
	// or cancellation.
	Compare(ctx context.Context, hash, password string) (bool, error)

	// DummyHash returns a secret no password matches, hashed with the same
	// work factor as real secrets. Comparing against it makes a missing
	// account cost as much as a wrong password.
	DummyHash() string
}

// BcryptHasher implements PasswordHasher with bcrypt.
// At most a fixed number of hash computations run at once.
type BcryptHasher struct {
	cost  int
	slots chan struct{}
	dummy string
}

// NewBcryptHasher creates a hasher with the given cost and concurrency.
// Zero values select DefaultBcryptCost and runtime.NumCPU().
func NewBcryptHasher(cost, concurrency int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate dummy password: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	return &BcryptHasher{
		cost:  cost,
		slots: make(chan struct{}, concurrency),
		dummy: string(dummy),
	}, nil
}

// DummyHash returns a hash of a random secret generated at construction.
func (h *BcryptHasher) DummyHash() string {
	return h.dummy
}

// Hash produces a bcrypt secret embedding its own salt and cost.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	release, err := h.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	start := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare checks the password against a bcrypt secret in constant time.
func (h *BcryptHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	release, err := h.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	start := time.Now()
	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	metrics.PasswordHashDuration.WithLabelValues("compare").Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

func (h *BcryptHasher) acquire(ctx context.Context) (func(), error) {
	select {
	case h.slots <- struct{}{}:
		return func() { <-h.slots }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for hasher: %w", ctx.Err())
	}
}
