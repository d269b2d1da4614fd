// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bissquit/rental-portal/internal/bookings"
	bookingspostgres "github.com/bissquit/rental-portal/internal/bookings/postgres"
	"github.com/bissquit/rental-portal/internal/config"
	"github.com/bissquit/rental-portal/internal/identity"
	"github.com/bissquit/rental-portal/internal/identity/jwt"
	identitypostgres "github.com/bissquit/rental-portal/internal/identity/postgres"
	"github.com/bissquit/rental-portal/internal/listings"
	listingspostgres "github.com/bissquit/rental-portal/internal/listings/postgres"
	"github.com/bissquit/rental-portal/internal/pkg/ctxlog"
	"github.com/bissquit/rental-portal/internal/pkg/httputil"
	"github.com/bissquit/rental-portal/internal/pkg/metrics"
	"github.com/bissquit/rental-portal/internal/pkg/postgres"
	"github.com/bissquit/rental-portal/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	dbMetricsInterval    = 15 * time.Second
	rateLimiterSweep     = time.Minute
	readinessPingTimeout = 2 * time.Second
)

// database is the subset of *pgxpool.Pool used by the HTTP layer.
type database interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server
	cancel        context.CancelFunc
	background    sync.WaitGroup
}

// New connects to the database and builds the HTTP servers.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config: cfg,
		logger: logger,
		db:     db,
		cancel: cancel,
	}

	router, err := app.setupRouter(ctx, db)
	if err != nil {
		cancel()
		db.Close()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.goBackground(func() {
		metrics.CollectDBPoolMetrics(ctx, db, dbMetricsInterval)
	})

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers and blocks until the main server stops.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	for name, srv := range map[string]*http.Server{"server": a.server, "metrics server": a.metricsServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	a.cancel()
	a.background.Wait()
	a.db.Close()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) goBackground(fn func()) {
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		fn()
	}()
}

func (a *App) setupRouter(ctx context.Context, db database) (*chi.Mux, error) {
	cfg := a.config

	issuer, err := newIssuer(cfg.JWT)
	if err != nil {
		return nil, err
	}
	if cfg.JWT.SigningKey == "" {
		a.logger.Warn("jwt.signing_key is not set: generated a random key, tokens will not survive a restart")
	}

	hasher, err := identity.NewBcryptHasher(cfg.Auth.BcryptCost, cfg.Auth.HashConcurrency)
	if err != nil {
		return nil, fmt.Errorf("create password hasher: %w", err)
	}

	var throttle func(http.Handler) http.Handler
	if cfg.Auth.LoginRatePerMinute > 0 {
		limiter := httputil.NewRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst)
		a.goBackground(func() { limiter.Run(ctx, rateLimiterSweep) })
		throttle = limiter.Middleware
	} else {
		a.logger.Warn("login throttling is disabled")
	}

	identityService := identity.NewService(identitypostgres.NewRepository(db), hasher, issuer)
	identityHandler := identity.NewHandler(identityService, throttle)

	listingsService := listings.NewService(listingspostgres.NewRepository(db))
	listingsHandler := listings.NewHandler(listingsService)

	bookingsService := bookings.NewService(bookingspostgres.NewRepository(db), listingsService)
	bookingsHandler := bookings.NewHandler(bookingsService)

	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", readyzHandler(db))
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	r.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, docsPage)
	})

	r.Route("/api", func(r chi.Router) {
		identityHandler.RegisterRoutes(r)
		listingsHandler.RegisterRoutes(r)
		bookingsHandler.RegisterRoutes(r)
	})

	return r, nil
}

// newIssuer builds the token issuer from the configured key, or a random
// per-process key when none is configured.
func newIssuer(cfg config.JWTConfig) (*jwt.Issuer, error) {
	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		generated, err := jwt.GenerateSigningKey()
		if err != nil {
			return nil, err
		}
		key = generated
	}

	issuer, err := jwt.NewIssuer(jwt.Config{
		SigningKey:    key,
		TokenDuration: cfg.TokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("create token issuer: %w", err)
	}
	return issuer, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func readyzHandler(db database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessPingTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
			httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}

		httputil.Text(w, http.StatusOK, "OK")
	}
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

const docsPage = `<!DOCTYPE html>
<html>
<head>
    <title>Rental Portal API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`

// NewLogger builds the process logger from the log configuration.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
