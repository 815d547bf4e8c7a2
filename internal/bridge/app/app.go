package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/ircbridge/internal/bridge/http"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/embed"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/metrics"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/service"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store/drivers/postgres"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/store/drivers/sqlite"
	"github.com/aussiebroadwan/ircbridge/internal/bridge/throttle"
	"github.com/aussiebroadwan/ircbridge/pkg/cryptox"
	"github.com/aussiebroadwan/ircbridge/pkg/deeplink"
	"github.com/aussiebroadwan/ircbridge/pkg/httpx"
	"github.com/aussiebroadwan/ircbridge/pkg/jwtx"
	"github.com/aussiebroadwan/ircbridge/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the bridge service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	verifier httpapi.ReadyVerifier
	jwks     *jwtx.JWKSFetcher
	redis    *redis.Client
	limiter  throttle.Limiter
	metrics  *metrics.Metrics

	// Services
	credentials         *service.CredentialService
	tickets             *service.TicketService
	provisionService    *service.ProvisionService
	authCallbackService *service.AuthCallbackService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router

	// background work tied to the application lifetime
	cancel context.CancelFunc
}

// NewLogger builds the service logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "ircbridge",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:     cfg,
		logger:  NewLogger(cfg),
		metrics: metrics.New(),
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initVerifier(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initThrottle(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeDeps()
		return nil, err
	}

	if err := app.initHTTP(); err != nil {
		app.closeDeps()
		return nil, err
	}

	return app, nil
}

// Handler is the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	ctx, cancel := context.WithCancel(slogx.WithContext(context.Background(), app.logger))
	app.cancel = cancel

	if app.jwks != nil {
		go app.jwks.Run(ctx)
	}
	app.housekeepingService.Start()

	app.logger.Info("bridge service starting",
		"addr", app.cfg.HTTPAddr,
		"version", BuildVersion,
		"db_driver", app.cfg.DBDriver,
		"deeplink_credential", app.cfg.DeeplinkCredential,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down bridge service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.cancel != nil {
		app.cancel()
		app.housekeepingService.Stop()
	}

	if err := app.closeDeps(); err != nil {
		return err
	}

	app.logger.Info("bridge service stopped")
	return nil
}

func (app *Application) closeDeps() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// OpenStore opens the configured store driver without migrating it.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.DBDriver {
	case DriverPostgres:
		return postgres.NewStore(ctx, cfg.DBDSN)
	default:
		return sqlite.NewStore(sqliteDSN(cfg.DBDSN))
	}
}

// sqliteDSN turns a bare path into a DSN with a busy timeout and WAL.
func sqliteDSN(dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dsn)
}

// initDatabase opens the store and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DBDriver)
	return nil
}

// initVerifier sets up caller token verification. A JWKS that cannot be
// fetched at startup is not fatal: /readyz reports it until a refresh lands.
func (app *Application) initVerifier(ctx context.Context) error {
	opts := jwtx.VerifyOptions{
		Issuer:   app.cfg.Issuer,
		Audience: app.cfg.Audience,
		Leeway:   app.cfg.TokenLeeway,
	}

	if app.cfg.HMACSecret != "" {
		app.verifier = jwtx.NewHMACVerifier([]byte(app.cfg.HMACSecret), opts)
		app.logger.Info("caller verification using shared secret")
		return nil
	}

	keys := jwtx.NewKeySet()
	app.jwks = jwtx.NewJWKSFetcher(app.cfg.JWKSURL, keys, app.cfg.JWKSRefresh)
	app.verifier = jwtx.NewKeySetVerifier(keys, opts)

	if err := app.jwks.Refresh(ctx); err != nil {
		app.logger.Warn("initial jwks fetch failed", "url", app.cfg.JWKSURL, "error", err)
		return nil
	}
	app.logger.Info("caller verification keys loaded", "url", app.cfg.JWKSURL, "keys", keys.Len())
	return nil
}

// initThrottle picks the shared Redis throttle when REDIS_URL is set.
func (app *Application) initThrottle(ctx context.Context) error {
	if app.cfg.RedisURL == "" {
		app.limiter = throttle.NewMemory(app.cfg.ThrottleConfig())
		app.logger.Info("failed-attempt throttle is per-instance")
		return nil
	}

	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	app.redis = redis.NewClient(opts)

	rt := throttle.NewRedis(app.redis, app.cfg.ThrottleConfig())
	if err := rt.Ping(ctx); err != nil {
		app.logger.Warn("redis unreachable at startup; throttle fails open until it recovers", "error", err)
	}
	app.limiter = rt
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	app.credentials, err = service.NewCredentialService(app.db, cryptox.NewArgon2id(pepper), service.CredentialOptions{
		HashConcurrency: app.cfg.HashConcurrency,
		StoreTimeout:    app.cfg.StoreTimeout,
		Metrics:         app.metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize credentials: %w", err)
	}

	if app.cfg.DeeplinkCredential == CredentialTicket {
		app.tickets = &service.TicketService{
			Store:        app.db,
			TTL:          app.cfg.TicketTTL,
			StoreTimeout: app.cfg.StoreTimeout,
			Metrics:      app.metrics,
		}
	}

	app.provisionService = &service.ProvisionService{
		Credentials:  app.credentials,
		Store:        app.db,
		Network:      NetworkFromConfig(app.cfg),
		Tickets:      app.tickets,
		StoreTimeout: app.cfg.StoreTimeout,
		Metrics:      app.metrics,
	}

	app.authCallbackService = &service.AuthCallbackService{
		Credentials: app.credentials,
		Throttle:    app.limiter,
		Tickets:     app.tickets,
		Metrics:     app.metrics,
	}

	app.housekeepingService = service.NewHousekeepingService(app.db, app.logger, app.cfg.HousekeepingInterval)
	app.housekeepingService.Metrics = app.metrics
	return nil
}

// NetworkFromConfig describes the IRC network accounts are provisioned on.
func NetworkFromConfig(cfg Config) service.Network {
	return service.Network{
		Name: cfg.NetworkName,
		Connection: deeplink.Connection{
			Host:               cfg.IRCHost,
			Port:               cfg.IRCPort,
			TLS:                cfg.IRCTLS,
			RejectUnauthorized: cfg.RejectUnauthorized,
		},
		ClientURL:       cfg.ClientURL,
		DefaultChannels: cfg.DefaultChannels,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() error {
	router := httpapi.NewRouter(app.verifier, BuildVersion, app.db, app.logger)

	router.RequiredScope = app.cfg.RequiredScope
	router.ProvisionService = app.provisionService
	router.AuthCallbackService = app.authCallbackService
	router.Metrics = app.metrics

	trusted, err := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	router.TrustedProxies = trusted
	if rt, ok := app.limiter.(*throttle.Redis); ok {
		router.Throttle = rt
	}

	if len(app.cfg.EmbedAllowedOrigins) > 0 {
		policy, err := embed.NewPolicy(app.cfg.EmbedAllowedOrigins)
		if err != nil {
			return fmt.Errorf("invalid EMBED_ALLOWED_ORIGINS: %w", err)
		}
		script, err := policy.ScriptHandler(app.cfg.EmbedFormTimeout)
		if err != nil {
			return fmt.Errorf("failed to render embed script: %w", err)
		}
		router.EmbedScript = script
		app.logger.Info("embed bridge enabled", "origins", policy.Origins())
	}

	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
