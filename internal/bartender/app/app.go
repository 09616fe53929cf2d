package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/bartender/internal/bartender/http"
	"github.com/aussiebroadwan/bartender/internal/bartender/service"
	"github.com/aussiebroadwan/bartender/internal/bartender/store"
	"github.com/aussiebroadwan/bartender/internal/bartender/store/drivers/memory"
	"github.com/aussiebroadwan/bartender/internal/bartender/store/drivers/postgres"
	"github.com/aussiebroadwan/bartender/internal/bartender/store/drivers/redis"
	"github.com/aussiebroadwan/bartender/internal/bartender/store/drivers/sqlite"
	"github.com/aussiebroadwan/bartender/pkg/cryptox"
	"github.com/aussiebroadwan/bartender/pkg/jwtx"
	"github.com/aussiebroadwan/bartender/pkg/slogx"
)

const serviceName = "bartender"

// BuildVersion is overridden at build time with -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application owns the store, services and HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db            store.Store
	tokens        *jwtx.TokenManager
	stopTelemetry func(context.Context) error

	authService     *service.AuthService
	identityService *service.IdentityService

	server *http.Server
	router *httpapi.Router
}

// New wires every dependency. On error anything already opened is closed.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	stop, err := setupTracing(ctx, cfg.OTLPEndpoint, serviceName, BuildVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.stopTelemetry = stop

	if err := app.initStore(ctx); err != nil {
		_ = stop(ctx)
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		_ = stop(ctx)
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Handler exposes the routed handler, for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run serves until SIGINT/SIGTERM or a server error, then shuts down.
func (app *Application) Run() error {
	app.logger.Info("bartender starting",
		"port", app.cfg.Port,
		"store", app.cfg.StoreDriver,
		"alg", app.tokens.Algorithm(),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

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

// Shutdown drains the HTTP server, flushes traces and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down bartender...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "err", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "err", err)
		}
	}

	if err := app.stopTelemetry(ctx); err != nil {
		app.logger.Warn("error flushing traces", "err", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "err", err)
		return err
	}

	app.logger.Info("bartender stopped")
	return nil
}

func (app *Application) initStore(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.StoreDriver {
	case DriverSQLite:
		db, err = sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	case DriverRedis:
		db, err = redis.NewStore(ctx, app.cfg.RedisURL)
	case DriverMemory:
		app.logger.Warn("using in-memory store; identities are lost on restart")
		db = memory.NewStore()
	default:
		err = fmt.Errorf("unknown store driver %q", app.cfg.StoreDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", app.cfg.StoreDriver, err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	app.db = db
	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initServices() error {
	secret, err := app.signingSecret()
	if err != nil {
		return err
	}

	pepper, err := cryptox.LoadOrCreateSecret(app.cfg.Auth.PepperFile, cryptox.MinSecretSize)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	app.tokens, err = jwtx.NewTokenManager(jwtx.Options{
		Secret:     secret,
		Algorithm:  app.cfg.Auth.Algorithm,
		Issuer:     app.cfg.Auth.Issuer,
		AccessTTL:  app.cfg.Auth.AccessTokenTTL,
		RefreshTTL: app.cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	hasher := cryptox.PasswordHasher{Cost: app.cfg.Auth.BcryptCost, Pepper: pepper}
	app.authService, err = service.NewAuthService(app.db, hasher, app.tokens)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}
	app.identityService = &service.IdentityService{Store: app.db}
	return nil
}

func (app *Application) signingSecret() ([]byte, error) {
	if app.cfg.Auth.Secret != "" {
		return []byte(app.cfg.Auth.Secret), nil
	}

	secret, err := cryptox.LoadOrCreateSecret(app.cfg.Auth.SecretFile, jwtx.MinSecretSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing secret: %w", err)
	}
	return secret, nil
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.authService,
		app.identityService,
		app.cfg.RateLimits,
		app.logger,
	)
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
