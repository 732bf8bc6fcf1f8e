// Package server initializes and runs the identity server: configuration,
// database connection and migrations, service wiring, and the HTTP
// endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ojudge/identity/internal/logging"
	"github.com/ojudge/identity/internal/server/config"
	"github.com/ojudge/identity/internal/server/credstore"
	"github.com/ojudge/identity/internal/server/httpapi"
	"github.com/ojudge/identity/internal/server/repositories/repomanager"
	"github.com/ojudge/identity/internal/server/services"
	"github.com/ojudge/identity/internal/server/store"
	"github.com/ojudge/identity/internal/server/tokens"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	alerter := store.NewLogAlerter(logger)
	identityStore := store.NewIdentityStore(db, rm, logger, alerter)

	creds := credstore.New(cfg.PasswordMinLength, cfg.PasswordMaxLength, cfg.BcryptCost)
	tokenSvc := tokens.NewService([]byte(cfg.SecretKey), cfg.TokenValidityDuration)

	authSvc := services.NewAuthService(identityStore, creds, tokenSvc, logger)
	identitySvc := services.NewIdentityService(identityStore, creds, cfg, logger)
	avatarSvc := services.NewAvatarService(cfg)

	httpServer := httpapi.New(cfg.EndpointAddr, authSvc, identitySvc, avatarSvc, tokenSvc, logger)

	return &App{config: cfg, logger: logger, db: db, http: httpServer}, nil
}

// waitForDB pings the database with fibonacci backoff until it answers or
// the retries are exhausted. Fresh deployments routinely start the server
// before Postgres finishes booting.
func (app *App) waitForDB(ctx context.Context) error {
	backoff := retry.WithMaxRetries(10, retry.NewFibonacci(time.Second))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := app.db.PingContext(ctx); err != nil {
			app.logger.Warn(ctx, "database not ready, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting identity server", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	if err := app.waitForDB(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := app.http.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.http.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err.Error())
	}
	return nil
}
