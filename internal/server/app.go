// Package server assembles the booking backend: it opens the database, runs
// migrations, seeds the default admin, builds the services and serves the
// HTTP API until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ananddevocation/tripdesk/internal/logging"
	"github.com/ananddevocation/tripdesk/internal/server/auth"
	"github.com/ananddevocation/tripdesk/internal/server/config"
	"github.com/ananddevocation/tripdesk/internal/server/httpapi"
	"github.com/ananddevocation/tripdesk/internal/server/repositories/repomanager"
	"github.com/ananddevocation/tripdesk/internal/server/services"
)

const startupTimeout = 30 * time.Second

// openDB is swapped in tests.
var openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

// NewApp performs every startup step that can fail. Any error here means the
// process must not start serving.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {

	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	hasher, err := auth.NewHasher(c.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hasher init error: %w", err)
	}

	issuer, err := auth.NewIssuer([]byte(c.SecretKey), c.Algorithm, c.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer init error: %w", err)
	}

	accounts := services.NewAccountService(db, rm, hasher, logger)
	if err := accounts.SeedAdmin(ctx, c.DefaultAdminEmail, c.DefaultAdminPassword, c.DefaultAdminName); err != nil {
		return nil, err
	}

	srv := httpapi.NewServer(c, logger, httpapi.Deps{
		Auth:     services.NewAuthService(db, rm, hasher, issuer, c, logger),
		Gate:     services.NewGate(db, rm, issuer, logger),
		Recovery: services.NewRecoveryService(db, rm, hasher, services.NewLogNotifier(logger), c, logger),
		Accounts: accounts,
		Catalog:  services.NewCatalogService(db, rm, logger),
		Media:    services.NewMediaService(c, logger),
	})

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

// Run serves until SIGINT, SIGTERM or SIGQUIT, or until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "db close failed", "error", err)
		}
	}()

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
		return err
	}

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
