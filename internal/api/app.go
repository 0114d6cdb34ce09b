package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/pokerlog/internal/auth"
	"github.com/felixgeelhaar/pokerlog/internal/config"
	"github.com/felixgeelhaar/pokerlog/internal/events"
	"github.com/felixgeelhaar/pokerlog/internal/storage/postgres"
	"github.com/felixgeelhaar/pokerlog/internal/storage/sqlite"
	"github.com/felixgeelhaar/pokerlog/internal/tracker"
)

// Pinger reports database reachability for the readiness probe
type Pinger interface {
	PingContext(ctx context.Context) error
}

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     Pinger
	Auth   *auth.Service
	Store  tracker.Store
	Events events.Publisher

	closers []func() error
}

// NewApp opens the configured storage backend, applies migrations and wires
// the services on top of it.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	var authRepo auth.Repository
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		app.onClose(db.Close)
		if err := db.Migrate(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		app.DB = db
		app.Store = postgres.NewRecordStore(db.Pool)
		authRepo = postgres.NewAuthStore(db.SQL)

	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		db, err := sqlite.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		app.onClose(db.Close)
		if err := db.Migrate(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		app.DB = db
		app.Store = sqlite.NewStore(db)
		authRepo = sqlite.NewAuthStore(db)

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	app.Auth = auth.NewService(authRepo, cfg.SessionTTL())

	app.Events = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := events.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("connect record events: %w", err)
		}
		app.onClose(conn.Close)
		app.Events = events.NewAMQPPublisher(conn)
		slog.Info("record events enabled", "queue", events.RecordQueueName)
	}

	return app, nil
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
