package cmd

import (
	"context"
	"fmt"
	"time"

	"rcconf-manager/core/config"
	"rcconf-manager/core/database"
	"rcconf-manager/core/events"
	"rcconf-manager/core/logger"
	"rcconf-manager/core/storage"
	"rcconf-manager/feature/defaults"
	"rcconf-manager/feature/drift"
	"rcconf-manager/feature/generate"
	"rcconf-manager/feature/overrides"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application holds the services every command is built from.
type application struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	store     storage.Client
	nc        *nats.Conn
	publisher events.Publisher

	defaults  *defaults.Service
	overrides *overrides.Service
	generate  *generate.Service
	drift     *drift.Service
}

// appOptions selects the optional connections a command needs.
type appOptions struct {
	// requireDB fails instead of running without overrides.
	requireDB bool
	// events connects to NATS when a URL is configured.
	events bool
}

// newApplication loads configuration and wires the services. The database,
// storage and NATS are optional unless opts requires them.
func newApplication(ctx context.Context, opts appOptions) (*application, error) {
	cfg, err := config.LoadConfig(".", configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app := &application{cfg: cfg, logger: logg, publisher: &events.NoopPublisher{}}

	if conn, err := database.Connect(cfg.Database); err != nil {
		if opts.requireDB {
			return nil, fmt.Errorf("database connection required: %w", err)
		}
		logg.Warn("Optional database connection failed, overrides disabled", zap.Error(err))
	} else {
		app.db = conn
		logg.Info("Connected to override database", zap.String("driver", cfg.Database.Driver))
	}

	var repo *overrides.Repository
	if app.db != nil {
		repo = overrides.NewRepository(app.db)
		migrateCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.TimeoutSeconds)*time.Second)
		err := repo.Migrate(migrateCtx)
		cancel()
		if err != nil {
			return nil, err
		}
	}

	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		app.store = client
	}

	if opts.events && cfg.Events.NATSURL != "" {
		nc, err := events.Connect(cfg.Events.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logg.Warn("NATS disconnected", zap.Error(err))
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logg.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
			}),
		)
		if err != nil {
			logg.Warn("NATS unavailable, events disabled", zap.Error(err))
		} else {
			app.nc = nc
			app.publisher = events.NewNATSPublisher(nc)
		}
	}

	app.defaults, err = defaults.NewService(logg)
	if err != nil {
		return nil, err
	}
	app.overrides = overrides.NewService(repo, app.defaults, app.publisher, logg)

	app.generate, err = generate.NewService(generate.Options{
		Mountpoint: cfg.Etc.Mountpoint,
		PluginDirs: cfg.Etc.PluginDirs,
		Storage:    app.store,
		Bucket:     cfg.Storage.Bucket,
		Publisher:  app.publisher,
	}, app.defaults, app.overrides, logg)
	if err != nil {
		return nil, err
	}

	app.drift = drift.NewService(app.defaults, app.overrides, app.generate, cfg.Etc.CacheTTL, logg)
	return app, nil
}

// Close releases the connections.
func (a *application) Close() {
	_ = a.publisher.Close()
	if a.nc != nil {
		a.nc.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.logger.Sync()
}
