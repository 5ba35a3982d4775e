package main

import (
	"context"
	"fmt"

	s3sync "pet-care-tracker/internal/adapters/cloudsync/s3"
	notifymem "pet-care-tracker/internal/adapters/notify/memory"
	redisnotify "pet-care-tracker/internal/adapters/notify/redis"
	"pet-care-tracker/internal/adapters/notify/webhook"
	mem "pet-care-tracker/internal/adapters/storage/memory"
	pg "pet-care-tracker/internal/adapters/storage/postgres"
	"pet-care-tracker/internal/adapters/storage/sqlite"
	"pet-care-tracker/internal/platform/config"
	"pet-care-tracker/internal/platform/logger"
	"pet-care-tracker/internal/ports/cloudsync"
	"pet-care-tracker/internal/ports/notify"
	"pet-care-tracker/internal/ports/storage"
	"pet-care-tracker/internal/router"
)

func noop() error { return nil }

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
}

// openStore crea el storage según cfg.Storage.Type. El cierre devuelto es del llamador.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, func() error, error) {
	switch cfg.Type {
	case "memory":
		return mem.NewStore(), noop, nil
	case "sqlite":
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite %s: %w", cfg.Path, err)
		}
		return sqlite.NewStore(db), db.Close, nil
	case "postgres":
		db, err := pg.Open(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres: %w", err)
		}
		if err := pg.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ensuring postgres schema: %w", err)
		}
		return pg.NewStore(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func openNotifier(ctx context.Context, cfg config.NotificationsConfig) (notify.Notifier, func() error, error) {
	switch cfg.Type {
	case "memory":
		return notifymem.NewNotifier(), noop, nil
	case "redis":
		n, err := redisnotify.Open(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return n, n.Close, nil
	case "webhook":
		n, err := webhook.New(cfg.WebhookURL, cfg.WebhookToken, cfg.Timeout.Duration)
		if err != nil {
			return nil, nil, err
		}
		return n, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifications type: %s", cfg.Type)
	}
}

// openSyncer devuelve nil si no hay sync configurado.
func openSyncer(ctx context.Context, cfg config.SyncConfig) (cloudsync.Syncer, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "s3":
		s, err := s3sync.New(ctx, s3sync.Options{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			UsePathStyle:    cfg.UsePathStyle,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			AgeRecipient:    cfg.AgeRecipient,
			AgeIdentityPath: cfg.AgeIdentityPath,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown sync type: %s", cfg.Type)
	}
}

// instance agrupa la app y los recursos que hay que cerrar al salir.
type instance struct {
	cfg     *config.Config
	log     logger.Logger
	app     *router.App
	closers []func() error
}

func (rt *instance) Close() {
	if rt.app != nil {
		rt.app.Close()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Warn("close failed", map[string]any{"error": err})
		}
	}
}

// newInstance lee la config y arma la app completa. El llamador debe hacer defer rt.Close().
func newInstance(ctx context.Context) (*instance, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	rt := &instance{cfg: cfg, log: newLogger(cfg)}

	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, closeStore)

	notifier, closeNotifier, err := openNotifier(ctx, cfg.Notifications)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, closeNotifier)

	syncer, err := openSyncer(ctx, cfg.Sync)
	if err != nil {
		rt.Close()
		return nil, err
	}

	app, err := router.NewApp(ctx, router.Options{
		Store:          store,
		Notifier:       notifier,
		Syncer:         syncer,
		Logger:         rt.log,
		StorageTimeout: cfg.Storage.Timeout.Duration,
		Debounce:       cfg.Analytics.Debounce.Duration,
		SeriesDays:     cfg.Analytics.SeriesDays,
		StreakLimit:    cfg.Analytics.StreakLimit,
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	rt.app = app
	return rt, nil
}
