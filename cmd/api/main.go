package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	redisnotify "pet-care-tracker/internal/adapters/notify/redis"
	pg "pet-care-tracker/internal/adapters/storage/postgres"
	"pet-care-tracker/internal/adapters/storage/sqlite"
	"pet-care-tracker/internal/platform/config"
	"pet-care-tracker/internal/platform/logger"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		// el config puede no haber cargado; el logger sale solo del entorno
		logger.NewFromEnv().Error("command failed", map[string]any{"error": err})
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "petcare",
	Short:         "Pet care tracker: tasks, reminders, health records and stats",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := newInstance(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		srv := &http.Server{
			Addr:         rt.cfg.Server.Addr,
			Handler:      rt.app.Handler(),
			ReadTimeout:  rt.cfg.Server.ReadTimeout.Duration,
			WriteTimeout: rt.cfg.Server.WriteTimeout.Duration,
		}

		errCh := make(chan error, 1)
		go func() {
			rt.log.Info("starting server", map[string]any{"addr": srv.Addr, "storage": rt.cfg.Storage.Type})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		rt.log.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the storage schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		switch cfg.Storage.Type {
		case "sqlite":
			// Open aplica las migraciones pendientes
			db, err := sqlite.Open(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			version, dirty, err := sqlite.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Printf("sqlite schema at version %d (dirty=%v)\n", version, dirty)
		case "postgres":
			db, err := pg.Open(cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("opening postgres: %w", err)
			}
			defer db.Close()
			if err := pg.EnsureSchema(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Println("postgres schema ready")
		default:
			fmt.Printf("%s storage needs no schema\n", cfg.Storage.Type)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dashboard as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newInstance(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		d, err := rt.app.Analytics.Dashboard(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(d)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Cloud sync",
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch the remote snapshot and merge it by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newSyncInstance(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		rep, err := rt.app.Sync.Pull(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(rep)
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the local snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newSyncInstance(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		rep, err := rt.app.Sync.Push(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(rep)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath, config.Default()); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		fmt.Printf("Configuration initialized at %s\n", configPath)
		return nil
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Inspect the notification schedule",
}

var notificationsDueCmd = &cobra.Command{
	Use:   "due",
	Short: "List notifications whose trigger already passed (redis only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		if cfg.Notifications.Type != "redis" {
			return fmt.Errorf("notifications due needs redis notifications, got %q", cfg.Notifications.Type)
		}

		n, err := redisnotify.Open(cmd.Context(), cfg.Notifications.RedisURL, cfg.Notifications.RedisPrefix)
		if err != nil {
			return err
		}
		defer n.Close()

		due, err := n.Due(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		return printJSON(due)
	},
}

func newSyncInstance(ctx context.Context) (*instance, error) {
	rt, err := newInstance(ctx)
	if err != nil {
		return nil, err
	}
	if rt.app.Sync == nil {
		rt.Close()
		return nil, fmt.Errorf("cloud sync is not configured (sync.type = %q)", rt.cfg.Sync.Type)
	}
	return rt, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	defaultConfig := os.Getenv("PETCARE_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "petcare.toml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "Path to the TOML config file")

	configCmd.AddCommand(configInitCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncPushCmd)
	notificationsCmd.AddCommand(notificationsDueCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(notificationsCmd)
}
