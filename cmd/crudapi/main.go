package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/kutbudev/crud-docs/api"
	"github.com/kutbudev/crud-docs/internal/events"
	"github.com/kutbudev/crud-docs/internal/logging"
	"github.com/kutbudev/crud-docs/pkg/config"
	"github.com/kutbudev/crud-docs/pkg/repository"
	"github.com/kutbudev/crud-docs/pkg/service"
)

// Version will be set during build with ldflags
var Version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "crudapi",
		Short:   "HAL crud API server",
		Version: Version,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				fx.NopLogger,
				fx.Provide(
					config.Load,
					newLogger,
					newRepository,
					newPublisher,
					newService,
					newRouter,
					newServer,
				),
				fx.Invoke(registerServerHooks),
			)

			if err := app.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start application: %w", err)
			}
			<-app.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.Stop(stopCtx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var createDatabase bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			if createDatabase {
				if err := ensureDatabase(cmd.Context(), cfg, logger); err != nil {
					return err
				}
			}

			db, err := repository.NewDatabase(cfg)
			if err != nil {
				return err
			}
			if err := repository.AutoMigrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info("migration complete", "database", cfg.Database.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&createDatabase, "create-database", false, "create the database first when it does not exist")
	return cmd
}

// ensureDatabase connects to the maintenance database and creates the
// configured one when missing.
func ensureDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	admin := *cfg
	admin.Database.Name = "postgres"

	db, err := sql.Open("postgres", admin.GetDatabaseDSN())
	if err != nil {
		return fmt.Errorf("failed to open maintenance connection: %w", err)
	}
	defer db.Close()

	var exists bool
	err = db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Database.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check database: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(cfg.Database.Name)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	logger.Info("database created", "database", cfg.Database.Name)
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return logger
}

func newRepository(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (repository.Repository, error) {
	var repo repository.Repository
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := repository.NewDatabase(cfg)
		if err != nil {
			return nil, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return closeDatabase(db) }})
		repo = repository.NewDatabaseRepository(db)
	default:
		repo = repository.NewMemoryRepository()
	}

	if addrs := cfg.RedisAddrs(); len(addrs) > 0 {
		client := repository.NewRedisClient(addrs, cfg.Cache.RedisPassword)
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		repo = repository.NewCachedRepository(repo, client, cfg.Cache.TTL, logger)
		logger.Info("redis cache enabled", "addrs", addrs)
	}

	logger.Info("repository ready", "driver", cfg.Store.Driver)
	return repo, nil
}

func closeDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// newPublisher returns nil when no brokers are configured
func newPublisher(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*events.Publisher, error) {
	brokers := cfg.KafkaBrokers()
	if len(brokers) == 0 {
		return nil, nil
	}
	producer, err := events.NewProducer(brokers)
	if err != nil {
		return nil, err
	}
	publisher := events.NewPublisher(producer, cfg.Events.Topic, logger)
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return publisher.Close() }})
	logger.Info("event publishing enabled", "brokers", brokers, "topic", cfg.Events.Topic)
	return publisher, nil
}

func newService(repo repository.Repository, publisher *events.Publisher, logger *slog.Logger) *service.Service {
	opts := []service.Option{service.WithLogger(logger)}
	if publisher != nil {
		opts = append(opts, service.WithListener(publisher))
	}
	return service.NewService(repo, opts...)
}

func newRouter(cfg *config.Config, svc *service.Service, logger *slog.Logger) http.Handler {
	return api.NewRouter(svc, api.Options{
		BaseURL: cfg.Server.BaseURL,
		Logger:  logger,
	})
}

func newServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) *api.Server {
	return api.NewServer(cfg, handler, logger)
}

// registerServerHooks registers lifecycle hooks for the HTTP server
func registerServerHooks(lc fx.Lifecycle, shutdowner fx.Shutdowner, srv *api.Server, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", "error", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server forced to shutdown", "error", err)
				return err
			}
			logger.Info("server exited gracefully")
			return nil
		},
	})
}
