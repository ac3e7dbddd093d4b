package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/star2win/listprep/internal/config"
	"github.com/star2win/listprep/internal/core"
	"github.com/star2win/listprep/internal/logging"
	"github.com/star2win/listprep/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hygiene HTTP API.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file if it exists (Overload overwrites existing env vars)
		if err := godotenv.Overload(); err != nil {
			slog.Info("no .env file found, using environment variables")
		} else {
			slog.Info("loaded .env file (overwriting existing env vars)")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

		slog.Info("configuration loaded", "config", cfg.String())

		ctx := context.Background()

		// The database is optional: without it only run history is lost.
		var pool *pgxpool.Pool
		if cfg.Database.URL != "" {
			poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
			if err != nil {
				return err
			}
			poolConfig.MaxConns = int32(cfg.Database.MaxConns)
			poolConfig.MinConns = int32(cfg.Database.MinConns)
			poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime

			pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pool.Ping(ctx); err != nil {
				return err
			}
			slog.Info("connected to database")
		}

		service := core.NewService(cfg.Run, pool)
		if err := service.History().Init(ctx); err != nil {
			return err
		}

		server := web.NewServer(service, cfg)

		// Graceful shutdown
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			slog.Info("shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if active := service.Limiter().ActiveCount(); active > 0 {
				slog.Info("waiting for runs to complete", "active", active)
				if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
					slog.Warn("runs did not complete in time", "error", err)
				} else {
					slog.Info("all runs completed")
				}
			}

			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
			}
		}()

		if err := server.Start(); err != nil {
			slog.Info("server stopped", "error", err)
		}
		return nil
	},
}
