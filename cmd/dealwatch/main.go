package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dealwatch/backend/internal/app"
	"github.com/dealwatch/backend/internal/config"
	"github.com/dealwatch/backend/internal/logger"
	"github.com/dealwatch/backend/internal/repository"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "dealwatch",
		Short:        "Game price drop tracker tools",
		SilenceUsage: true,
	}

	root.AddCommand(runOnceCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg := config.Load()
	log := logger.Setup(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func runOnceCmd() *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "Run a single polling cycle and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if channel != "" {
				cfg.Delivery.Channel = channel
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, cfg.Tracker.Timeout)
			defer cancel()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			report, err := a.Tracker.RunOnce(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "Override DELIVERY_CHANNEL (telegram, kafka, email, log)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StoreBackend != config.BackendPostgres {
				return fmt.Errorf("migrate requires STORE_BACKEND=%s", config.BackendPostgres)
			}

			db, err := app.OpenDB(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := repository.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info("Schema is up to date")
			return nil
		},
	}
}
