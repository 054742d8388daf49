// Package main is the operator CLI: schema migrations and one-off
// deduplication passes against the configured quote store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JxWayne890/dealflow/internal/adapters/postgres"
	"github.com/JxWayne890/dealflow/internal/bootstrap"
	"github.com/JxWayne890/dealflow/internal/platform/config"
)

// env carries what the commands need. Tests replace the functions.
type env struct {
	profile string

	loadConfig func(profile string) (*config.Config, error)
	quotes     func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (quoteRunner, func(), error)

	migrateUp     func(ctx context.Context, dsn string) error
	migrateDown   func(ctx context.Context, dsn string) error
	schemaVersion func(ctx context.Context, dsn string) (uint, bool, error)
}

func defaultEnv() *env {
	return &env{
		loadConfig:    config.Load,
		quotes:        buildQuotes,
		migrateUp:     postgres.MigrateUp,
		migrateDown:   postgres.MigrateDown,
		schemaVersion: postgres.SchemaVersion,
	}
}

func buildQuotes(ctx context.Context, cfg *config.Config, logger *slog.Logger) (quoteRunner, func(), error) {
	deps, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return nil, nil, err
	}

	return deps.Quotes, deps.Close, nil
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "dealflow-admin",
		Short: "Operator commands for the dealflow service",
		Long: `Operator commands for the dealflow service.

Configuration is read the same way the service reads it: configs/base.yaml,
then configs/<profile>.yaml, then APP_* environment variables.`,
		SilenceUsage: true,
	}

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}
	root.PersistentFlags().StringVar(&e.profile, "profile", profile, "configuration profile")

	root.AddCommand(newMigrateCmd(e), newDedupeCmd(e))

	return root
}

// config loads and validates the configuration for the selected profile.
func (e *env) config() (*config.Config, error) {
	cfg, err := e.loadConfig(e.profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultEnv()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
