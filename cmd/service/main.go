// Command service runs the dealflow HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JxWayne890/dealflow/internal/adapters/http"
	"github.com/JxWayne890/dealflow/internal/adapters/http/handlers"
	"github.com/JxWayne890/dealflow/internal/bootstrap"
	"github.com/JxWayne890/dealflow/internal/platform/config"
	"github.com/JxWayne890/dealflow/internal/platform/telemetry"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildTime=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "dealflow: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := bootstrap.NewLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting dealflow",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("store", cfg.Store.Driver),
		slog.String("mail_provider", cfg.Mail.Provider),
		slog.Bool("redis_lock", cfg.Redis.Enabled),
		slog.Bool("events", cfg.RabbitMQ.Enabled),
	)

	tel, err := telemetry.New(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("telemetry shutdown", slog.Any("error", err))
		}
	}()

	deps, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return fmt.Errorf("building dependencies: %w", err)
	}
	defer deps.Close()

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), routes(cfg, logger, deps))

	if err := server.Run(ctx); err != nil {
		return err
	}

	logger.Info("dealflow stopped")

	return nil
}

// loadConfig reads the profile named by APP_ENVIRONMENT, local by default.
func loadConfig() (*config.Config, error) {
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func telemetryConfig(cfg *config.Config) *telemetry.Config {
	return &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	}
}

func routes(cfg *config.Config, logger *slog.Logger, deps *bootstrap.Deps) http.RouterConfig {
	rc := http.NewRouterConfig(cfg, logger)
	rc.HealthHandler = handlers.NewHealthHandler(deps.Health, handlers.NewBuildInfo(Version, Commit, BuildTime))
	rc.QuoteHandler = handlers.NewQuoteHandler(deps.Quotes)
	rc.RelayHandler = handlers.NewRelayHandler(deps.Billing, deps.Mail)

	return rc
}
