// Package bootstrap builds the adapters and services both binaries share
// from a loaded configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/JxWayne890/dealflow/internal/adapters/clients"
	"github.com/JxWayne890/dealflow/internal/adapters/clients/acl"
	"github.com/JxWayne890/dealflow/internal/adapters/postgres"
	"github.com/JxWayne890/dealflow/internal/adapters/rabbitmq"
	"github.com/JxWayne890/dealflow/internal/adapters/redislock"
	"github.com/JxWayne890/dealflow/internal/adapters/smtp"
	"github.com/JxWayne890/dealflow/internal/adapters/stripe"
	"github.com/JxWayne890/dealflow/internal/app"
	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/platform/config"
	"github.com/JxWayne890/dealflow/internal/platform/logging"
	"github.com/JxWayne890/dealflow/internal/platform/telemetry"
	"github.com/JxWayne890/dealflow/internal/ports"
)

// QuoteStore is a quote store that can also report its health.
type QuoteStore interface {
	ports.QuoteStore
	ports.HealthChecker
}

// Deps holds everything built from the configuration.
type Deps struct {
	Store     QuoteStore
	Lock      ports.DedupeLock
	Publisher ports.EventPublisher
	Gateway   ports.PaymentGateway
	Mailer    ports.Mailer
	Health    *ports.DefaultHealthRegistry

	Quotes  *app.QuoteService
	Billing *app.BillingService
	Mail    *app.MailService

	closers []func()
}

// Options overrides parts of the build.
type Options struct {
	// Registerer receives the dedupe metrics. Nil uses the default registry.
	Registerer prometheus.Registerer

	// Redis replaces the client built from the configuration.
	Redis redis.UniversalClient
}

// NewLogger builds the service logger from the log section.
func NewLogger(cfg *config.Config) *slog.Logger {
	return logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
}

// Build wires the adapters selected by cfg and the services on top of them.
// On error everything opened so far is closed again.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (_ *Deps, err error) {
	d := &Deps{Health: ports.NewHealthRegistry(0)}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	if d.Store, err = d.buildStore(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if err = d.Health.Register(d.Store); err != nil {
		return nil, err
	}

	if err = d.buildLock(cfg, logger, opts.Redis); err != nil {
		return nil, err
	}

	if err = d.buildPublisher(cfg, logger); err != nil {
		return nil, err
	}

	if d.Mailer, err = buildMailer(cfg, logger); err != nil {
		return nil, err
	}

	d.Gateway = stripe.New(cfg.Stripe, nil, logger)

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	metrics, err := telemetry.NewDedupeMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("registering dedupe metrics: %w", err)
	}

	d.Quotes = app.NewQuoteService(app.QuoteServiceConfig{
		Store: d.Store,
		Resolver: app.NewDuplicateResolver(d.Store, app.ResolverConfig{
			Concurrency:   cfg.Dedupe.Concurrency,
			DeleteTimeout: cfg.Dedupe.DeleteTimeout,
			Observer:      metrics,
		}),
		Lock:      d.Lock,
		Publisher: d.Publisher,
		Logger:    logger,
	})
	d.Billing = app.NewBillingService(d.Gateway, app.CheckoutDefaults{
		SuccessURL: cfg.Stripe.DefaultSuccessURL,
		CancelURL:  cfg.Stripe.DefaultCancelURL,
		Mode:       domain.CheckoutMode(cfg.Stripe.DefaultMode),
	}, logger)
	d.Mail = app.NewMailService(d.Mailer, app.MailServiceConfig{
		From:         cfg.Mail.From,
		SanitizeHTML: cfg.Mail.SanitizeHTML,
		Logger:       logger,
	})

	return d, nil
}

// Close releases connections in reverse order of creation.
func (d *Deps) Close() {
	for _, fn := range slices.Backward(d.closers) {
		fn()
	}
	d.closers = nil
}

func (d *Deps) buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (QuoteStore, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		if cfg.Database.MigrateOnStart {
			if err := postgres.MigrateUp(ctx, cfg.Database.URL); err != nil {
				return nil, fmt.Errorf("migrating database: %w", err)
			}
			logger.Info("database migrations applied")
		}

		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		d.closers = append(d.closers, db.Close)

		return postgres.NewQuoteStore(db, cfg.Store.Table), nil

	default:
		svc := cfg.Services.Supabase
		client, err := NewServiceClient(cfg, svc, acl.SupabaseAuth(svc.APIKey), logger)
		if err != nil {
			return nil, err
		}

		return acl.NewSupabaseQuoteStore(acl.SupabaseQuoteStoreConfig{
			Client: client,
			Table:  cfg.Store.Table,
			Logger: logger,
		}), nil
	}
}

func (d *Deps) buildLock(cfg *config.Config, logger *slog.Logger, client redis.UniversalClient) error {
	if client == nil && !cfg.Redis.Enabled {
		d.Lock = redislock.NewLocal()
		return nil
	}

	if client == nil {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = rc.Close() })
		client = rc
	}

	lock := redislock.New(client, cfg.Redis.LockTTL, cfg.Redis.KeyPrefix, logger)
	d.Lock = lock

	return d.Health.Register(lock)
}

func (d *Deps) buildPublisher(cfg *config.Config, logger *slog.Logger) error {
	if !cfg.RabbitMQ.Enabled {
		d.Publisher = rabbitmq.Noop{Logger: logger}
		return nil
	}

	pub, err := rabbitmq.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
	if err != nil {
		return err
	}
	d.closers = append(d.closers, func() {
		if err := pub.Close(); err != nil {
			logger.Warn("closing rabbitmq publisher", slog.Any("error", err))
		}
	})
	d.Publisher = pub

	return d.Health.RegisterOptional(pub)
}

func buildMailer(cfg *config.Config, logger *slog.Logger) (ports.Mailer, error) {
	switch cfg.Mail.Provider {
	case config.MailProviderSMTP:
		if cfg.SMTP.Host == "" {
			return nil, errors.New("smtp.host is required for the smtp mail provider")
		}

		return smtp.New(cfg.SMTP, logger), nil

	default:
		svc := cfg.Services.Resend
		client, err := NewServiceClient(cfg, svc, acl.BearerAuth(svc.APIKey), logger)
		if err != nil {
			return nil, err
		}

		return acl.NewResendMailer(client, logger), nil
	}
}

// NewServiceClient builds the resilient HTTP client for one downstream API.
func NewServiceClient(cfg *config.Config, svc config.ServiceEndpointConfig, auth func(*http.Request), logger *slog.Logger) (*clients.Client, error) {
	client, err := clients.New(&clients.Config{
		BaseURL:     svc.BaseURL,
		ServiceName: svc.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		AuthFunc:    auth,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", svc.Name, err)
	}

	return client, nil
}
