package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JxWayne890/dealflow/internal/adapters/http/handlers"
	"github.com/JxWayne890/dealflow/internal/adapters/http/middleware"
	"github.com/JxWayne890/dealflow/internal/platform/config"
	"github.com/JxWayne890/dealflow/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AuthConfig selects header or Supabase token authentication.
	AuthConfig *config.AuthConfig

	// AppConfig contains application configuration.
	AppConfig *config.AppConfig

	CORS      config.CORSConfig
	RateLimit config.RateLimitConfig

	// TracingEnabled adds otelgin server spans.
	TracingEnabled bool

	HealthHandler *handlers.HealthHandler
	QuoteHandler  *handlers.QuoteHandler
	RelayHandler  *handlers.RelayHandler

	// Timeout is the default request timeout.
	Timeout time.Duration
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. CORS - answer preflights before any other work
//  3. Request ID, Correlation ID
//  4. OpenTelemetry - server span, then metrics and the trace header
//  5. Logging - request logging (skips health endpoints)
//
// Route groups:
//   - /-/ (internal): Health endpoints, no auth required
//   - /api/v1/ (public API): quote and relay endpoints, authenticated
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.CORS(cfg.CORS),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)

	if cfg.TracingEnabled && cfg.AppConfig != nil {
		engine.Use(telemetry.TracingMiddleware(cfg.AppConfig.Name))
	}

	engine.Use(
		telemetry.Middleware(),
		middleware.Logging(cfg.Logger),
	)

	// Register health endpoints (no auth, no timeout for probes)
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutesOnEngine(engine)
	}

	apiV1 := engine.Group("/api/v1")
	apiV1.Use(middleware.Deadline(cfg.Timeout))

	setupAPIRoutes(apiV1, cfg)
}

// setupAPIRoutes registers business API routes.
func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthConfig != nil && cfg.AuthConfig.Enabled {
		rg.Use(middleware.RequireAuth(cfg.AuthConfig))
	} else {
		rg.Use(middleware.OptionalAuth(cfg.AuthConfig))
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterRoutes(rg)
	}

	if cfg.RelayHandler != nil {
		relay := rg.Group("")
		if cfg.RateLimit.Enabled {
			relay.Use(middleware.NewRateLimiter(cfg.RateLimit).Middleware())
		}
		cfg.RelayHandler.RegisterRoutes(relay)
	}
}

// NewRouterConfig builds a RouterConfig from the loaded configuration.
func NewRouterConfig(cfg *config.Config, logger *slog.Logger) RouterConfig {
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return RouterConfig{
		Logger:         logger,
		AuthConfig:     &cfg.Auth,
		AppConfig:      &cfg.App,
		CORS:           cfg.CORS,
		RateLimit:      cfg.RateLimit,
		TracingEnabled: cfg.Telemetry.Enabled,
		Timeout:        timeout,
	}
}
