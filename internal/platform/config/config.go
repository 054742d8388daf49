// Package config loads the service configuration with koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	DefaultServerPort     = 8080
	DefaultMaxRequestSize = 1 << 20

	DefaultClientRetryMaxAttempts     = 3
	DefaultClientRetryMultiplier      = 2.0
	DefaultClientRetryJitterFactor    = 0.25
	DefaultClientCircuitMaxFailures   = 5
	DefaultClientCircuitHalfOpenLimit = 3

	DefaultTransportMaxIdleConns        = 100
	DefaultTransportMaxIdleConnsPerHost = 10
	DefaultTransportIdleConnTimeout     = 90 * time.Second

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
	DefaultLogFileMaxAgeDays = 28

	// DefaultDedupeConcurrency caps in-flight deletions during one pass.
	DefaultDedupeConcurrency = 4

	// DefaultDedupeDeleteTimeout bounds a single remote deletion.
	DefaultDedupeDeleteTimeout = 10 * time.Second

	DefaultCORSMaxAge = 300

	StoreDriverSupabase = "supabase"
	StoreDriverPostgres = "postgres"

	MailProviderResend = "resend"
	MailProviderSMTP   = "smtp"

	AuthModeHeaders  = "headers"
	AuthModeSupabase = "supabase"
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Auth      AuthConfig      `koanf:"auth"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Dedupe    DedupeConfig    `koanf:"dedupe"    validate:"required"`
	Store     StoreConfig     `koanf:"store"     validate:"required"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	RabbitMQ  RabbitMQConfig  `koanf:"rabbitmq"`
	Stripe    StripeConfig    `koanf:"stripe"`
	Mail      MailConfig      `koanf:"mail"      validate:"required"`
	SMTP      SMTPConfig      `koanf:"smtp"`
	Services  ServicesConfig  `koanf:"services"  validate:"required"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	RequestTimeout  time.Duration `koanf:"request_timeout"  validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `koanf:"insecure"`
}

// AuthConfig selects how the broker identity is established.
// In headers mode a gateway has already verified the caller and forwards
// the claims. In supabase mode the Supabase access token is verified here.
type AuthConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Mode          string `koanf:"mode"           validate:"required_if=Enabled true,omitempty,oneof=headers supabase"`
	JWTSecret     string `koanf:"jwt_secret"     validate:"required_if=Mode supabase"`
	Audience      string `koanf:"audience"`
	RolesHeader   string `koanf:"roles_header"`
	SubjectHeader string `koanf:"subject_header"`
}

// ClientConfig contains HTTP client settings for downstream services.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig contains retry settings for HTTP clients.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig contains circuit breaker settings for HTTP clients.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// CORSConfig controls browser preflight handling for the SPA.
type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"   validate:"required,min=1"`
	AllowedMethods   []string `koanf:"allowed_methods"   validate:"required,min=1"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	ExposedHeaders   []string `koanf:"exposed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"           validate:"min=0"`
}

// RateLimitConfig throttles the checkout and email relays per caller.
type RateLimitConfig struct {
	Enabled           bool          `koanf:"enabled"`
	RequestsPerMinute int           `koanf:"requests_per_minute" validate:"required_if=Enabled true,omitempty,min=1"`
	Burst             int           `koanf:"burst"               validate:"required_if=Enabled true,omitempty,min=1"`
	IdleTTL           time.Duration `koanf:"idle_ttl"            validate:"omitempty,min=1s"`
}

// DedupeConfig tunes the deletion phase of a deduplication pass.
type DedupeConfig struct {
	Concurrency   int           `koanf:"concurrency"    validate:"required,min=1,max=64"`
	DeleteTimeout time.Duration `koanf:"delete_timeout" validate:"required,min=100ms"`
}

// StoreConfig selects the quote store backend.
type StoreConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=supabase postgres"`
	Table  string `koanf:"table"  validate:"required"`
}

// DatabaseConfig configures the direct Postgres quote store.
type DatabaseConfig struct {
	URL            string `koanf:"url"`
	MaxConns       int32  `koanf:"max_conns"        validate:"omitempty,min=1"`
	MinConns       int32  `koanf:"min_conns"        validate:"omitempty,min=0"`
	MigrateOnStart bool   `koanf:"migrate_on_start"`
}

// RedisConfig configures the per-owner dedupe lock.
type RedisConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Addr      string        `koanf:"addr"       validate:"required_if=Enabled true"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"         validate:"min=0"`
	LockTTL   time.Duration `koanf:"lock_ttl"   validate:"required,min=1s"`
	KeyPrefix string        `koanf:"key_prefix"`
}

// RabbitMQConfig configures dedupe event publishing.
type RabbitMQConfig struct {
	Enabled  bool   `koanf:"enabled"`
	URL      string `koanf:"url"      validate:"required_if=Enabled true"`
	Exchange string `koanf:"exchange" validate:"required_if=Enabled true"`
}

// StripeConfig configures checkout session creation.
type StripeConfig struct {
	SecretKey         string `koanf:"secret_key"`
	APIURL            string `koanf:"api_url"             validate:"omitempty,url"`
	DefaultSuccessURL string `koanf:"default_success_url" validate:"omitempty,url"`
	DefaultCancelURL  string `koanf:"default_cancel_url"  validate:"omitempty,url"`
	DefaultMode       string `koanf:"default_mode"        validate:"required,oneof=subscription payment"`
}

// MailConfig selects the transactional email provider.
type MailConfig struct {
	Provider     string `koanf:"provider"      validate:"required,oneof=resend smtp"`
	From         string `koanf:"from"          validate:"required"`
	SanitizeHTML bool   `koanf:"sanitize_html"`
}

// SMTPConfig configures the SMTP fallback mail provider.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"     validate:"omitempty,min=1,max=65535"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// ServicesConfig contains configuration for downstream HTTP services.
type ServicesConfig struct {
	Supabase ServiceEndpointConfig `koanf:"supabase" validate:"required"`
	Resend   ServiceEndpointConfig `koanf:"resend"   validate:"required"`
}

// ServiceEndpointConfig describes one downstream HTTP API.
type ServiceEndpointConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	Name    string `koanf:"name"     validate:"required"`
	APIKey  string `koanf:"api_key"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":        "dealflow",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "60s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.request_timeout":  "45s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/dealflow.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "dealflow",
		"telemetry.sampling_rate": 1.0,
		"telemetry.insecure":      true,

		"auth.enabled":        true,
		"auth.mode":           AuthModeHeaders,
		"auth.audience":       "authenticated",
		"auth.roles_header":   "X-User-Roles",
		"auth.subject_header": "X-User-ID",

		"client.timeout":                           "15s",
		"client.retry.max_attempts":                DefaultClientRetryMaxAttempts,
		"client.retry.initial_interval":            "100ms",
		"client.retry.max_interval":                "2s",
		"client.retry.multiplier":                  DefaultClientRetryMultiplier,
		"client.retry.jitter_factor":               DefaultClientRetryJitterFactor,
		"client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",

		"cors.allowed_origins":   []string{"http://localhost:5173"},
		"cors.allowed_methods":   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		"cors.allowed_headers":   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID", "X-Correlation-ID", "apikey", "x-client-info"},
		"cors.exposed_headers":   []string{"X-Request-ID", "X-Trace-ID"},
		"cors.allow_credentials": false,
		"cors.max_age":           DefaultCORSMaxAge,

		"rate_limit.enabled":             true,
		"rate_limit.requests_per_minute": 30,
		"rate_limit.burst":               10,
		"rate_limit.idle_ttl":            "10m",

		"dedupe.concurrency":    DefaultDedupeConcurrency,
		"dedupe.delete_timeout": DefaultDedupeDeleteTimeout.String(),

		"store.driver": StoreDriverSupabase,
		"store.table":  "quotes",

		"database.max_conns":        10,
		"database.min_conns":        1,
		"database.migrate_on_start": false,

		"redis.enabled":    false,
		"redis.addr":       "localhost:6379",
		"redis.db":         0,
		"redis.lock_ttl":   "2m",
		"redis.key_prefix": "dealflow:dedupe:",

		"rabbitmq.enabled":  false,
		"rabbitmq.exchange": "dealflow.events",

		"stripe.default_mode": "subscription",

		"mail.provider":      MailProviderResend,
		"mail.from":          "The OfferHero <quotes@theofferhero.com>",
		"mail.sanitize_html": true,

		"smtp.port": 587,

		"services.supabase.base_url": "http://localhost:54321",
		"services.supabase.name":     "supabase",
		"services.resend.base_url":   "https://api.resend.com",
		"services.resend.name":       "resend",
	}
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (APP_ prefix, "__" separates levels)
//  2. Profile config file (configs/{profile}.yaml)
//  3. Base config file (configs/base.yaml)
//  4. Default values
//
// A .env file in the working directory is read into the environment first
// and never overrides variables that are already set.
func Load(profile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if err := loadFileIfExists(k, "configs/base.yaml"); err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	if profile != "" {
		if err := loadFileIfExists(k, fmt.Sprintf("configs/%s.yaml", profile)); err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	if err := k.Load(env.Provider("APP_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKey maps APP_SERVICES__SUPABASE__API_KEY to services.supabase.api_key.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP_")), "__", ".")
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
