//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	httpadapter "github.com/JxWayne890/dealflow/internal/adapters/http"
	"github.com/JxWayne890/dealflow/internal/adapters/http/handlers"
	"github.com/JxWayne890/dealflow/internal/bootstrap"
	"github.com/JxWayne890/dealflow/internal/platform/config"
)

// stack is the service wired the way cmd/service wires it, pointed at a
// fake upstream.
type stack struct {
	upstream *upstream
	server   *httptest.Server
	deps     *bootstrap.Deps
	client   *http.Client
}

type stackOption func(*config.Config)

func withRateLimit(rpm, burst int) stackOption {
	return func(c *config.Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.RequestsPerMinute = rpm
		c.RateLimit.Burst = burst
	}
}

func newStack(opts ...stackOption) (*stack, error) {
	gin.SetMode(gin.TestMode)

	up := newUpstream()

	cfg, err := config.Load("")
	if err != nil {
		up.Close()
		return nil, err
	}

	cfg.App.Environment = "test"
	cfg.Log.Level = "error"
	cfg.Client.Retry.MaxAttempts = 1
	cfg.Client.CircuitBreaker.MaxFailures = 1000
	cfg.Services.Supabase.BaseURL = up.URL()
	cfg.Services.Supabase.APIKey = "service-role-key"
	cfg.Services.Resend.BaseURL = up.URL()
	cfg.Services.Resend.APIKey = "re_test"
	cfg.Stripe.SecretKey = "sk_test_integration"
	cfg.Stripe.APIURL = up.URL()
	cfg.Stripe.DefaultSuccessURL = "https://app.offerhero.test/billing/success"
	cfg.Stripe.DefaultCancelURL = "https://app.offerhero.test/billing/cancel"
	cfg.RateLimit.Enabled = false

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		up.Close()
		return nil, err
	}

	logger := bootstrap.NewLogger(cfg)

	reg := prometheus.NewRegistry()

	deps, err := bootstrap.Build(context.Background(), cfg, logger, bootstrap.Options{Registerer: reg})
	if err != nil {
		up.Close()
		return nil, err
	}

	routerCfg := httpadapter.NewRouterConfig(cfg, logger)
	routerCfg.HealthHandler = handlers.NewHealthHandler(deps.Health,
		handlers.NewBuildInfo("test", "abc123", "2024-01-01T00:00:00Z"), handlers.WithGatherer(reg))
	routerCfg.QuoteHandler = handlers.NewQuoteHandler(deps.Quotes)
	routerCfg.RelayHandler = handlers.NewRelayHandler(deps.Billing, deps.Mail)

	engine := gin.New()
	httpadapter.SetupRouter(engine, routerCfg)

	return &stack{
		upstream: up,
		server:   httptest.NewServer(engine),
		deps:     deps,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *stack) Close() {
	s.server.Close()
	s.deps.Close()
	s.upstream.Close()
}

// response is a fully read reply.
type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", r.body, err)
	}

	return nil
}

// do sends a request as owner. An empty owner sends no identity.
func (s *stack) do(ctx context.Context, method, path, owner string, body any) (*response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.server.URL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &response{status: resp.StatusCode, header: resp.Header, body: raw}, nil
}
