package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/JxWayne890/dealflow/internal/adapters/http/middleware"
	"github.com/JxWayne890/dealflow/internal/platform/config"
	"github.com/JxWayne890/dealflow/internal/platform/logging"
)

const (
	instrumentationName = "github.com/JxWayne890/dealflow/internal/adapters/clients"

	defaultTimeout = 15 * time.Second

	// jitter spreads backoff by ±25% so replicas do not retry in lockstep.
	backoffJitterFactor = 0.25
)

// Config configures one downstream API client.
type Config struct {
	// BaseURL is prepended to every request path.
	BaseURL string

	// ServiceName identifies the downstream in logs, spans and metrics.
	ServiceName string

	// Timeout is the per-attempt timeout. Retries and backoff may exceed it.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// AuthFunc injects credentials. It runs before every attempt.
	AuthFunc func(*http.Request)

	Logger *slog.Logger
}

// RequestOption customises a single request.
type RequestOption func(*http.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// WithQuery merges query parameters into the request URL.
func WithQuery(values url.Values) RequestOption {
	return func(r *http.Request) {
		q := r.URL.Query()
		for k, vs := range values {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		r.URL.RawQuery = q.Encode()
	}
}

// Client is an instrumented HTTP client for the Supabase and Resend APIs.
// It retries transport failures, 5xx and 429 answers with backoff,
// trips a circuit breaker on repeated failure, and propagates request,
// correlation and trace IDs.
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	cfg         *Config
	logger      *slog.Logger
	cb          *CircuitBreaker
	tracer      trace.Tracer

	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", cfg.ServiceName),
	)

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   cfg.Circuit.MaxFailures,
		Timeout:       cfg.Circuit.Timeout,
		HalfOpenLimit: cfg.Circuit.HalfOpenLimit,
	})
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Total number of HTTP client requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        orDefault(cfg.Transport.MaxIdleConns, config.DefaultTransportMaxIdleConns),
		MaxIdleConnsPerHost: orDefault(cfg.Transport.MaxIdleConnsPerHost, config.DefaultTransportMaxIdleConnsPerHost),
		IdleConnTimeout:     orDefault(cfg.Transport.IdleConnTimeout, config.DefaultTransportIdleConnTimeout),
	}

	return &Client{
		http:            &http.Client{Timeout: cfg.Timeout, Transport: transport},
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName:     cfg.ServiceName,
		cfg:             cfg,
		logger:          logger,
		cb:              cb,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}

	return v
}

// ServiceName returns the downstream name this client was built for.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// Do executes req with retry, circuit breaking, tracing and logging.
//
// A 5xx or 429 answer is retried while attempts remain; the last one is
// returned to the caller rather than swallowed, so adapters can relay the
// provider's error body. Transport failures that survive every attempt are
// returned wrapped in ErrMaxRetriesExceeded.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.recordMetrics(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.WarnContext(ctx, "request blocked by circuit breaker")
		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", req.Method, c.serviceName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.Redacted()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	c.injectHeaders(ctx, req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.executeWithRetry(ctx, req, logger)
	duration := time.Since(start)

	if err != nil {
		c.cb.RecordFailure()
		span.SetStatus(codes.Error, err.Error())
		c.recordMetrics(ctx, req.Method, 0, duration, "error")
		logger.ErrorContext(ctx, "request failed", slog.Duration("duration", duration), slog.Any("error", err))

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.cb.RecordFailure()
	} else {
		c.cb.RecordSuccess()
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	c.recordMetrics(ctx, req.Method, resp.StatusCode, duration, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.DebugContext(ctx, "request completed", slog.Int("status", resp.StatusCode), slog.Duration("duration", duration))

	return resp, nil
}

func (c *Client) executeWithRetry(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.http.Do(req.WithContext(ctx))

		retry, wait := c.shouldRetry(resp, err)
		if !retry || attempt == c.cfg.Retry.MaxAttempts-1 {
			return resp, err
		}

		if err != nil {
			logger.DebugContext(ctx, "attempt failed", slog.Int("attempt", attempt+1), slog.Any("error", err))
		} else {
			logger.DebugContext(ctx, "attempt rejected", slog.Int("attempt", attempt+1), slog.Int("status", resp.StatusCode))
			drainAndClose(resp)
		}

		if wait <= 0 {
			wait = c.calculateBackoff(attempt)
		}

		if err := c.rewind(ctx, req, wait); err != nil {
			return nil, err
		}
	}
}

// shouldRetry classifies one attempt. Transport failures and 5xx answers
// back off exponentially; a 429 waits for the server's Retry-After when it
// sends one.
func (c *Client) shouldRetry(resp *http.Response, err error) (bool, time.Duration) {
	switch {
	case err != nil:
		return isRetryableError(err), 0
	case resp.StatusCode == http.StatusTooManyRequests:
		return true, c.retryAfter(resp.Header.Get("Retry-After"))
	default:
		return resp.StatusCode >= http.StatusInternalServerError, 0
	}
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP
// date, capped at the configured max interval. Zero means "not given".
func (c *Client) retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var wait time.Duration
	if secs, err := strconv.Atoi(header); err == nil {
		wait = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(header); err == nil {
		wait = time.Until(at)
	}

	if limit := c.cfg.Retry.MaxInterval; limit > 0 && wait > limit {
		wait = limit
	}

	return max(wait, 0)
}

// rewind waits, then resets the body and refreshes auth for the next attempt.
func (c *Client) rewind(ctx context.Context, req *http.Request, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return fmt.Errorf("rewinding request body: %w", err)
		}
		req.Body = body
	}

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}

	return nil
}

// Request builds and executes a request. A non-nil body is JSON-encoded.
func (c *Client) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*http.Response, error) {
	var reader io.Reader = http.NoBody

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
		logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "outbound payload",
			slog.String("downstream", c.serviceName), slog.String("body", string(payload)))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, opt := range opts {
		opt(req)
	}

	return c.Do(ctx, req)
}

// Get performs an HTTP GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, path, nil, opts...)
}

// Post performs an HTTP POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*http.Response, error) {
	return c.Request(ctx, http.MethodPost, path, body, opts...)
}

// Patch performs an HTTP PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*http.Response, error) {
	return c.Request(ctx, http.MethodPatch, path, body, opts...)
}

// Delete performs an HTTP DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*http.Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, opts...)
}

// CircuitState returns the current state of the circuit breaker.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}

	if correlationID := middleware.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.HeaderCorrelationID, correlationID)
	}

	if c.cfg.AuthFunc != nil {
		c.cfg.AuthFunc(req)
	}
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// calculateBackoff returns initial*multiplier^attempt, capped at the max
// interval, with jitter.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.cfg.Retry.InitialInterval) * math.Pow(c.cfg.Retry.Multiplier, float64(attempt))
	if limit := float64(c.cfg.Retry.MaxInterval); limit > 0 && backoff > limit {
		backoff = limit
	}

	jitter := c.cfg.Retry.JitterFactor
	if jitter == 0 {
		jitter = backoffJitterFactor
	}

	backoff += backoff * jitter * (rand.Float64()*2 - 1) //nolint:gosec // jitter only

	return time.Duration(backoff)
}

func (c *Client) recordMetrics(ctx context.Context, method string, statusCode int, duration time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	c.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	c.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// isRetryableError reports whether a transport error is worth retrying.
// Context cancellation and deadlines never are.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
