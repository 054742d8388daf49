package telemetry

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// HeaderTraceID carries the active trace ID back to the browser so support
// requests can be matched to traces.
const HeaderTraceID = "X-Trace-ID"

const probePrefix = "/-/"

// Metrics holds the HTTP server instruments.
type Metrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

// NewMetrics creates the HTTP server instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(InstrumentationName + "/http")

	var (
		m    Metrics
		errs [3]error
	)

	m.duration, errs[0] = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of API requests."),
		metric.WithUnit("s"),
	)
	m.requests, errs[1] = meter.Int64Counter("http.server.request.total",
		metric.WithDescription("API requests served."),
	)
	m.inFlight, errs[2] = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("API requests in flight."),
	)

	if err := errors.Join(errs[:]...); err != nil {
		return nil, fmt.Errorf("creating http metrics: %w", err)
	}

	return &m, nil
}

// Middleware records API request metrics on the global meter provider and
// echoes the trace ID. Probes under /-/ are not measured. It expects
// TracingMiddleware to run first so a span is already active.
func Middleware() gin.HandlerFunc {
	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		otel.Handle(err)
	}

	return m.Handler()
}

// Handler is the gin middleware behind Middleware. A nil Metrics only
// echoes the trace ID.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		if m == nil || strings.HasPrefix(c.Request.URL.Path, probePrefix) {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		base := metric.WithAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
		)

		start := time.Now()
		m.inFlight.Add(ctx, 1, base)

		c.Next()

		m.inFlight.Add(ctx, -1, base)

		done := metric.WithAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", c.Writer.Status()),
		)
		m.duration.Record(ctx, time.Since(start).Seconds(), done)
		m.requests.Add(ctx, 1, done)
	}
}

// TracingMiddleware starts a server span per API request. Probes are not
// traced.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return !strings.HasPrefix(r.URL.Path, probePrefix)
		}),
	)
}
