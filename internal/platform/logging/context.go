package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var defaultLogger = slog.Default()

// FromContext returns the request-scoped logger, or the default logger
// when ctx is nil or carries none.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := loggerIn(ctx); ok {
		return logger
	}

	return defaultLogger
}

// HasLogger reports whether ctx carries a request-scoped logger.
func HasLogger(ctx context.Context) bool {
	_, ok := loggerIn(ctx)
	return ok
}

func loggerIn(ctx context.Context) (*slog.Logger, bool) {
	if ctx == nil {
		return nil, false
	}

	logger, ok := ctx.Value(ctxKey{}).(*slog.Logger)

	return logger, ok
}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func with(ctx context.Context, key, value string) context.Context {
	return WithContext(ctx, FromContext(ctx).With(slog.String(key, value)))
}

// WithRequestID tags the context logger with request_id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return with(ctx, "request_id", requestID)
}

// WithTraceID tags the context logger with trace_id.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return with(ctx, "trace_id", traceID)
}

// WithCorrelationID tags the context logger with correlation_id.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return with(ctx, "correlation_id", correlationID)
}

// WithOwnerID tags the context logger with the broker a dedupe pass runs for.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return with(ctx, "owner_id", ownerID)
}

// SetDefault sets the fallback logger and slog's default.
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
	slog.SetDefault(logger)
}
