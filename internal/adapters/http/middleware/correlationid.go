package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/JxWayne890/dealflow/internal/platform/logging"
)

const (
	// HeaderCorrelationID is the header name for correlation ID.
	// Unlike request ID (per-request), correlation ID tracks an entire
	// business transaction across multiple services.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyCorrelationID is the context key for storing the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

// CorrelationID does for X-Correlation-ID what RequestID does for
// X-Request-ID. The browser app sets one per user action so a dedupe pass
// and the quote reads around it share an ID.
func CorrelationID() gin.HandlerFunc {
	return idMiddleware(idMiddlewareConfig{
		header: HeaderCorrelationID,
		key:    ContextKeyCorrelationID,
		enrich: enrich(ContextWithCorrelationID, logging.WithCorrelationID),
	})
}

// GetCorrelationID returns the request's correlation ID, or "".
func GetCorrelationID(c *gin.Context) string {
	return idFromGin(c, ContextKeyCorrelationID)
}
