package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/JxWayne890/dealflow/internal/platform/logging"
)

const (
	// HeaderRequestID is the header name for request ID.
	HeaderRequestID = "X-Request-ID"

	// ContextKeyRequestID is the context key for storing the request ID.
	ContextKeyRequestID = "request_id"
)

// RequestID tags each request with an ID taken from X-Request-ID or minted
// here. The ID is echoed back, attached to the request logger and forwarded
// on calls to Supabase and Resend.
func RequestID() gin.HandlerFunc {
	return idMiddleware(idMiddlewareConfig{
		header: HeaderRequestID,
		key:    ContextKeyRequestID,
		enrich: enrich(ContextWithRequestID, logging.WithRequestID),
	})
}

// GetRequestID returns the request's ID, or "" outside RequestID.
func GetRequestID(c *gin.Context) string {
	return idFromGin(c, ContextKeyRequestID)
}
