package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JxWayne890/dealflow/internal/platform/logging"
)

// Logging writes one line per API request once the handler has finished.
// Probes under /-/ are not logged.
//
// The route template ("/api/v1/quotes/:id") is logged instead of the raw
// URL, so quote IDs, cursors and query strings stay out of the logs. The
// caller's owner ID is added once auth has run.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/-/") {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int64("latency_ms", latency.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		}
		if owner := OwnerID(c); owner != "" {
			attrs = append(attrs, slog.String("owner_id", owner))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		requestLogger(c, logger).LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}

// requestLogger prefers the logger RequestID attached to the context and
// falls back to the one the middleware was built with.
func requestLogger(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if logging.HasLogger(c.Request.Context()) || fallback == nil {
		return logging.FromContext(c.Request.Context())
	}

	return fallback
}
