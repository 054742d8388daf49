package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/JxWayne890/dealflow/internal/adapters/http/dto"
)

// Recovery turns a handler panic into a 500 with the standard envelope.
// The panic value and stack are logged, never returned. It must be the
// first middleware so it also covers the others.
//
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(r)
			}

			requestLogger(c, logger).ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", r),
				slog.String("method", c.Request.Method),
				slog.String("route", c.FullPath()),
				slog.String("trace_id", dto.GetTraceID(c)),
				slog.String("stack", string(debug.Stack())),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			dto.AbortWithErrorCode(c, dto.ErrorCodeInternal, "an internal error occurred")
		}()

		c.Next()
	}
}
