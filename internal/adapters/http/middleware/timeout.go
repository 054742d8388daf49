package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JxWayne890/dealflow/internal/adapters/http/dto"
)

// Deadline bounds the request context to d. Handlers and the adapters below
// them observe it through ctx; a deduplication pass that runs out of time
// keeps the deletions already confirmed.
//
// A handler that returns without writing after the deadline gets a 504.
// Zero or negative d disables the middleware.
func Deadline(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !c.Writer.Written() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			dto.AbortWithErrorCode(c, dto.ErrorCodeTimeout, "request timed out")
		}
	}
}
