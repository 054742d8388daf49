package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxInboundIDLength bounds request and correlation IDs taken from callers.
const maxInboundIDLength = 128

type idMiddlewareConfig struct {
	header string
	key    string
	enrich func(ctx context.Context, id string) context.Context
}

// idMiddleware adopts the caller's ID from cfg.header when it is usable and
// mints a UUID otherwise. The ID is echoed on the response, kept on the gin
// context under cfg.key and passed through cfg.enrich.
func idMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cfg.header)
		if !usableID(id) {
			id = uuid.NewString()
		}

		c.Set(cfg.key, id)
		c.Header(cfg.header, id)

		if cfg.enrich != nil {
			c.Request = c.Request.WithContext(cfg.enrich(c.Request.Context(), id))
		}

		c.Next()
	}
}

// usableID accepts non-empty printable ASCII without spaces, up to
// maxInboundIDLength bytes. IDs end up in log lines and outbound headers.
func usableID(id string) bool {
	if id == "" || len(id) > maxInboundIDLength {
		return false
	}

	for i := range len(id) {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}

	return true
}

// enrich chains context enrichers so one ID reaches both the outbound
// propagation keys and the request logger.
func enrich(fns ...func(context.Context, string) context.Context) func(context.Context, string) context.Context {
	return func(ctx context.Context, id string) context.Context {
		for _, fn := range fns {
			ctx = fn(ctx, id)
		}

		return ctx
	}
}

func idFromGin(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}

	return ""
}
