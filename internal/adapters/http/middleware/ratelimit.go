package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/JxWayne890/dealflow/internal/adapters/http/dto"
	"github.com/JxWayne890/dealflow/internal/platform/config"
	"github.com/JxWayne890/dealflow/internal/platform/logging"
)

const defaultLimiterIdleTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per caller. Buckets of callers
// that stay quiet for the idle TTL are dropped.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter from cfg.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = defaultLimiterIdleTTL
	}

	return &RateLimiter{
		limiters: cache.New(ttl, ttl*2),
		limit:    rate.Limit(float64(cfg.RequestsPerMinute) / 60),
		burst:    max(cfg.Burst, 1),
	}
}

// Middleware throttles by authenticated owner, falling back to the client
// IP. It must run after the auth middleware.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := OwnerID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		res := l.bucket(key).Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()

			logging.FromContext(c.Request.Context()).Warn("rate limit exceeded",
				"path", c.Request.URL.Path,
				"retry_after", delay.String(),
			)

			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			dto.AbortWithErrorCode(c, dto.ErrorCodeRateLimited, "too many requests")

			return
		}

		c.Next()
	}
}

func (l *RateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.limiters.Get(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			l.limiters.SetDefault(key, lim)
			return lim
		}
	}

	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.SetDefault(key, lim)

	return lim
}
