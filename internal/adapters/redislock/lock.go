// Package redislock serialises deduplication passes per owner. The Redis
// lock covers every replica; the local lock only the current process.
package redislock

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JxWayne890/dealflow/internal/domain"
)

const (
	defaultTTL    = 2 * time.Minute
	defaultPrefix = "dealflow:dedupe:"

	// maxReleaseMargin caps the time left between the end of a pass and
	// the key expiring.
	maxReleaseMargin = 5 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-taken by another pass is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock implements ports.DedupeLock with SET NX and a TTL. The TTL bounds
// how long a crashed pass can block its owner.
type Lock struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// New creates a lock. Zero ttl and empty prefix use the defaults.
func New(client redis.UniversalClient, ttl time.Duration, prefix string, logger *slog.Logger) *Lock {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Lock{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

// Acquire implements ports.DedupeLock.
func (l *Lock) Acquire(ctx context.Context, ownerID string) (func(context.Context), error) {
	key := l.prefix + ownerID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, domain.NewUnavailableError("redis", err.Error())
	}
	if !ok {
		return nil, domain.NewConflictError("dedupe", "a deduplication pass is already running for this owner")
	}

	return func(ctx context.Context) {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.WarnContext(ctx, "releasing dedupe lock failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}, nil
}

// PassTimeout implements ports.ExpiringLock. The lock is never renewed, so
// a pass is cut off a margin before the key expires.
func (l *Lock) PassTimeout() time.Duration {
	return l.ttl - min(l.ttl/10, maxReleaseMargin)
}

// Name implements ports.HealthChecker.
func (l *Lock) Name() string { return "redis" }

// Check implements ports.HealthChecker.
func (l *Lock) Check(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
