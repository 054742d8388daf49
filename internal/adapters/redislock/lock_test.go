package redislock

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JxWayne890/dealflow/internal/domain"
)

func newRedisLock(t *testing.T) (*Lock, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(client, time.Minute, "test:", logger), mr
}

func TestLock_SecondAcquireConflicts(t *testing.T) {
	lock, mr := newRedisLock(t)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "owner-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:owner-1"))
	assert.Equal(t, time.Minute, mr.TTL("test:owner-1"))

	_, err = lock.Acquire(ctx, "owner-1")
	assert.True(t, domain.IsConflict(err))

	other, err := lock.Acquire(ctx, "owner-2")
	require.NoError(t, err, "owners do not block each other")
	other(ctx)

	release(ctx)
	assert.False(t, mr.Exists("test:owner-1"))

	again, err := lock.Acquire(ctx, "owner-1")
	require.NoError(t, err)
	again(ctx)
}

func TestLock_ExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	lock, mr := newRedisLock(t)
	ctx := context.Background()

	stale, err := lock.Acquire(ctx, "owner-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	current, err := lock.Acquire(ctx, "owner-1")
	require.NoError(t, err)

	stale(ctx)
	assert.True(t, mr.Exists("test:owner-1"), "the new holder keeps its lock")

	current(ctx)
	assert.False(t, mr.Exists("test:owner-1"))
}

func TestLock_RedisDown(t *testing.T) {
	lock, mr := newRedisLock(t)
	mr.Close()

	_, err := lock.Acquire(context.Background(), "owner-1")
	assert.True(t, domain.IsUnavailable(err))
	assert.Error(t, lock.Check(context.Background()))
}

func TestLock_Defaults(t *testing.T) {
	lock := New(redis.NewClient(&redis.Options{}), 0, "", nil)

	assert.Equal(t, defaultTTL, lock.ttl)
	assert.Equal(t, defaultPrefix, lock.prefix)
	assert.Equal(t, "redis", lock.Name())
}

func TestLock_PassTimeoutEndsBeforeExpiry(t *testing.T) {
	lock, mr := newRedisLock(t)
	ctx := context.Background()

	assert.Equal(t, 54*time.Second, lock.PassTimeout())
	assert.Equal(t, 2*time.Minute-5*time.Second, New(nil, 2*time.Minute, "", nil).PassTimeout())

	release, err := lock.Acquire(ctx, "owner-1")
	require.NoError(t, err)

	mr.FastForward(lock.PassTimeout())
	assert.True(t, mr.Exists("test:owner-1"), "still held when the pass is cut off")

	release(ctx)
	assert.False(t, mr.Exists("test:owner-1"))
}

func TestLocal(t *testing.T) {
	lock := NewLocal()
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "owner-1")
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "owner-1")
	assert.True(t, domain.IsConflict(err))

	release(ctx)
	release(ctx)

	next, err := lock.Acquire(ctx, "owner-1")
	require.NoError(t, err)
	next(ctx)
}
