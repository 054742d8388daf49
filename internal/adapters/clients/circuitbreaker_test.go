package clients

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(maxFailures, halfOpen int) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   maxFailures,
		Timeout:       time.Minute,
		HalfOpenLimit: halfOpen,
	})
	cb.now = clock.Now

	return cb, clock
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, 1)

	assert.True(t, cb.Allow())
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State(), "success resets the streak")

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_ProbesAfterTimeout(t *testing.T) {
	cb, clock := newTestBreaker(1, 2)
	cb.RecordFailure()

	clock.Advance(59 * time.Second)
	assert.False(t, cb.Allow())

	clock.Advance(time.Second)
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	assert.True(t, cb.Allow(), "second probe within limit")
	assert.False(t, cb.Allow(), "probe limit reached")

	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.State())
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb, clock := newTestBreaker(1, 2)
	cb.RecordFailure()
	clock.Advance(time.Minute)

	require.True(t, cb.Allow())
	cb.RecordFailure()

	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow(), "timeout restarts from the reopen")

	clock.Advance(time.Minute)
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb, clock := newTestBreaker(1, 1)

	var got []string
	cb.OnStateChange(func(from, to State) {
		got = append(got, from.String()+"->"+to.String())
		// The callback runs outside the lock.
		_ = cb.State()
	})

	cb.RecordFailure()
	clock.Advance(time.Minute)
	cb.Allow()
	cb.RecordSuccess()

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, got)
}

func TestCircuitBreaker_ConfigFloor(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	cb.RecordFailure()

	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_ConcurrentUse(t *testing.T) {
	cb, _ := newTestBreaker(1000, 1)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			if cb.Allow() {
				if i%2 == 0 {
					cb.RecordSuccess()
				} else {
					cb.RecordFailure()
				}
			}
		})
	}
	wg.Wait()

	assert.Equal(t, StateClosed, cb.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
