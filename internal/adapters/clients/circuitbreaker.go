package clients

import (
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent probes allowed while
	// half-open and the number of successes needed to close again.
	HalfOpenLimit int
}

type transition struct {
	from, to State
}

// CircuitBreaker guards a downstream API that keeps failing. Once open,
// requests are refused locally until Timeout elapses; then a limited number
// of probes decide whether to close or reopen.
type CircuitBreaker struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	state    State
	failures int
	probes   int
	passed   int
	openedAt time.Time
	notify   func(from, to State)
	now      func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}
	if cfg.HalfOpenLimit < 1 {
		cfg.HalfOpenLimit = 1
	}

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run after every state change. fn runs on
// the goroutine that caused the change, outside the breaker's lock.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.notify = fn
	cb.mu.Unlock()
}

// Allow reports whether a request may proceed. Every allowed request must
// be followed by RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var (
		ok bool
		t  *transition
	)

	switch cb.state {
	case StateClosed:
		ok = true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
			t = cb.moveTo(StateHalfOpen)
			cb.probes = 1
			ok = true
		}
	case StateHalfOpen:
		if cb.probes < cb.cfg.HalfOpenLimit {
			cb.probes++
			ok = true
		}
	}

	cb.unlockAndNotify(t)

	return ok
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var t *transition

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes--
		cb.passed++
		if cb.passed >= cb.cfg.HalfOpenLimit {
			t = cb.moveTo(StateClosed)
		}
	}

	cb.unlockAndNotify(t)
}

// RecordFailure records a failed request. A failed probe reopens at once.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var t *transition

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures {
			t = cb.moveTo(StateOpen)
		}
	case StateHalfOpen:
		cb.probes--
		t = cb.moveTo(StateOpen)
	}

	cb.unlockAndNotify(t)
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// moveTo must be called with mu held.
func (cb *CircuitBreaker) moveTo(to State) *transition {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.passed = 0

	if to == StateOpen {
		cb.openedAt = cb.now()
		cb.probes = 0
	}

	return &transition{from: from, to: to}
}

func (cb *CircuitBreaker) unlockAndNotify(t *transition) {
	fn := cb.notify
	cb.mu.Unlock()

	if t != nil && fn != nil {
		fn(t.from, t.to)
	}
}
