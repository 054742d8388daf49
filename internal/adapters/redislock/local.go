package redislock

import (
	"context"
	"sync"

	"github.com/JxWayne890/dealflow/internal/domain"
)

// Local implements ports.DedupeLock inside one process. It is used when
// Redis is disabled and by the admin CLI.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal creates an empty lock table.
func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

// Acquire implements ports.DedupeLock.
func (l *Local) Acquire(_ context.Context, ownerID string) (func(context.Context), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[ownerID]; busy {
		return nil, domain.NewConflictError("dedupe", "a deduplication pass is already running for this owner")
	}
	l.held[ownerID] = struct{}{}

	var once sync.Once

	return func(context.Context) {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, ownerID)
			l.mu.Unlock()
		})
	}, nil
}
