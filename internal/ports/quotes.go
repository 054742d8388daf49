// Package ports defines the contracts between the application layer and the
// outside world. Methods take a context first, speak domain types only, and
// report failures as domain errors.
package ports

import (
	"context"
	"time"

	"github.com/JxWayne890/dealflow/internal/domain"
)

// QuoteStore persists quote records. It is the system of record the
// duplicate resolver reconciles against.
type QuoteStore interface {
	// ListQuotes returns every quote owned by ownerID, newest first.
	// Returns domain.ErrUnavailable if the store cannot be read.
	ListQuotes(ctx context.Context, ownerID string) ([]domain.Quote, error)

	// GetQuote returns one quote.
	// Returns domain.ErrNotFound if no quote has that ID.
	GetQuote(ctx context.Context, id string) (*domain.Quote, error)

	// CreateQuote inserts q and returns it with its store-assigned ID and CreatedAt.
	CreateQuote(ctx context.Context, q domain.Quote) (*domain.Quote, error)

	// UpdateQuote replaces the mutable fields of the quote with q.ID.
	// Returns domain.ErrNotFound if no quote has that ID.
	UpdateQuote(ctx context.Context, q domain.Quote) (*domain.Quote, error)

	// DeleteQuote removes the quote with the given ID and reports whether it
	// existed. Transport and provider failures are returned as errors.
	DeleteQuote(ctx context.Context, id string) (bool, error)
}

// DedupeLock serialises deduplication passes per owner across replicas.
type DedupeLock interface {
	// Acquire takes the lock for ownerID. It returns a release func, or
	// domain.ErrConflict if another pass holds the lock.
	Acquire(ctx context.Context, ownerID string) (release func(context.Context), err error)
}

// ExpiringLock is implemented by locks whose hold lapses on its own. A pass
// under such a lock must finish within PassTimeout or another pass for the
// same owner may start alongside it.
type ExpiringLock interface {
	PassTimeout() time.Duration
}
