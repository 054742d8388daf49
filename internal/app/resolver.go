package app

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/platform/config"
	"github.com/JxWayne890/dealflow/internal/platform/logging"
	"github.com/JxWayne890/dealflow/internal/ports"
)

// Failure reasons reported per quote.
const (
	ReasonMissingID = "quote has no id"
	ReasonNotFound  = "quote not found in store"
	ReasonTimeout   = "delete timed out"
)

// DedupeObserver receives deduplication outcomes. *telemetry.DedupeMetrics
// satisfies it.
type DedupeObserver interface {
	ObservePass(found, deleted int)
	ObserveDelete(seconds float64)
}

type noopObserver struct{}

func (noopObserver) ObservePass(int, int)  {}
func (noopObserver) ObserveDelete(float64) {}

// DeleteFailure explains why a marked quote was kept.
type DeleteFailure struct {
	ID     string
	Reason string
}

// DedupeResult is the outcome of one pass. Quotes is a new snapshot for the
// caller to apply; Found-Deleted equals len(Failed).
type DedupeResult struct {
	Quotes     []domain.Quote
	Found      int
	Deleted    int
	DeletedIDs []string
	Failed     []DeleteFailure
}

// ResolverConfig tunes a DuplicateResolver.
type ResolverConfig struct {
	// Concurrency bounds simultaneous remote deletions.
	Concurrency int

	// DeleteTimeout bounds each deletion on its own.
	DeleteTimeout time.Duration

	Observer DedupeObserver
}

// DuplicateResolver removes redundant quotes from the store and returns a
// snapshot consistent with what remains there.
type DuplicateResolver struct {
	store         ports.QuoteStore
	concurrency   int
	deleteTimeout time.Duration
	observer      DedupeObserver
}

// NewDuplicateResolver creates a resolver. Panics if store is nil.
func NewDuplicateResolver(store ports.QuoteStore, cfg ResolverConfig) *DuplicateResolver {
	if store == nil {
		panic("DuplicateResolver: store is required")
	}

	r := &DuplicateResolver{
		store:         store,
		concurrency:   cfg.Concurrency,
		deleteTimeout: cfg.DeleteTimeout,
		observer:      cfg.Observer,
	}

	if r.concurrency < 1 {
		r.concurrency = config.DefaultDedupeConcurrency
	}
	if r.deleteTimeout <= 0 {
		r.deleteTimeout = config.DefaultDedupeDeleteTimeout
	}
	if r.observer == nil {
		r.observer = noopObserver{}
	}

	return r
}

// ResolveDuplicates plans the pass over a snapshot of quotes, deletes every
// marked quote independently, and keeps any quote whose deletion did not
// succeed. It never mutates quotes and never fails as a whole: per-item
// failures are reported in the result.
func (r *DuplicateResolver) ResolveDuplicates(ctx context.Context, quotes []domain.Quote) DedupeResult {
	logger := logging.FromContext(ctx)

	plan := domain.PlanDedupe(quotes)
	if !plan.HasDuplicates() {
		logger.DebugContext(ctx, "no duplicates found", slog.Int("quotes", len(quotes)))
		r.observer.ObservePass(0, 0)

		return DedupeResult{Quotes: slices.Clone(quotes)}
	}

	result := DedupeResult{Found: len(plan.Marked)}

	var ids []string
	for _, q := range plan.Marked {
		if !q.Persisted() {
			result.Failed = append(result.Failed, DeleteFailure{Reason: ReasonMissingID})
			continue
		}
		ids = append(ids, q.ID)
	}

	deletes := make([]func(context.Context) (bool, error), len(ids))
	for i, id := range ids {
		deletes[i] = func(ctx context.Context) (bool, error) {
			return r.deleteOne(ctx, id)
		}
	}

	removed := make(map[string]struct{}, len(ids))
	for i, res := range ParallelPartialLimit(ctx, r.concurrency, deletes...) {
		id := ids[i]
		switch {
		case res.Err != nil:
			result.Failed = append(result.Failed, DeleteFailure{ID: id, Reason: failureReason(res.Err)})
			logger.WarnContext(ctx, "duplicate quote not deleted",
				slog.String("quote_id", id), slog.Any("error", res.Err))
		case !res.Value:
			result.Failed = append(result.Failed, DeleteFailure{ID: id, Reason: ReasonNotFound})
			logger.WarnContext(ctx, "duplicate quote missing from store", slog.String("quote_id", id))
		default:
			removed[id] = struct{}{}
			result.DeletedIDs = append(result.DeletedIDs, id)
		}
	}

	result.Deleted = len(removed)
	result.Quotes = domain.WithoutIDs(quotes, removed)
	r.observer.ObservePass(result.Found, result.Deleted)

	logger.InfoContext(ctx, "duplicates resolved",
		slog.Int("found", result.Found),
		slog.Int("deleted", result.Deleted),
		slog.Int("failed", len(result.Failed)),
	)

	return result
}

func (r *DuplicateResolver) deleteOne(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.deleteTimeout)
	defer cancel()

	start := time.Now()
	existed, err := r.store.DeleteQuote(ctx, id)
	r.observer.ObserveDelete(time.Since(start).Seconds())

	if err == nil && ctx.Err() != nil {
		// The store answered after the deadline; the outcome is unknown.
		return false, ctx.Err()
	}

	return existed, err
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}

	return err.Error()
}
