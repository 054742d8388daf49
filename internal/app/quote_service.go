// Package app contains the use cases: quote management, duplicate
// resolution, and the billing and mail pass-throughs.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/platform/logging"
	"github.com/JxWayne890/dealflow/internal/platform/telemetry"
	"github.com/JxWayne890/dealflow/internal/ports"
)

// QuoteServiceConfig wires a QuoteService.
type QuoteServiceConfig struct {
	Store     ports.QuoteStore
	Resolver  *DuplicateResolver
	Lock      ports.DedupeLock
	Publisher ports.EventPublisher
	Logger    *slog.Logger

	// Now is overridable in tests.
	Now func() time.Time
}

// QuoteService manages a broker's quotes. Every operation is scoped to the
// calling owner: quotes of other owners behave as if they did not exist.
type QuoteService struct {
	store     ports.QuoteStore
	resolver  *DuplicateResolver
	lock      ports.DedupeLock
	publisher ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewQuoteService creates the service. Store, Resolver and Lock are required.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	switch {
	case cfg.Store == nil:
		panic("QuoteService: Store is required")
	case cfg.Resolver == nil:
		panic("QuoteService: Resolver is required")
	case cfg.Lock == nil:
		panic("QuoteService: Lock is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &QuoteService{
		store:     cfg.Store,
		resolver:  cfg.Resolver,
		lock:      cfg.Lock,
		publisher: cfg.Publisher,
		logger:    logger,
		now:       now,
	}
}

// ListQuotes returns the owner's quotes, newest first.
func (s *QuoteService) ListQuotes(ctx context.Context, ownerID string) ([]domain.Quote, error) {
	return s.store.ListQuotes(ctx, ownerID)
}

// GetQuote returns one of the owner's quotes.
func (s *QuoteService) GetQuote(ctx context.Context, ownerID, id string) (*domain.Quote, error) {
	q, err := s.store.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	if q.OwnerID != ownerID {
		return nil, domain.NewNotFoundError("quote", id)
	}

	return q, nil
}

// CreateQuote stores a new quote for the owner. A missing status defaults
// to draft.
func (s *QuoteService) CreateQuote(ctx context.Context, ownerID string, q domain.Quote) (*domain.Quote, error) {
	q.ID = ""
	q.OwnerID = ownerID
	if q.Status == "" {
		q.Status = domain.QuoteStatusDraft
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now().UTC()
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	created, err := s.store.CreateQuote(ctx, q)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "quote created", slog.String("quote_id", created.ID))

	return created, nil
}

// UpdateQuote replaces the mutable fields of one of the owner's quotes.
func (s *QuoteService) UpdateQuote(ctx context.Context, ownerID string, q domain.Quote) (*domain.Quote, error) {
	existing, err := s.GetQuote(ctx, ownerID, q.ID)
	if err != nil {
		return nil, err
	}

	q.OwnerID = existing.OwnerID
	q.CreatedAt = existing.CreatedAt

	if err := q.Validate(); err != nil {
		return nil, err
	}

	return s.store.UpdateQuote(ctx, q)
}

// DeleteQuote removes one of the owner's quotes.
func (s *QuoteService) DeleteQuote(ctx context.Context, ownerID, id string) error {
	if _, err := s.GetQuote(ctx, ownerID, id); err != nil {
		return err
	}

	existed, err := s.store.DeleteQuote(ctx, id)
	if err != nil {
		return err
	}

	if !existed {
		return domain.NewNotFoundError("quote", id)
	}

	s.logger.InfoContext(ctx, "quote deleted", slog.String("quote_id", id))

	return nil
}

// Deduplicate runs one resolver pass for the owner.
//
// With a nil snapshot the owner's collection is read from the store. A
// supplied snapshot is resolved as given, but every persisted ID in it must
// belong to the owner. Failing to read the store fails the call before any
// deletion. Only one pass per owner runs at a time; a concurrent call gets
// domain.ErrConflict. Under a ports.ExpiringLock the pass is cut off before
// the lock lapses, and deletions still pending then fail with ReasonTimeout.
func (s *QuoteService) Deduplicate(ctx context.Context, ownerID string, snapshot []domain.Quote) (_ *DedupeResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "QuoteService.Deduplicate",
		attribute.Bool("dedupe.client_snapshot", snapshot != nil),
		attribute.Int("dedupe.snapshot_size", len(snapshot)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	ctx = logging.WithOwnerID(ctx, ownerID)

	release, err := s.lock.Acquire(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer release(context.WithoutCancel(ctx))

	passCtx := ctx
	if el, ok := s.lock.(ports.ExpiringLock); ok {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, el.PassTimeout())
		defer cancel()
	}

	stored, err := s.store.ListQuotes(passCtx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("reading quotes: %w", asUnavailable(err))
	}

	input := stored
	if snapshot != nil {
		if err := s.checkOwnership(passCtx, ownerID, stored, snapshot); err != nil {
			return nil, err
		}
		input = snapshot
	}

	result := s.resolver.ResolveDuplicates(passCtx, input)
	span.SetAttributes(
		attribute.Int("dedupe.found", result.Found),
		attribute.Int("dedupe.deleted", result.Deleted),
		attribute.Int("dedupe.failed", len(result.Failed)),
	)

	if result.Deleted > 0 {
		s.publish(ctx, ownerID, &result)
	}

	return &result, nil
}

func (s *QuoteService) publish(ctx context.Context, ownerID string, result *DedupeResult) {
	if s.publisher == nil {
		return
	}

	event := domain.QuotesDeduplicated{
		OwnerID:    ownerID,
		Found:      result.Found,
		Deleted:    result.Deleted,
		DeletedIDs: result.DeletedIDs,
		OccurredAt: s.now().UTC(),
	}
	for _, f := range result.Failed {
		if f.ID != "" {
			event.FailedIDs = append(event.FailedIDs, f.ID)
		}
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publishing dedupe event failed", slog.Any("error", err))
	}
}

// checkOwnership rejects a snapshot naming another owner's quote. IDs that
// no longer exist are let through; the resolver reports them as failures.
func (s *QuoteService) checkOwnership(ctx context.Context, ownerID string, stored, snapshot []domain.Quote) error {
	owned := make(map[string]struct{}, len(stored))
	for _, q := range stored {
		owned[q.ID] = struct{}{}
	}

	for _, q := range snapshot {
		if !q.Persisted() {
			continue
		}
		if _, ok := owned[q.ID]; ok {
			continue
		}

		found, err := s.store.GetQuote(ctx, q.ID)
		switch {
		case domain.IsNotFound(err):
			continue
		case err != nil:
			return fmt.Errorf("reading quote %s: %w", q.ID, asUnavailable(err))
		case found.OwnerID != ownerID:
			return domain.NewForbiddenError("deduplicate", fmt.Sprintf("quote %q belongs to another owner", q.ID))
		}
	}

	return nil
}

func asUnavailable(err error) error {
	if domain.IsUnavailable(err) {
		return err
	}

	return domain.NewUnavailableError("quote store", err.Error())
}
