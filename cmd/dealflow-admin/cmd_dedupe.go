package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JxWayne890/dealflow/internal/app"
	"github.com/JxWayne890/dealflow/internal/bootstrap"
	"github.com/JxWayne890/dealflow/internal/domain"
)

// quoteRunner is the part of the quote service the dedupe command drives.
type quoteRunner interface {
	ListQuotes(ctx context.Context, ownerID string) ([]domain.Quote, error)
	Deduplicate(ctx context.Context, ownerID string, snapshot []domain.Quote) (*app.DedupeResult, error)
}

type dedupeOptions struct {
	owners  []string
	dryRun  bool
	workers int
}

func newDedupeCmd(e *env) *cobra.Command {
	var opts dedupeOptions

	cmd := &cobra.Command{
		Use:   "dedupe --owner <uuid> [--owner <uuid>...]",
		Short: "Run one deduplication pass per owner",
		Long: `Run one deduplication pass per owner against the configured quote store
and print what was found, deleted and left behind.

With --dry-run nothing is deleted: the command prints which quotes would be
kept and which would be removed.

Example:
  dealflow-admin dedupe --owner 6f1c... --owner 9a2b... --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDedupe(cmd, e, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.owners, "owner", nil, "owner (user) id to deduplicate, repeatable")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the plan without deleting")
	cmd.Flags().IntVar(&opts.workers, "workers", 2, "owners processed at the same time")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runDedupe(cmd *cobra.Command, e *env, opts dedupeOptions) error {
	for _, owner := range opts.owners {
		if _, err := uuid.Parse(owner); err != nil {
			return fmt.Errorf("invalid owner id %q: %w", owner, err)
		}
	}

	cfg, err := e.config()
	if err != nil {
		return err
	}

	logger := bootstrap.NewLogger(cfg)

	quotes, closeFn, err := e.quotes(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("building quote service: %w", err)
	}
	defer closeFn()

	out := &syncWriter{w: cmd.OutOrStdout()}

	pass := func(ctx context.Context, owner string) error {
		if opts.dryRun {
			return planOwner(ctx, quotes, owner, out)
		}

		return dedupeOwner(ctx, quotes, owner, out)
	}

	return app.FanOut(cmd.Context(), opts.workers, opts.owners, pass)
}

func planOwner(ctx context.Context, quotes quoteRunner, owner string, out *syncWriter) error {
	stored, err := quotes.ListQuotes(ctx, owner)
	if err != nil {
		return fmt.Errorf("owner %s: %w", owner, err)
	}

	plan := domain.PlanDedupe(stored)

	kept := make([]string, 0, len(plan.Retained))
	for _, q := range plan.Retained {
		kept = append(kept, q.ID)
	}

	out.printf("owner %s: %d quotes, %d duplicates (dry run)\n  keep:   %s\n  delete: %s\n",
		owner, len(stored), len(plan.Marked), joinIDs(kept), joinIDs(plan.MarkedIDs()))

	return nil
}

func dedupeOwner(ctx context.Context, quotes quoteRunner, owner string, out *syncWriter) error {
	result, err := quotes.Deduplicate(ctx, owner, nil)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			out.printf("owner %s: skipped, a pass is already running\n", owner)
			return nil
		}

		return fmt.Errorf("owner %s: %w", owner, err)
	}

	out.printf("owner %s: %d duplicates, %d deleted, %d failed, %d remaining\n",
		owner, result.Found, result.Deleted, len(result.Failed), len(result.Quotes))
	for _, f := range result.Failed {
		out.printf("  failed %s: %s\n", f.ID, f.Reason)
	}

	return nil
}

func joinIDs(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}

	return strings.Join(ids, ", ")
}

// syncWriter serialises output from concurrent owner passes.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.w, format, args...)
}
