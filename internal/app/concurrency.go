package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// PartialResult holds one function's value or error.
type PartialResult[T any] struct {
	Value T
	Err   error
}

// ParallelPartialLimit runs fns with at most limit in flight and collects
// every outcome. One failure never cancels the others; results[i] belongs
// to fns[i].
func ParallelPartialLimit[T any](
	ctx context.Context,
	limit int,
	fns ...func(context.Context) (T, error),
) []PartialResult[T] {
	results := make([]PartialResult[T], len(fns))

	var g errgroup.Group
	g.SetLimit(max(limit, 1))

	for i, fn := range fns {
		g.Go(func() error {
			results[i].Value, results[i].Err = fn(ctx)
			return nil
		})
	}

	_ = g.Wait()

	return results
}

// FanOut calls fn for every item with at most workers calls in flight.
// The first error cancels ctx for the calls still running and stops new
// ones from starting.
//
//	err := FanOut(ctx, 2, owners, func(ctx context.Context, owner string) error {
//	    _, err := svc.Deduplicate(ctx, owner, nil)
//	    return err
//	})
func FanOut[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			return fn(ctx, item)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("fan out: %w", err)
	}

	return nil
}
