// Package workpool runs a function over a slice with bounded concurrency.
package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every item using at most workers goroutines and returns
// the results in input order. The first error cancels the context handed to
// the remaining calls and no further items are started.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]R, len(items))
	if len(items) == 0 {
		return out, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, i, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
