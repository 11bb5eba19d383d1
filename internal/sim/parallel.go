package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll runs each runner on its own goroutine. Axes share nothing, so
// this is the only concurrency an axis ever sees: one goroutine per
// controller. The first failure cancels the rest.
func RunAll(ctx context.Context, runners []*Runner) ([]*Result, error) {
	results := make([]*Result, len(runners))

	g, ctx := errgroup.WithContext(ctx)
	for i, r := range runners {
		g.Go(func() error {
			res, err := r.Run(ctx)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
