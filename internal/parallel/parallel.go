// Package parallel provides the bounded fan-out/fan-in primitive shared by
// the xcresult attachment export, the HTML attachment copy phase and the
// pipeline input/output stages.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Map runs fn over every item with at most limit workers and returns the
// results in input order regardless of completion order. A limit <= 0
// means one worker per CPU; the effective limit never exceeds the item
// count. The first error wins and is returned only after every started
// worker has finished.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	if limit > len(items) {
		limit = len(items)
	}

	wg, grpCtx := errgroup.WithContext(ctx)
	wg.SetLimit(limit)

OuterLoop:
	for idx := range items {
		idx := idx

		select {
		case <-grpCtx.Done():
			break OuterLoop
		default:
		}

		wg.Go(
			func() error {
				out, err := fn(grpCtx, items[idx])
				if err != nil {
					return err
				}

				// Each worker owns a distinct index, so no lock is needed.
				results[idx] = out

				return nil
			},
		)
	}

	if err := wg.Wait(); err != nil {
		return nil, err
	}

	// A canceled parent context may have stopped scheduling before any
	// worker could observe it.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// ForEach is Map for workers that only produce side effects.
func ForEach[T any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) error) error {
	_, err := Map(
		ctx, items, limit, func(ctx context.Context, item T) (struct{}, error) {
			return struct{}{}, fn(ctx, item)
		},
	)

	return err
}
