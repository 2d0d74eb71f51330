package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach executes a for loop with a limited number of concurrent goroutines.
// Each goroutine processes one integer, from 0 to length. The first error
// returned by body cancels the context passed to the remaining iterations
// and is returned once all started goroutines have finished.
func ForEach(ctx context.Context, length, limit int, body func(ctx context.Context, i int) error) error {
	if limit <= 0 {
		limit = 1 // Default to 1 if limit is zero or negative
	}
	if length <= 0 {
		return nil // No iterations to perform
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < length; i++ {
		i := i
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return body(ctx, i)
		})
	}

	return g.Wait()
}
