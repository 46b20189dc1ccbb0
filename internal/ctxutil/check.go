// Package ctxutil provides context utility functions.
package ctxutil

import "context"

// Canceled checks if the context has been canceled or exceeded its deadline.
// Returns the context error if done (Canceled or DeadlineExceeded), nil
// otherwise. Engine entry points use this so an interrupted command stops
// before touching the repository.
//
// The implementation directly returns ctx.Err() because it already returns
// nil if Done is not yet closed.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
