package subwire

import (
	"context"

	"github.com/arloliu/subwire/internal/settle"
)

// Future is the deferred result of an asynchronous Listener operation.
//
// It settles exactly once. All methods are safe for concurrent use.
type Future[T any] struct {
	cell *settle.Cell[T]
}

func newFuture[T any](cell *settle.Cell[T]) *Future[T] {
	return &Future[T]{cell: cell}
}

// Done returns a channel closed once the future settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.cell.Done()
}

// Settled reports whether the future settled.
func (f *Future[T]) Settled() bool {
	return f.cell.Settled()
}

// Wait blocks until the future settles or ctx is done.
//
// Returning because of ctx does not settle or cancel the operation; Wait may be
// called again later.
//
// Parameters:
//   - ctx: Context bounding the wait
//
// Returns:
//   - T: Settled value (zero value on error)
//   - error: Settled error, or ctx.Err() if the context ended first
//
// Example:
//
//	ep, err := listener.ListenAsync(ctx).Wait(ctx)
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	return f.cell.Wait(ctx)
}

// Get blocks until the future settles and returns its outcome.
func (f *Future[T]) Get() (T, error) {
	return f.cell.Result()
}
