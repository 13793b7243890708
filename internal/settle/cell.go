// Package settle provides a one-shot settlement cell.
//
// A Cell is resolved or rejected exactly once; later attempts are ignored and
// reported as such. It is the single completion primitive behind both the
// callback-style and the future-style APIs of a Listener.
package settle

import (
	"context"
	"sync"
)

// Cell holds the eventual outcome of an asynchronous operation.
type Cell[T any] struct {
	once     sync.Once
	done     chan struct{}
	value    T
	err      error
	onSettle func(T, error)
}

// New creates an unsettled cell.
//
// Parameters:
//   - onSettle: Optional function invoked exactly once, synchronously on the settling
//     goroutine, after the outcome is stored and before waiters are released. May be nil.
//
// Returns:
//   - *Cell[T]: New cell
func New[T any](onSettle func(T, error)) *Cell[T] {
	return &Cell[T]{
		done:     make(chan struct{}),
		onSettle: onSettle,
	}
}

// Resolve settles the cell with a value.
//
// Returns:
//   - bool: true if this call settled the cell, false if it was already settled
func (c *Cell[T]) Resolve(value T) bool {
	return c.settle(value, nil)
}

// Reject settles the cell with an error. A nil error is ignored.
//
// Returns:
//   - bool: true if this call settled the cell, false if it was already settled
func (c *Cell[T]) Reject(err error) bool {
	if err == nil {
		return false
	}

	var zero T

	return c.settle(zero, err)
}

func (c *Cell[T]) settle(value T, err error) bool {
	settled := false
	c.once.Do(func() {
		c.value = value
		c.err = err
		settled = true
	})

	if !settled {
		return false
	}

	if c.onSettle != nil {
		c.onSettle(value, err)
	}
	close(c.done)

	return true
}

// Done returns a channel closed once the cell is settled.
func (c *Cell[T]) Done() <-chan struct{} {
	return c.done
}

// Settled reports whether the cell has been settled.
func (c *Cell[T]) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Result blocks until the cell is settled and returns its outcome.
func (c *Cell[T]) Result() (T, error) {
	<-c.done

	return c.value, c.err
}

// Wait blocks until the cell is settled or ctx is done.
//
// A cancelled wait does not settle the cell.
//
// Returns:
//   - T: Settled value (zero value on error)
//   - error: Settled error, or ctx.Err() if the context ended first
func (c *Cell[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}
