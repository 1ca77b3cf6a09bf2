package taskqueue

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned by PopTimed when no item became available
	// within the requested duration. It is an expected outcome, not a fault.
	ErrTimeout = errors.New("taskqueue: no item available before timeout")

	// ErrClosed is returned by the pop variants once the queue has been
	// closed and every remaining item has been handed out.
	ErrClosed = errors.New("taskqueue: queue closed")
)

// Queue is an unbounded FIFO handing items from producers to a consumer.
//
// The queue owns an item from the moment Push returns until a pop hands it
// back; after that it keeps no reference to the item.
type Queue[T any] interface {
	// Push appends item to the tail and returns the new length.
	Push(item T) int

	// Pop removes and returns the head item, blocking until one is available
	// or the queue is closed.
	Pop() (T, error)

	// PopTimed is like Pop but gives up after d with ErrTimeout.
	PopTimed(d time.Duration) (T, error)

	// PopContext is like Pop but gives up when ctx is done.
	PopContext(ctx context.Context) (T, error)

	// TryPop returns the head item without blocking.
	TryPop() (T, bool)

	// Len returns the number of queued items at the time of the call.
	Len() int

	// Empty reports whether Len() == 0.
	Empty() bool

	// Clear drops every queued item and returns how many were dropped.
	Clear() int

	// Close wakes all waiters. Remaining items can still be popped.
	Close()
}
