package taskqueue

import (
	"context"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Option configures a BlockingQueue.
type Option func(*options)

type options struct {
	clock clock.WithTicker
}

// WithClock sets the time source used for PopTimed deadlines.
// A nil clock leaves the real clock in place.
func WithClock(c clock.WithTicker) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// BlockingQueue is an unbounded FIFO queue safe for concurrent use.
//
// A single mutex guards the items and the list of blocked consumers. Each
// blocked consumer parks on its own channel; Push hands the wake-up to the
// oldest one only, so the waiter list behaves like a condition variable with
// notify-one semantics that can also honour deadlines and contexts.
type BlockingQueue[T any] struct {
	mu      sync.Mutex
	items   []T
	waiters []chan struct{}
	closed  bool

	clock clock.WithTicker
}

// Ensure BlockingQueue implements Queue.
var _ Queue[int] = (*BlockingQueue[int])(nil)

// NewBlockingQueue returns an empty queue.
func NewBlockingQueue[T any](opts ...Option) *BlockingQueue[T] {
	o := options{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &BlockingQueue[T]{clock: o.clock}
}

func (q *BlockingQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *BlockingQueue[T]) Empty() bool {
	return q.Len() == 0
}

func (q *BlockingQueue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	clear(q.items)
	q.items = nil
	return n
}

// Drain removes every queued item and returns them in FIFO order.
func (q *BlockingQueue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *BlockingQueue[T]) Push(item T) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	q.signalLocked()
	return len(q.items)
}

func (q *BlockingQueue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *BlockingQueue[T]) Pop() (T, error) {
	return q.wait(context.Background(), nil)
}

func (q *BlockingQueue[T]) PopContext(ctx context.Context) (T, error) {
	return q.wait(ctx, nil)
}

// PopTimed waits at most d for an item. A non-positive d checks once.
func (q *BlockingQueue[T]) PopTimed(d time.Duration) (T, error) {
	return q.PopTimedContext(context.Background(), d)
}

// PopTimedContext waits at most d for an item, or until ctx is done,
// whichever comes first. Expiry of d yields ErrTimeout; ctx yields ctx.Err().
func (q *BlockingQueue[T]) PopTimedContext(ctx context.Context, d time.Duration) (T, error) {
	if d <= 0 {
		if item, ok := q.TryPop(); ok {
			return item, nil
		}
		var zero T
		if q.isClosed() {
			return zero, ErrClosed
		}
		return zero, ErrTimeout
	}
	timer := q.clock.NewTimer(d)
	defer timer.Stop()
	return q.wait(ctx, timer.C())
}

// Close wakes every blocked consumer. Items still queued are handed out by
// later pops; once the queue is empty they return ErrClosed.
func (q *BlockingQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for _, ch := range q.waiters {
		ch <- struct{}{}
	}
	q.waiters = nil
}

func (q *BlockingQueue[T]) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// wait blocks until an item is available, the queue is closed, ctx is done
// or timeout fires. A nil timeout never fires.
func (q *BlockingQueue[T]) wait(ctx context.Context, timeout <-chan time.Time) (T, error) {
	var zero T

	q.mu.Lock()
	for {
		if item, ok := q.popLocked(); ok {
			q.mu.Unlock()
			return item, nil
		}
		if q.closed {
			q.mu.Unlock()
			return zero, ErrClosed
		}

		ch := make(chan struct{}, 1)
		q.waiters = append(q.waiters, ch)
		q.mu.Unlock()

		var err error
		select {
		case <-ch:
			q.mu.Lock()
			continue
		case <-ctx.Done():
			err = ctx.Err()
		case <-timeout:
			err = ErrTimeout
		}

		q.mu.Lock()
		q.removeWaiterLocked(ch)
		// An item that landed while we were giving up is still ours to take.
		if item, ok := q.popLocked(); ok {
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()
		return zero, err
	}
}

// popLocked takes the head item. The vacated slot is zeroed so the queue
// does not keep the item reachable.
func (q *BlockingQueue[T]) popLocked() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	} else {
		q.signalLocked()
	}
	return item, true
}

// signalLocked wakes the oldest waiter, if any.
func (q *BlockingQueue[T]) signalLocked() {
	if len(q.waiters) == 0 {
		return
	}
	ch := q.waiters[0]
	q.waiters[0] = nil
	q.waiters = q.waiters[1:]
	ch <- struct{}{}
}

func (q *BlockingQueue[T]) removeWaiterLocked(ch chan struct{}) {
	for i, w := range q.waiters {
		if w == ch {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return
		}
	}
}
