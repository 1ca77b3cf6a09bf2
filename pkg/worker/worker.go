package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/petrijr/workloop/internal/taskqueue"
	"github.com/petrijr/workloop/pkg/api"
)

// ProcessFunc handles a single item. A returned error, like a panic, is
// reported and the item is dropped; the loop carries on with the next one.
type ProcessFunc[T any] func(ctx context.Context, item T) error

// PanicError wraps a value recovered from a panicking ProcessFunc.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker: processing step panicked: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Loop owns a BlockingQueue and a single consumer goroutine that feeds every
// queued item to a ProcessFunc.
type Loop[T any] struct {
	id      string
	process ProcessFunc[T]
	queue   *taskqueue.BlockingQueue[T]
	cfg     Config[T]
	obs     api.Observer

	// running is the flag polled by the consumer goroutine.
	running atomic.Bool

	mu     sync.RWMutex
	state  api.State
	policy api.ShutdownPolicy
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// New creates a stopped Loop with default config.
func New[T any](process ProcessFunc[T]) *Loop[T] {
	return NewWithConfig(process, Config[T]{})
}

// NewWithConfig creates a stopped Loop.
func NewWithConfig[T any](process ProcessFunc[T], cfg Config[T]) *Loop[T] {
	if process == nil {
		panic("worker: nil ProcessFunc")
	}
	cfg = cfg.withDefaults()

	return &Loop[T]{
		id:      uuid.NewString(),
		process: process,
		queue:   taskqueue.NewBlockingQueue[T](taskqueue.WithClock(cfg.Clock)),
		cfg:     cfg,
		obs:     api.NewCompositeObserver(api.NewLoggingObserver(cfg.Logger), cfg.Observer),
		policy:  cfg.Policy,
		state:   api.StateStopped,
	}
}

// ID returns the identifier attached to this loop's logs and events.
func (l *Loop[T]) ID() string { return l.id }

// Len returns the number of items waiting to be processed.
func (l *Loop[T]) Len() int { return l.queue.Len() }

// State returns the current lifecycle state.
func (l *Loop[T]) State() api.State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Submit enqueues item and returns the queue length after the push. It can be
// called from any goroutine in any state; items submitted while stopped wait
// for the next Start. After Close the item is discarded.
func (l *Loop[T]) Submit(item T) int {
	l.mu.RLock()
	if !l.closed {
		n := l.queue.Push(item)
		l.mu.RUnlock()
		return n
	}
	l.mu.RUnlock()

	l.cfg.Logger.Warn("submit_after_close", slog.String("loop_id", l.id))
	l.discard(item)
	return l.queue.Len()
}

// SetShutdownPolicy sets the drain policy applied by the next shutdown.
func (l *Loop[T]) SetShutdownPolicy(p api.ShutdownPolicy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.policy = p
}

// SetPeaceful is shorthand for SetShutdownPolicy(api.PolicyFor(peaceful)).
func (l *Loop[T]) SetPeaceful(peaceful bool) {
	l.SetShutdownPolicy(api.PolicyFor(peaceful))
}

// ShutdownPolicy returns the policy the next shutdown will apply.
func (l *Loop[T]) ShutdownPolicy() api.ShutdownPolicy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.policy
}

// Start spawns the consumer goroutine and reports whether the loop is
// running. Calling Start on a running loop does nothing and returns true. If
// a previous Stop is still draining, Start waits for it to finish first.
// Start on a closed loop returns false.
func (l *Loop[T]) Start() bool {
	l.mu.Lock()
	for l.state == api.StateStopping {
		done := l.done
		l.mu.Unlock()
		<-done
		l.mu.Lock()
	}
	if l.state == api.StateRunning {
		l.mu.Unlock()
		return true
	}
	if l.closed {
		l.mu.Unlock()
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	l.state = api.StateRunning
	l.running.Store(true)
	l.mu.Unlock()

	l.obs.OnLoopStarted(l.cfg.BaseContext, l.id)
	go l.run(ctx, done)
	return true
}

// Stop asks the consumer goroutine to finish, waits until it has drained the
// queue according to the shutdown policy and exited, and returns. Stop on a
// stopped loop is a no-op. It must not be called from the ProcessFunc, which
// runs on the goroutine Stop waits for.
func (l *Loop[T]) Stop() {
	l.mu.Lock()
	switch l.state {
	case api.StateStopped:
		l.mu.Unlock()
		return
	case api.StateRunning:
		l.state = api.StateStopping
		l.running.Store(false)
		l.cancel()
		l.cfg.Logger.Info("loop_stopping", slog.String("loop_id", l.id))
	}
	done := l.done
	l.mu.Unlock()

	<-done
}

// Close stops the loop, applies the shutdown policy to anything still queued
// (including items submitted to a loop that was never started) and releases
// the queue. A closed loop cannot be restarted. Close is idempotent.
func (l *Loop[T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	l.Stop()

	_, drained, discarded := l.drain()
	l.queue.Close()

	if drained > 0 || discarded > 0 {
		l.cfg.Logger.Info("loop_closed",
			slog.String("loop_id", l.id),
			slog.Int("drained", drained),
			slog.Int("discarded", discarded),
		)
	}
}

func (l *Loop[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for l.running.Load() {
		item, err := l.queue.PopTimedContext(ctx, l.cfg.PollInterval)
		if err != nil {
			if errors.Is(err, taskqueue.ErrClosed) {
				break
			}
			// Timeout or stop request; re-check the flag.
			continue
		}
		l.handle(item)
	}

	policy, drained, discarded := l.drain()
	l.obs.OnLoopStopped(l.cfg.BaseContext, l.id, policy, drained, discarded)

	l.mu.Lock()
	l.state = api.StateStopped
	l.cancel = nil
	l.mu.Unlock()
}

// drain empties the queue according to the current policy, which is read
// exactly once.
func (l *Loop[T]) drain() (policy api.ShutdownPolicy, drained, discarded int) {
	l.mu.RLock()
	policy = l.policy
	l.mu.RUnlock()

	if policy == api.ShutdownPeaceful {
		for {
			item, ok := l.queue.TryPop()
			if !ok {
				return policy, drained, 0
			}
			l.handle(item)
			drained++
		}
	}

	for _, item := range l.queue.Drain() {
		l.discard(item)
		discarded++
	}
	return policy, 0, discarded
}

func (l *Loop[T]) discard(item T) {
	if l.cfg.OnDiscard != nil {
		l.cfg.OnDiscard(item)
	}
	l.obs.OnItemDiscarded(l.cfg.BaseContext, l.id)
}

// handle runs the processing step on item. Panics are recovered so a single
// bad item cannot take down the consumer goroutine.
func (l *Loop[T]) handle(item T) {
	ctx := l.cfg.BaseContext
	start := l.cfg.Clock.Now()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		err = l.process(ctx, item)
	}()

	d := l.cfg.Clock.Since(start)
	if err != nil {
		l.obs.OnItemFailed(ctx, l.id, err, d)
		return
	}
	l.obs.OnItemProcessed(ctx, l.id, d)
}
