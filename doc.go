// Package workloop provides an in-process work handoff: an unbounded,
// goroutine-safe blocking FIFO queue and a single-consumer worker loop with a
// controlled start/stop lifecycle.
//
// # Core Concepts
//
//  1. BlockingQueue
//  2. Loop
//  3. ShutdownPolicy
//  4. Observer
//
// # BlockingQueue
//
// BlockingQueue hands items from any number of producers to consumers in
// strict FIFO order. It never rejects a push. Consumers can pop:
//
//   - blocking (Pop)
//   - with a timeout (PopTimed, returning ErrTimeout)
//   - with a context (PopContext)
//   - without blocking (TryPop)
//
// Once an item has been popped the queue keeps no reference to it.
//
// # Loop
//
// A Loop owns a BlockingQueue and exactly one consumer goroutine that runs a
// ProcessFunc on each item:
//
//	loop := workloop.New(func(ctx context.Context, job Job) error {
//	    return job.Run(ctx)
//	})
//	loop.Start()
//	loop.Submit(job)
//	...
//	loop.SetShutdownPolicy(workloop.ShutdownPeaceful)
//	loop.Stop()
//
// Start and Stop are idempotent. Stop always waits for the consumer goroutine
// to exit. Close is the teardown path and also drains loops that were never
// started.
//
// # ShutdownPolicy
//
// On stop, pending items are either processed (ShutdownPeaceful) or discarded
// (ShutdownAbrupt, the default). Config.OnDiscard is called for each
// discarded item.
//
// # Observer
//
// Diagnostics go through an explicitly injected *slog.Logger (Config.Logger)
// and an optional Observer. Provided observers cover structured logging,
// in-process counters, Prometheus metrics and an event journal that can be
// persisted to SQLite (NewJournaledLoop).
package workloop
