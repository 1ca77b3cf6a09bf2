// Package worker provides Loop, a single background consumer that drains an
// in-memory blocking queue and runs a caller-supplied processing step on each
// item.
//
// # Lifecycle
//
// A Loop starts out stopped. Producers may Submit items at any time; items
// submitted while the loop is stopped wait in the queue.
//
//   - Start spawns the consumer goroutine. Calling it again while running is
//     a no-op.
//   - Stop signals the goroutine, waits for the shutdown drain and for the
//     goroutine to exit. Calling it on a stopped loop is a no-op.
//   - Close is the teardown path: it stops the loop, applies the shutdown
//     policy to anything still queued and closes the queue.
//
// There is never more than one consumer goroutine per Loop, and Stop always
// joins it before returning.
//
// # Shutdown Policy
//
// On shutdown the remaining items are either processed (api.ShutdownPeaceful)
// or discarded (api.ShutdownAbrupt, the default). The policy is read once,
// when the drain begins. Config.OnDiscard lets items that hold external
// resources release them when they are dropped.
//
// # Polling
//
// The consumer waits for items with a bounded timeout (Config.PollInterval,
// 10ms by default) and re-checks its running flag in between. Stop also
// interrupts the wait directly, so shutdown latency does not depend on the
// poll interval.
//
// # Failures
//
// A processing step that returns an error or panics is reported through the
// configured logger and observer; the item is dropped and the loop moves on.
// Retries, if wanted, belong in the processing step.
package worker
