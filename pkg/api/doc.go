// Package api contains the types shared by the workloop packages: the loop
// lifecycle states, the shutdown drain policy, loop history events, and the
// Observer interface used for logging and metrics.
//
// Most users interact with the higher-level workloop package, which
// re-exports selected types and helpers from this package. The api package is
// intended for custom observers and integrations.
//
// # Lifecycle
//
// A loop moves through three states:
//
//	Stopped --Start--> Running --Stop--> Stopping --goroutine exits--> Stopped
//
// Only one consumer goroutine is associated with a loop at any time.
//
// # Shutdown Policy
//
// When a loop stops it drains whatever is still queued according to its
// ShutdownPolicy:
//
//   - ShutdownAbrupt discards pending items without processing them (default)
//   - ShutdownPeaceful processes every pending item before stopping
//
// The policy is read once, at the moment the drain begins.
//
// # Observability
//
// Observers receive callbacks for loop start/stop and for each processed,
// failed or discarded item. The package ships with:
//
//   - NoopObserver, the zero-cost default
//   - LoggingObserver, which writes structured logs through log/slog
//   - BasicMetrics, simple in-process counters
//   - PrometheusObserver, counters and a histogram for Prometheus
//   - CompositeObserver, which fans out to several observers
package api
