package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from a loop for logging and metrics.
//
// Callbacks run on the loop's consumer goroutine (or on the goroutine calling
// Close), so implementations should be fast and non-blocking.
type Observer interface {
	// OnLoopStarted is called once per Start that actually spawns the
	// consumer goroutine.
	OnLoopStarted(ctx context.Context, loopID string)

	// OnLoopStopped is called after the shutdown drain, before the loop is
	// reported as stopped. drained is the number of pending items processed
	// by a peaceful drain; discarded is the number dropped by an abrupt one.
	OnLoopStopped(ctx context.Context, loopID string, policy ShutdownPolicy, drained, discarded int)

	// OnItemProcessed is called after the processing step returned nil.
	OnItemProcessed(ctx context.Context, loopID string, d time.Duration)

	// OnItemFailed is called after the processing step returned an error or
	// panicked. The item is dropped afterwards.
	OnItemFailed(ctx context.Context, loopID string, err error, d time.Duration)

	// OnItemDiscarded is called for each pending item dropped by an abrupt
	// shutdown.
	OnItemDiscarded(ctx context.Context, loopID string)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnLoopStarted(ctx context.Context, loopID string) {}
func (NoopObserver) OnLoopStopped(ctx context.Context, loopID string, policy ShutdownPolicy, drained, discarded int) {
}
func (NoopObserver) OnItemProcessed(ctx context.Context, loopID string, d time.Duration)         {}
func (NoopObserver) OnItemFailed(ctx context.Context, loopID string, err error, d time.Duration) {}
func (NoopObserver) OnItemDiscarded(ctx context.Context, loopID string)                          {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnLoopStarted(ctx context.Context, loopID string) {
	for _, o := range c.observers {
		o.OnLoopStarted(ctx, loopID)
	}
}

func (c *CompositeObserver) OnLoopStopped(ctx context.Context, loopID string, policy ShutdownPolicy, drained, discarded int) {
	for _, o := range c.observers {
		o.OnLoopStopped(ctx, loopID, policy, drained, discarded)
	}
}

func (c *CompositeObserver) OnItemProcessed(ctx context.Context, loopID string, d time.Duration) {
	for _, o := range c.observers {
		o.OnItemProcessed(ctx, loopID, d)
	}
}

func (c *CompositeObserver) OnItemFailed(ctx context.Context, loopID string, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnItemFailed(ctx, loopID, err, d)
	}
}

func (c *CompositeObserver) OnItemDiscarded(ctx context.Context, loopID string) {
	for _, o := range c.observers {
		o.OnItemDiscarded(ctx, loopID)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs loop lifecycle and item
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnLoopStarted(ctx context.Context, loopID string) {
	o.Logger.InfoContext(ctx, "loop_started",
		slog.String("loop_id", loopID),
	)
}

func (o *LoggingObserver) OnLoopStopped(ctx context.Context, loopID string, policy ShutdownPolicy, drained, discarded int) {
	o.Logger.InfoContext(ctx, "loop_stopped",
		slog.String("loop_id", loopID),
		slog.String("policy", policy.String()),
		slog.Int("drained", drained),
		slog.Int("discarded", discarded),
	)
}

func (o *LoggingObserver) OnItemProcessed(ctx context.Context, loopID string, d time.Duration) {
	o.Logger.DebugContext(ctx, "item_processed",
		slog.String("loop_id", loopID),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnItemFailed(ctx context.Context, loopID string, err error, d time.Duration) {
	o.Logger.ErrorContext(ctx, "item_failed",
		slog.String("loop_id", loopID),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnItemDiscarded(ctx context.Context, loopID string) {
	o.Logger.WarnContext(ctx, "item_discarded",
		slog.String("loop_id", loopID),
	)
}

// BasicMetrics collects simple counters and the aggregate processing time.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	loopsStarted    atomic.Int64
	loopsStopped    atomic.Int64
	itemsProcessed  atomic.Int64
	itemsFailed     atomic.Int64
	itemsDiscarded  atomic.Int64
	totalProcessDur atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	LoopsStarted int64
	LoopsStopped int64

	ItemsProcessed int64
	ItemsFailed    int64
	ItemsDiscarded int64

	AvgProcessDuration time.Duration
}

func (m *BasicMetrics) OnLoopStarted(ctx context.Context, loopID string) {
	m.loopsStarted.Add(1)
}

func (m *BasicMetrics) OnLoopStopped(ctx context.Context, loopID string, policy ShutdownPolicy, drained, discarded int) {
	m.loopsStopped.Add(1)
}

func (m *BasicMetrics) OnItemProcessed(ctx context.Context, loopID string, d time.Duration) {
	// Only successful items count towards the average duration.
	m.itemsProcessed.Add(1)
	m.totalProcessDur.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnItemFailed(ctx context.Context, loopID string, err error, d time.Duration) {
	m.itemsFailed.Add(1)
}

func (m *BasicMetrics) OnItemDiscarded(ctx context.Context, loopID string) {
	m.itemsDiscarded.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	processed := m.itemsProcessed.Load()
	totalNs := m.totalProcessDur.Load()

	var avg time.Duration
	if processed > 0 {
		avg = time.Duration(totalNs / processed)
	}

	return BasicMetricsSnapshot{
		LoopsStarted:       m.loopsStarted.Load(),
		LoopsStopped:       m.loopsStopped.Load(),
		ItemsProcessed:     processed,
		ItemsFailed:        m.itemsFailed.Load(),
		ItemsDiscarded:     m.itemsDiscarded.Load(),
		AvgProcessDuration: avg,
	}
}
