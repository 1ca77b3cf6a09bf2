package workloop

import (
	"log/slog"

	"github.com/petrijr/workloop/internal/persistence"
	"github.com/petrijr/workloop/internal/taskqueue"
	"github.com/petrijr/workloop/pkg/api"
	"github.com/petrijr/workloop/pkg/worker"
)

// Re-export key types so users don't need to dig into pkg/api and pkg/worker.

type (
	State                = api.State
	ShutdownPolicy       = api.ShutdownPolicy
	Event                = api.Event
	EventType            = api.EventType
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
	PrometheusObserver   = api.PrometheusObserver

	Loop[T any]          = worker.Loop[T]
	Config[T any]        = worker.Config[T]
	ProcessFunc[T any]   = worker.ProcessFunc[T]
	PanicError           = worker.PanicError
	BlockingQueue[T any] = taskqueue.BlockingQueue[T]

	Journal    = persistence.Journal
	EventStore = persistence.EventStore
)

// Re-export lifecycle and policy values for convenience.

const (
	StateStopped  = api.StateStopped
	StateRunning  = api.StateRunning
	StateStopping = api.StateStopping

	ShutdownAbrupt   = api.ShutdownAbrupt
	ShutdownPeaceful = api.ShutdownPeaceful

	DefaultPollInterval = worker.DefaultPollInterval
)

// Re-export queue errors and observer helpers.

var (
	ErrTimeout = taskqueue.ErrTimeout
	ErrClosed  = taskqueue.ErrClosed

	NewLoggingObserver    = api.NewLoggingObserver
	NewCompositeObserver  = api.NewCompositeObserver
	NewPrometheusObserver = api.NewPrometheusObserver
	PolicyFor             = api.PolicyFor
)

// New returns a stopped Loop with default config that feeds items to process.
func New[T any](process ProcessFunc[T]) *Loop[T] {
	return worker.New(process)
}

// NewWithConfig returns a stopped Loop configured by cfg.
func NewWithConfig[T any](process ProcessFunc[T], cfg Config[T]) *Loop[T] {
	return worker.NewWithConfig(process, cfg)
}

// NewQueue returns an empty standalone BlockingQueue.
func NewQueue[T any]() *BlockingQueue[T] {
	return taskqueue.NewBlockingQueue[T]()
}

// NewMemoryJournal returns a Journal that keeps loop events in memory.
func NewMemoryJournal(logger *slog.Logger) *Journal {
	return persistence.NewJournal(persistence.NewMemoryEventStore(), logger)
}
