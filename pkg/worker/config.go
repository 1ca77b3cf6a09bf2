package worker

import (
	"context"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/petrijr/workloop/pkg/api"
)

// DefaultPollInterval bounds how long the consumer waits for an item before
// it re-checks whether it should stop.
const DefaultPollInterval = 10 * time.Millisecond

// Config controls the behavior of a Loop. The zero value is usable.
type Config[T any] struct {
	// PollInterval is the bounded wait used by the main loop.
	// Zero means DefaultPollInterval.
	PollInterval time.Duration

	// Policy is the initial shutdown drain policy. It can be changed later
	// with SetShutdownPolicy.
	Policy api.ShutdownPolicy

	// Observer receives lifecycle and item events in addition to the
	// logging observer built from Logger.
	Observer api.Observer

	// Logger receives diagnostics. Nil means slog.Default().
	Logger *slog.Logger

	// OnDiscard, if set, is called for each pending item dropped by an
	// abrupt shutdown or submitted after Close, so items holding external
	// resources can release them.
	OnDiscard func(item T)

	// Clock is the time source for poll timers and durations.
	// Nil means the real clock.
	Clock clock.WithTicker

	// BaseContext is passed to every processing step.
	// Nil means context.Background().
	BaseContext context.Context
}

func (c Config[T]) withDefaults() Config[T] {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}
	if c.BaseContext == nil {
		c.BaseContext = context.Background()
	}
	return c
}
