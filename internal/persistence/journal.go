package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/petrijr/workloop/pkg/api"
)

// Journal is an api.Observer that appends every loop event to an EventStore.
//
// Observer callbacks cannot fail, so append errors are logged and dropped.
type Journal struct {
	store  EventStore
	logger *slog.Logger
	now    func() time.Time
}

// NewJournal wraps store. If logger is nil, slog.Default() is used.
func NewJournal(store EventStore, logger *slog.Logger) *Journal {
	if store == nil {
		store = NoopEventStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{store: store, logger: logger, now: time.Now}
}

// Ensure Journal implements api.Observer.
var _ api.Observer = (*Journal)(nil)

// Events returns the recorded history of one loop, oldest first.
func (j *Journal) Events(ctx context.Context, loopID string) ([]api.Event, error) {
	return j.store.ListEvents(ctx, loopID)
}

func (j *Journal) OnLoopStarted(ctx context.Context, loopID string) {
	j.append(ctx, loopID, api.EventLoopStarted, "")
}

func (j *Journal) OnLoopStopped(ctx context.Context, loopID string, policy api.ShutdownPolicy, drained, discarded int) {
	j.append(ctx, loopID, api.EventLoopStopped,
		fmt.Sprintf("policy=%s drained=%d discarded=%d", policy, drained, discarded))
}

func (j *Journal) OnItemProcessed(ctx context.Context, loopID string, d time.Duration) {
	j.append(ctx, loopID, api.EventItemProcessed, d.String())
}

func (j *Journal) OnItemFailed(ctx context.Context, loopID string, err error, d time.Duration) {
	j.append(ctx, loopID, api.EventItemFailed, err.Error())
}

func (j *Journal) OnItemDiscarded(ctx context.Context, loopID string) {
	j.append(ctx, loopID, api.EventItemDiscarded, "")
}

func (j *Journal) append(ctx context.Context, loopID string, typ api.EventType, detail string) {
	ev := api.Event{
		LoopID: loopID,
		At:     j.now(),
		Type:   typ,
		Detail: detail,
	}
	if err := j.store.AppendEvent(ctx, ev); err != nil {
		j.logger.WarnContext(ctx, "journal_append_failed",
			slog.String("loop_id", loopID),
			slog.String("event", string(typ)),
			slog.Any("error", err),
		)
	}
}
