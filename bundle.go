package workloop

import (
	"database/sql"
	"log/slog"

	"github.com/petrijr/workloop/internal/persistence"
	"github.com/petrijr/workloop/pkg/worker"
)

// JournaledLoop wires a Loop to a SQLite-backed Journal that records its
// lifecycle and item events.
//
// Only the event history is persisted; queued items live in memory and are
// lost if the process exits.
type JournaledLoop[T any] struct {
	*worker.Loop[T]

	Journal *Journal
}

// NewSQLiteJournal creates the loop_events table in db if needed and returns
// a Journal writing to it. If logger is nil, slog.Default() is used for
// append failures.
func NewSQLiteJournal(db *sql.DB, logger *slog.Logger) (*Journal, error) {
	store, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	return persistence.NewJournal(store, logger), nil
}

// NewJournaledLoop constructs a Loop whose events are journaled into db in
// addition to cfg.Observer.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:workloop.db?_journal=WAL")
//	jl, err := workloop.NewJournaledLoop(db, process, workloop.Config[Job]{})
//	jl.Start()
//	defer jl.Close()
//	...
//	events, _ := jl.Journal.Events(ctx, jl.ID())
func NewJournaledLoop[T any](db *sql.DB, process ProcessFunc[T], cfg Config[T]) (*JournaledLoop[T], error) {
	j, err := NewSQLiteJournal(db, cfg.Logger)
	if err != nil {
		return nil, err
	}

	cfg.Observer = NewCompositeObserver(cfg.Observer, j)

	return &JournaledLoop[T]{
		Loop:    NewWithConfig(process, cfg),
		Journal: j,
	}, nil
}
