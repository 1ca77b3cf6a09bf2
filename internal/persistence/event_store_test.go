package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/petrijr/workloop/pkg/api"
)

type storeFactory func(t *testing.T) EventStore

func memoryStore(t *testing.T) EventStore {
	t.Helper()
	return NewMemoryEventStore()
}

func sqliteStore(t *testing.T) EventStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteEventStore(db)
	require.NoError(t, err)
	return store
}

func TestEventStore_AppendAndList(t *testing.T) {
	factories := map[string]storeFactory{
		"in-memory": memoryStore,
		"sqlite":    sqliteStore,
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			at := time.Unix(1700000000, 0)
			require.NoError(t, store.AppendEvent(ctx, api.Event{LoopID: "a", At: at, Type: api.EventLoopStarted}))
			require.NoError(t, store.AppendEvent(ctx, api.Event{LoopID: "b", Type: api.EventLoopStarted}))
			require.NoError(t, store.AppendEvent(ctx, api.Event{LoopID: "a", At: at, Type: api.EventItemFailed, Detail: "boom"}))

			evs, err := store.ListEvents(ctx, "a")
			require.NoError(t, err)
			require.Len(t, evs, 2)
			require.Equal(t, api.EventLoopStarted, evs[0].Type)
			require.Equal(t, api.EventItemFailed, evs[1].Type)
			require.Equal(t, "boom", evs[1].Detail)
			require.True(t, evs[0].At.Equal(at))

			other, err := store.ListEvents(ctx, "b")
			require.NoError(t, err)
			require.Len(t, other, 1)
			require.False(t, other[0].At.IsZero(), "zero At should be filled on append")

			none, err := store.ListEvents(ctx, "missing")
			require.NoError(t, err)
			require.Empty(t, none)
		})
	}
}

func TestNoopEventStore(t *testing.T) {
	var s EventStore = NoopEventStore{}
	require.NoError(t, s.AppendEvent(context.Background(), api.Event{LoopID: "x"}))
	evs, err := s.ListEvents(context.Background(), "x")
	require.NoError(t, err)
	require.Empty(t, evs)
}
