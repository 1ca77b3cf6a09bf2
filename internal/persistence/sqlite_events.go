package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/workloop/pkg/api"
)

// SQLiteEventStore stores loop events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

// Ensure SQLiteEventStore implements EventStore.
var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS loop_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			loop_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_loop_events_loop_id ON loop_events(loop_id, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loop_events (loop_id, at, type, detail)
		VALUES (?, ?, ?, ?)`,
		ev.LoopID,
		at.UnixNano(),
		string(ev.Type),
		ev.Detail,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, loopID string) ([]api.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT loop_id, at, type, detail
		FROM loop_events
		WHERE loop_id = ?
		ORDER BY id ASC`, loopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.Event
	for rows.Next() {
		var (
			id     string
			atN    int64
			typ    string
			detail string
		)
		if err := rows.Scan(&id, &atN, &typ, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.Event{
			LoopID: id,
			At:     time.Unix(0, atN),
			Type:   api.EventType(typ),
			Detail: detail,
		})
	}
	return out, rows.Err()
}
