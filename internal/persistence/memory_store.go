package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/workloop/pkg/api"
)

// MemoryEventStore is a goroutine-safe EventStore backed by a map of slices.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events map[string][]api.Event
}

// NewMemoryEventStore creates an empty MemoryEventStore.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{
		events: make(map[string][]api.Event),
	}
}

// Ensure MemoryEventStore implements EventStore.
var _ EventStore = (*MemoryEventStore)(nil)

func (s *MemoryEventStore) AppendEvent(ctx context.Context, ev api.Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.LoopID] = append(s.events[ev.LoopID], ev)
	return nil
}

func (s *MemoryEventStore) ListEvents(ctx context.Context, loopID string) ([]api.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.events[loopID]
	out := make([]api.Event, len(evs))
	copy(out, evs)
	return out, nil
}
