package api

import "time"

// EventType identifies a loop history event.
type EventType string

const (
	EventLoopStarted EventType = "loop.started"
	EventLoopStopped EventType = "loop.stopped"

	EventItemProcessed EventType = "item.processed"
	EventItemFailed    EventType = "item.failed"
	EventItemDiscarded EventType = "item.discarded"
)

// Event is a minimal append-only history record for audit/debugging.
type Event struct {
	LoopID string
	At     time.Time
	Type   EventType

	// Small, human-oriented details (e.g. error string, drain counts).
	// Item payloads are never recorded here.
	Detail string
}
