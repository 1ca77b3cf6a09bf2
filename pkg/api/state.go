package api

// State is the lifecycle state of a loop.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// ShutdownPolicy decides what happens to items still queued when a loop
// stops. The zero value is ShutdownAbrupt.
type ShutdownPolicy int

const (
	// ShutdownAbrupt discards pending items without processing them.
	ShutdownAbrupt ShutdownPolicy = iota
	// ShutdownPeaceful processes every pending item before stopping.
	ShutdownPeaceful
)

// PolicyFor maps the boolean "peaceful" flag onto a ShutdownPolicy.
func PolicyFor(peaceful bool) ShutdownPolicy {
	if peaceful {
		return ShutdownPeaceful
	}
	return ShutdownAbrupt
}

func (p ShutdownPolicy) String() string {
	switch p {
	case ShutdownAbrupt:
		return "abrupt"
	case ShutdownPeaceful:
		return "peaceful"
	default:
		return "unknown"
	}
}
