package safety

import "time"

// EventKind classifies a safety event.
type EventKind string

const (
	// UserActivity means the operator moved the mouse or touched the
	// keyboard outside the grace period.
	UserActivity EventKind = "user_activity"
	// EmergencyStop means the emergency key was pressed.
	EmergencyStop EventKind = "emergency_stop"
)

// Event is delivered to the lifecycle when the monitor detects something.
type Event struct {
	Kind   EventKind
	At     time.Time
	Detail string
}

// Stats is a live snapshot of monitor counters.
type Stats struct {
	Ticks          uint64
	MouseEvents    uint64
	KeyEvents      uint64
	UserActivities uint64
	EmergencyStops uint64
}
