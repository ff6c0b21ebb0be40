package model

import "time"

// Observation is an opaque snapshot produced by the external vision layer. The
// core never interprets Data; it only forwards the record to the decision layer.
type Observation struct {
	At   time.Time
	Data map[string]any
}

// Record is a plain structured event handed to the external persistence
// collaborator. It intentionally carries no behavior.
type Record struct {
	Time   time.Time      `json:"time"`
	Kind   string         `json:"kind"`
	Fields map[string]any `json:"fields,omitempty"`
}
