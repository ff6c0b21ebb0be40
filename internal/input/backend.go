package input

import (
	"context"
	"time"
)

// CallKind identifies a low-level dispatch operation.
type CallKind string

const (
	CallMove     CallKind = "move"
	CallClick    CallKind = "click"
	CallKeyDown  CallKind = "keydown"
	CallKeyUp    CallKind = "keyup"
	CallKeyTap   CallKind = "keytap"
	CallTypeText CallKind = "typetext"
)

// Call is one raw input operation handed to a backend. Coordinates are in
// logical screen pixels.
type Call struct {
	Kind      CallKind
	X, Y      int
	Button    string // left, right, center; empty defaults to left
	Double    bool
	Key       string
	Modifiers []string
	Text      string
}

// Result describes a completed dispatch attempt.
type Result struct {
	Backend    string
	Latency    time.Duration
	Diagnostic string
}

// Backend is one interchangeable input-dispatch implementation. Implementations
// must be safe for sequential use from a single dispatching goroutine;
// KeyState may additionally be called concurrently from the safety monitor.
type Backend interface {
	// Name identifies the backend in results and logs.
	Name() string

	// Available reports whether the backend can operate in this session.
	// It is consulted once, when the chain is assembled.
	Available() bool

	// Dispatch performs one input call.
	Dispatch(ctx context.Context, call Call) error

	// KeyState reports whether the named key is currently held down. It is
	// read-only: failures are returned to the caller and never mark the
	// backend degraded.
	KeyState(key string) (bool, error)
}
