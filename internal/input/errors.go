package input

import "errors"

var (
	// ErrBackendUnavailable means a backend cannot operate at all on this
	// platform or session. The chain treats it like any other failure and
	// falls through to the next backend.
	ErrBackendUnavailable = errors.New("input: backend unavailable")

	// ErrBackendCallFailed marks a single failed dispatch call. It is absorbed
	// by the chain and only surfaces inside the exhaustion diagnostic.
	ErrBackendCallFailed = errors.New("input: backend call failed")

	// ErrChainExhausted is returned when every backend in the chain has been
	// tried and failed for a call. The action is reported failed; no other
	// state changes.
	ErrChainExhausted = errors.New("input: all backends exhausted")

	// ErrKeyStateUnsupported is returned by backends that cannot read
	// keyboard state. Key-state queries never degrade a backend.
	ErrKeyStateUnsupported = errors.New("input: key state query unsupported")
)
