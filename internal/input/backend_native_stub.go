//go:build !windows

package input

import "context"

// NativeBackend is Windows-only; on other platforms it reports itself
// unavailable so the chain degrades to robotgo immediately.
type NativeBackend struct{}

func NewNativeBackend() *NativeBackend { return &NativeBackend{} }

func (b *NativeBackend) Name() string { return "native" }

func (b *NativeBackend) Available() bool { return false }

func (b *NativeBackend) Dispatch(context.Context, Call) error {
	return ErrBackendUnavailable
}

func (b *NativeBackend) KeyState(string) (bool, error) {
	return false, ErrKeyStateUnsupported
}
