package window

import "context"

// Control is one child control of a window, as reported by the collaborator.
type Control struct {
	Label string
	Rect  Rect
}

// Collaborator is the external window-enumeration surface. The default
// implementation drives the OS; tests substitute fakes.
type Collaborator interface {
	// Find locates a window matching the descriptor, or returns
	// ErrWindowNotFound.
	Find(ctx context.Context, desc Descriptor) (*Handle, error)

	// Rect returns the window's current bounding rectangle.
	Rect(ctx context.Context, h *Handle) (Rect, error)

	// Restore un-minimizes the window.
	Restore(ctx context.Context, h *Handle) error

	// BringToForeground makes the window the active foreground window.
	BringToForeground(ctx context.Context, h *Handle) error

	// OpenAssociatedResource launches the application or file named by the
	// descriptor so a matching window can appear.
	OpenAssociatedResource(ctx context.Context, desc Descriptor) error

	// EnumerateControls lists the window's child controls.
	EnumerateControls(ctx context.Context, h *Handle) ([]Control, error)
}
