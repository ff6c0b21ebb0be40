package window

import (
	"errors"
	"strings"
)

// ErrWindowNotFound is returned when the target window cannot be located
// after retries are exhausted.
var ErrWindowNotFound = errors.New("target window not found")

// Descriptor identifies the target window. Any combination of title, class,
// and process name may be set; every set field must match.
type Descriptor struct {
	Title   string `mapstructure:"title" yaml:"title"`
	Class   string `mapstructure:"class" yaml:"class"`
	Process string `mapstructure:"process" yaml:"process"`

	// Exact requires full-string matches. The default is a
	// case-insensitive substring match.
	Exact bool `mapstructure:"exact" yaml:"exact"`

	// Resource names the file or program to open when the window is
	// missing. Empty disables auto-open.
	Resource string `mapstructure:"resource" yaml:"resource"`

	// Program overrides the application used to open Resource.
	Program string `mapstructure:"program" yaml:"program"`
}

// Empty reports whether the descriptor has no matching criteria at all.
func (d Descriptor) Empty() bool {
	return d.Title == "" && d.Class == "" && d.Process == ""
}

// MatchTitle reports whether a window title satisfies the descriptor.
func (d Descriptor) MatchTitle(title string) bool {
	if d.Title == "" {
		return true
	}
	return match(title, d.Title, d.Exact)
}

// MatchClass reports whether a window class satisfies the descriptor.
func (d Descriptor) MatchClass(class string) bool {
	if d.Class == "" {
		return true
	}
	return match(class, d.Class, d.Exact)
}

// MatchProcess reports whether a process name satisfies the descriptor. The
// .exe suffix is ignored on both sides.
func (d Descriptor) MatchProcess(process string) bool {
	if d.Process == "" {
		return true
	}
	return match(trimExe(process), trimExe(d.Process), d.Exact)
}

func match(got, want string, exact bool) bool {
	if exact {
		return strings.EqualFold(got, want)
	}
	return strings.Contains(strings.ToLower(got), strings.ToLower(want))
}

func trimExe(s string) string {
	return strings.TrimSuffix(strings.ToLower(s), ".exe")
}

// Handle identifies a located window.
type Handle struct {
	ID    int64 // platform window handle, 0 when the platform has none
	PID   int
	Title string
	Class string
}

// Rect is a window bounding rectangle in logical screen pixels.
type Rect struct {
	X, Y, W, H int
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Anchor names a parking position inside a window rectangle.
type Anchor string

const (
	AnchorNone    Anchor = ""
	AnchorCenter  Anchor = "center"
	AnchorTopLeft Anchor = "top_left"
)

// Point resolves the anchor inside the rectangle, inset from the edges.
func (a Anchor) Point(r Rect) (int, int) {
	switch a {
	case AnchorTopLeft:
		return r.X + 10, r.Y + 10
	default:
		return r.Center()
	}
}
