package model

// ActionKind identifies the input operation an Action requests.
type ActionKind string

const (
	ActionMove  ActionKind = "move"
	ActionClick ActionKind = "click"
	ActionKey   ActionKind = "key"
	ActionText  ActionKind = "text"
	ActionCombo ActionKind = "combo"
)

// Action represents one abstract input operation. An Action is immutable once
// handed to the dispatch path.
type Action struct {
	Kind ActionKind `json:"kind" yaml:"kind"`

	// Mouse targets.
	X      int    `json:"x,omitempty" yaml:"x,omitempty"`           // screen X coordinate
	Y      int    `json:"y,omitempty" yaml:"y,omitempty"`           // screen Y coordinate
	Button string `json:"button,omitempty" yaml:"button,omitempty"` // left, right, center
	Double bool   `json:"double,omitempty" yaml:"double,omitempty"`

	// Keyboard targets.
	Key       string   `json:"key,omitempty" yaml:"key,omitempty"`
	Modifiers []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"` // control, shift, alt, command
	Keys      []string `json:"keys,omitempty" yaml:"keys,omitempty"`           // combo sequence
	Text      string   `json:"text,omitempty" yaml:"text,omitempty"`

	// Profile names a humanize profile; empty selects the session default.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// Script is a named sequence of actions, typically loaded from a profile file.
type Script struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Actions     []Action `json:"actions" yaml:"actions"`
}
