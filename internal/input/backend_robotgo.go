package input

import (
	"context"
	"fmt"

	"github.com/go-vgo/robotgo"
)

// RobotgoBackend drives input through the robotgo library. It is the
// general-purpose middle link of the chain: portable, but slower and less
// direct than the platform-native backend.
type RobotgoBackend struct{}

func NewRobotgoBackend() *RobotgoBackend { return &RobotgoBackend{} }

func (b *RobotgoBackend) Name() string { return "robotgo" }

func (b *RobotgoBackend) Available() bool { return true }

func (b *RobotgoBackend) Dispatch(ctx context.Context, call Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch call.Kind {
	case CallMove:
		robotgo.Move(call.X, call.Y)
		return nil

	case CallClick:
		button := call.Button
		if button == "" {
			button = "left"
		}
		robotgo.Click(button, call.Double)
		return nil

	case CallKeyDown:
		return robotgo.KeyToggle(NormalizeKey(call.Key), "down")

	case CallKeyUp:
		return robotgo.KeyToggle(NormalizeKey(call.Key), "up")

	case CallKeyTap:
		return b.keyTap(call.Key, call.Modifiers)

	case CallTypeText:
		robotgo.TypeStr(call.Text)
		return nil

	default:
		return fmt.Errorf("unknown call kind %q", call.Kind)
	}
}

// KeyState is not queryable through robotgo; the chain falls through to a
// backend that can answer.
func (b *RobotgoBackend) KeyState(string) (bool, error) {
	return false, ErrKeyStateUnsupported
}

// keyTap presses a key with optional modifiers. Single characters and named
// special keys go through KeyTap; anything longer is typed literally, the way
// unrecognized keys were handled before.
func (b *RobotgoBackend) keyTap(key string, modifiers []string) error {
	mods := make([]interface{}, 0, len(modifiers))
	for _, mod := range NormalizeModifiers(modifiers) {
		mods = append(mods, mod)
	}

	k := NormalizeKey(key)
	if len(k) == 1 || IsSpecialKey(k) {
		return robotgo.KeyTap(k, mods...)
	}
	robotgo.TypeStr(key)
	return nil
}
