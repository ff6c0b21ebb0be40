package input

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// CommandBackend is the minimal last-resort link of the chain. It shells out
// to the platform scripting tool: PowerShell on Windows, osascript on macOS,
// xdotool elsewhere. Slow, but it needs nothing beyond a standard install.
type CommandBackend struct {
	goos string
}

func NewCommandBackend() *CommandBackend {
	return &CommandBackend{goos: runtime.GOOS}
}

func (b *CommandBackend) Name() string { return "command" }

func (b *CommandBackend) Available() bool {
	_, err := exec.LookPath(b.tool())
	return err == nil
}

func (b *CommandBackend) tool() string {
	switch b.goos {
	case "windows":
		return "powershell"
	case "darwin":
		return "osascript"
	default:
		return "xdotool"
	}
}

func (b *CommandBackend) Dispatch(ctx context.Context, call Call) error {
	switch b.goos {
	case "windows":
		return b.dispatchWindows(ctx, call)
	case "darwin":
		return b.dispatchDarwin(ctx, call)
	default:
		return b.dispatchX11(ctx, call)
	}
}

// KeyState cannot be read through one-shot scripting tools.
func (b *CommandBackend) KeyState(string) (bool, error) {
	return false, ErrKeyStateUnsupported
}

func (b *CommandBackend) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %v: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (b *CommandBackend) dispatchWindows(ctx context.Context, call Call) error {
	switch call.Kind {
	case CallMove:
		script := fmt.Sprintf(
			`Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.Cursor]::Position = New-Object System.Drawing.Point(%d, %d)`,
			call.X, call.Y)
		return b.run(ctx, "powershell", "-NoProfile", "-Command", script)

	case CallClick:
		down, up, err := mouseEventFlags(call.Button)
		if err != nil {
			return err
		}
		presses := 1
		if call.Double {
			presses = 2
		}
		var events strings.Builder
		for i := 0; i < presses; i++ {
			fmt.Fprintf(&events, "\n        [ClickSynth]::mouse_event(0x%04X, 0, 0, 0, 0)", down)
			fmt.Fprintf(&events, "\n        [ClickSynth]::mouse_event(0x%04X, 0, 0, 0, 0)", up)
		}
		script := `
        Add-Type @"
        using System;
        using System.Runtime.InteropServices;
        public class ClickSynth {
            [DllImport("user32.dll")]
            public static extern void mouse_event(uint dwFlags, uint dx, uint dy, uint dwData, int dwExtraInfo);
        }
"@` + events.String()
		return b.run(ctx, "powershell", "-NoProfile", "-Command", script)

	case CallKeyTap, CallKeyDown, CallKeyUp:
		script := fmt.Sprintf(
			`Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait(%q)`,
			sendKeysToken(call.Key))
		return b.run(ctx, "powershell", "-NoProfile", "-Command", script)

	case CallTypeText:
		script := fmt.Sprintf(
			`Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait(%q)`,
			escapeSendKeys(call.Text))
		return b.run(ctx, "powershell", "-NoProfile", "-Command", script)

	default:
		return fmt.Errorf("unknown call kind %q", call.Kind)
	}
}

func (b *CommandBackend) dispatchDarwin(ctx context.Context, call Call) error {
	switch call.Kind {
	case CallMove, CallClick:
		// CoreGraphics events are not reachable from AppleScript; the pointer
		// path stays with the higher-priority backends on macOS.
		return ErrBackendUnavailable

	case CallKeyTap, CallKeyDown, CallKeyUp:
		script := fmt.Sprintf(`tell application "System Events" to keystroke %q`, NormalizeKey(call.Key))
		return b.run(ctx, "osascript", "-e", script)

	case CallTypeText:
		script := fmt.Sprintf(`tell application "System Events" to keystroke %q`, call.Text)
		return b.run(ctx, "osascript", "-e", script)

	default:
		return fmt.Errorf("unknown call kind %q", call.Kind)
	}
}

func (b *CommandBackend) dispatchX11(ctx context.Context, call Call) error {
	switch call.Kind {
	case CallMove:
		return b.run(ctx, "xdotool", "mousemove", strconv.Itoa(call.X), strconv.Itoa(call.Y))

	case CallClick:
		button := "1"
		switch call.Button {
		case "right":
			button = "3"
		case "center", "middle":
			button = "2"
		}
		args := []string{"click", button}
		if call.Double {
			args = []string{"click", "--repeat", "2", button}
		}
		return b.run(ctx, "xdotool", args...)

	case CallKeyDown:
		return b.run(ctx, "xdotool", "keydown", NormalizeKey(call.Key))

	case CallKeyUp:
		return b.run(ctx, "xdotool", "keyup", NormalizeKey(call.Key))

	case CallKeyTap:
		key := NormalizeKey(call.Key)
		if mods := NormalizeModifiers(call.Modifiers); len(mods) > 0 {
			parts := make([]string, 0, len(mods)+1)
			for _, m := range mods {
				switch m {
				case "control":
					parts = append(parts, "ctrl")
				case "command":
					parts = append(parts, "super")
				default:
					parts = append(parts, m)
				}
			}
			key = strings.Join(append(parts, key), "+")
		}
		return b.run(ctx, "xdotool", "key", key)

	case CallTypeText:
		return b.run(ctx, "xdotool", "type", call.Text)

	default:
		return fmt.Errorf("unknown call kind %q", call.Kind)
	}
}

// mouseEventFlags maps a button name to its mouse_event down/up flag pair.
func mouseEventFlags(button string) (down, up uint32, err error) {
	switch button {
	case "", "left":
		return 0x0002, 0x0004, nil
	case "right":
		return 0x0008, 0x0010, nil
	case "center", "middle":
		return 0x0020, 0x0040, nil
	default:
		return 0, 0, fmt.Errorf("unknown mouse button %q", button)
	}
}

// sendKeysToken converts a canonical key name into SendKeys notation.
func sendKeysToken(key string) string {
	switch NormalizeKey(key) {
	case "enter":
		return "{ENTER}"
	case "tab":
		return "{TAB}"
	case "esc":
		return "{ESC}"
	case "backspace":
		return "{BACKSPACE}"
	case "delete":
		return "{DELETE}"
	case "space":
		return " "
	default:
		return escapeSendKeys(NormalizeKey(key))
	}
}

// escapeSendKeys escapes SendKeys metacharacters in literal text.
func escapeSendKeys(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '+', '^', '%', '~', '(', ')', '{', '}', '[', ']':
			sb.WriteRune('{')
			sb.WriteRune(r)
			sb.WriteRune('}')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
