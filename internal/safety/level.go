package safety

import (
	"fmt"
	"strings"
)

// Level selects how aggressively operator activity interrupts automation.
type Level int

const (
	// Disabled turns the monitor inert. No events fire, not even emergency.
	Disabled Level = iota
	// Low watches only the emergency key.
	Low
	// Medium watches the emergency key, pointer displacement, and input events.
	Medium
	// High is Medium with halved thresholds.
	High
)

func (l Level) String() string {
	switch l {
	case Disabled:
		return "disabled"
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel resolves a config string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disabled", "off":
		return Disabled, nil
	case "low":
		return Low, nil
	case "medium", "":
		return Medium, nil
	case "high":
		return High, nil
	default:
		return Disabled, fmt.Errorf("unknown safety level %q", s)
	}
}
