package safety

import (
	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"
)

// RawKind classifies one observed hardware input event.
type RawKind int

const (
	RawMouse RawKind = iota
	RawKey
)

// RawEvent is one observed input occurrence, synthetic or not. Attribution
// happens in the monitor, not here.
type RawEvent struct {
	Kind RawKind
}

// KeyStater answers whether a key is physically held down. The input chain
// satisfies this.
type KeyStater interface {
	KeyState(key string) (bool, error)
}

// Probe abstracts the monitor's view of the hardware so tests can feed it
// scripted input.
type Probe interface {
	// Position reads the current pointer location.
	Position() (int, int)
	// KeyDown reports whether the named key is held.
	KeyDown(key string) (bool, error)
	// Subscribe opens the raw input event stream. The returned stop
	// function tears the stream down; after stop the channel closes.
	Subscribe() (<-chan RawEvent, func(), error)
}

// hookProbe is the production probe: pointer location via robotgo, key state
// via the input chain, press events via the global gohook stream.
type hookProbe struct {
	keys KeyStater
}

// NewHookProbe builds the default probe over the given key-state source.
func NewHookProbe(keys KeyStater) Probe {
	return &hookProbe{keys: keys}
}

func (p *hookProbe) Position() (int, int) {
	return robotgo.Location()
}

func (p *hookProbe) KeyDown(key string) (bool, error) {
	return p.keys.KeyState(key)
}

func (p *hookProbe) Subscribe() (<-chan RawEvent, func(), error) {
	out := make(chan RawEvent, 64)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		evChan := hook.Start()
		defer hook.End()

		for {
			select {
			case ev, ok := <-evChan:
				if !ok {
					return
				}
				var raw RawEvent
				switch ev.Kind {
				case hook.MouseDown, hook.MouseWheel:
					raw = RawEvent{Kind: RawMouse}
				case hook.KeyDown, hook.KeyHold:
					raw = RawEvent{Kind: RawKey}
				default:
					continue
				}
				select {
				case out <- raw:
				default:
					// Monitor is behind; losing raw presses is fine,
					// displacement polling still catches activity.
				}
			case <-stop:
				return
			}
		}
	}()

	return out, func() {
		close(stop)
		<-done
	}, nil
}
