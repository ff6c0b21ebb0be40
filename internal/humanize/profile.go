package humanize

import "time"

// DelayRange bounds a randomized pause. Draws are uniform in [Min, Max].
type DelayRange struct {
	Min time.Duration `mapstructure:"min" yaml:"min"`
	Max time.Duration `mapstructure:"max" yaml:"max"`
}

// Profile tunes how mechanical input is disguised: trajectory granularity,
// positional jitter, and the pauses wrapped around each operation.
type Profile struct {
	// MaxStepDistance caps the length of one trajectory sub-step in logical
	// pixels. Larger moves are split into more sub-steps.
	MaxStepDistance float64 `mapstructure:"max_step_distance" yaml:"max_step_distance"`

	// JitterPx offsets intermediate trajectory points by up to this many
	// pixels on each axis. The final point is never jittered.
	JitterPx int `mapstructure:"jitter_px" yaml:"jitter_px"`

	// Delay ranges per operation. MoveStep applies between trajectory
	// sub-steps; the others apply before and after the dispatch.
	MoveStep DelayRange `mapstructure:"move_step" yaml:"move_step"`
	Click    DelayRange `mapstructure:"click" yaml:"click"`
	Key      DelayRange `mapstructure:"key" yaml:"key"`
	Text     DelayRange `mapstructure:"text" yaml:"text"`

	// Cooldown is the minimum spacing between two consecutive actions.
	Cooldown time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
}

// DefaultProfile returns the session default tuning.
func DefaultProfile() Profile {
	return Profile{
		MaxStepDistance: 5,
		JitterPx:        1,
		MoveStep:        DelayRange{Min: 2 * time.Millisecond, Max: 8 * time.Millisecond},
		Click:           DelayRange{Min: 30 * time.Millisecond, Max: 120 * time.Millisecond},
		Key:             DelayRange{Min: 40 * time.Millisecond, Max: 150 * time.Millisecond},
		Text:            DelayRange{Min: 20 * time.Millisecond, Max: 80 * time.Millisecond},
		Cooldown:        100 * time.Millisecond,
	}
}

// normalized returns a copy with zero or inverted fields replaced by the
// defaults, so a partially filled config section still behaves.
func (p Profile) normalized() Profile {
	def := DefaultProfile()
	if p.MaxStepDistance <= 0 {
		p.MaxStepDistance = def.MaxStepDistance
	}
	if p.JitterPx < 0 {
		p.JitterPx = 0
	}
	for _, r := range []*DelayRange{&p.MoveStep, &p.Click, &p.Key, &p.Text} {
		if r.Min < 0 {
			r.Min = 0
		}
		if r.Max < r.Min {
			r.Max = r.Min
		}
	}
	if p.Cooldown < 0 {
		p.Cooldown = 0
	}
	return p
}
