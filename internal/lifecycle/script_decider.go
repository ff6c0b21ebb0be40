package lifecycle

import (
	"context"

	"github.com/TLSLime/Puppeteer/internal/model"
)

// ScriptDecider replays a recorded action script in order, one action per
// cycle. It ignores the observation. When the script is exhausted it either
// loops or reports done.
type ScriptDecider struct {
	script model.Script
	loop   bool
	next   int
}

// NewScriptDecider builds a decider over the script. With loop set the
// script restarts from the top when it runs out.
func NewScriptDecider(script model.Script, loop bool) *ScriptDecider {
	return &ScriptDecider{script: script, loop: loop}
}

func (d *ScriptDecider) Decide(_ context.Context, _ model.Observation) (model.Action, bool, error) {
	if d.next >= len(d.script.Actions) {
		if !d.loop || len(d.script.Actions) == 0 {
			return model.Action{}, true, nil
		}
		d.next = 0
	}
	action := d.script.Actions[d.next]
	d.next++
	return action, false, nil
}

// Remaining reports how many actions are left in the current pass.
func (d *ScriptDecider) Remaining() int {
	if d.next >= len(d.script.Actions) {
		return 0
	}
	return len(d.script.Actions) - d.next
}

// NopObserver produces empty observations for script playback, where there
// is nothing to see.
type NopObserver struct{}

func (NopObserver) Observe(context.Context) (model.Observation, error) {
	return model.Observation{}, nil
}
