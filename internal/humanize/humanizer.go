package humanize

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/input"
	"github.com/TLSLime/Puppeteer/internal/model"
)

// Dispatcher is the slice of the input chain the humanizer drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, call input.Call) (input.Result, error)
	Active() string
}

// Humanizer wraps raw dispatch calls with randomized pacing and smoothed
// pointer trajectories, and stamps every synthetic action into the shared
// activity ledger so the safety monitor can tell agent input from operator
// input. Only one dispatch is in flight at a time.
type Humanizer struct {
	logger *zap.Logger
	chain  Dispatcher
	ledger *model.ActivityLedger

	// position reports the current pointer location. Swappable in tests.
	position func() (int, int)

	mu         sync.Mutex
	rng        *rand.Rand
	profiles   map[string]Profile
	defProfile Profile
	lastAction time.Time
}

// Option tweaks a Humanizer at construction.
type Option func(*Humanizer)

// WithPosition replaces the pointer-location source.
func WithPosition(fn func() (int, int)) Option {
	return func(h *Humanizer) { h.position = fn }
}

// WithRand replaces the random source, for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(h *Humanizer) { h.rng = rng }
}

// WithProfile registers a named profile selectable via Action.Profile.
func WithProfile(name string, p Profile) Option {
	return func(h *Humanizer) { h.profiles[name] = p.normalized() }
}

// New builds a Humanizer over the given dispatcher using def as the session
// default profile.
func New(logger *zap.Logger, chain Dispatcher, ledger *model.ActivityLedger, def Profile, opts ...Option) *Humanizer {
	h := &Humanizer{
		logger:     logger,
		chain:      chain,
		ledger:     ledger,
		position:   currentPosition,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		profiles:   make(map[string]Profile),
		defProfile: def.normalized(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ActiveBackend names the chain's current highest-priority live backend.
func (h *Humanizer) ActiveBackend() string { return h.chain.Active() }

// Perform dispatches one action with humanized pacing. It blocks until the
// action completes, fails, or ctx is cancelled; cancellation of an in-flight
// move takes effect within one sub-step interval.
func (h *Humanizer) Perform(ctx context.Context, action model.Action) (input.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p := h.profileFor(action.Profile)
	if err := h.cooldown(ctx, p); err != nil {
		return input.Result{}, err
	}

	var (
		res input.Result
		err error
	)
	switch action.Kind {
	case model.ActionMove:
		res, err = h.moveTo(ctx, p, action.X, action.Y)
	case model.ActionClick:
		res, err = h.click(ctx, p, action)
	case model.ActionKey:
		res, err = h.tapKey(ctx, p, action.Key, action.Modifiers)
	case model.ActionText:
		res, err = h.typeText(ctx, p, action.Text)
	case model.ActionCombo:
		res, err = h.combo(ctx, p, action.Keys)
	default:
		return input.Result{}, fmt.Errorf("unknown action kind %q", action.Kind)
	}

	h.lastAction = time.Now()
	return res, err
}

// MoveTo moves the pointer to (x, y) along a humanized trajectory. Used
// directly by dialog targeting; Perform routes move actions here too.
func (h *Humanizer) MoveTo(ctx context.Context, x, y int) (input.Result, error) {
	return h.Perform(ctx, model.Action{Kind: model.ActionMove, X: x, Y: y})
}

// Click presses the given button at the current pointer position.
func (h *Humanizer) Click(ctx context.Context, button string, double bool) (input.Result, error) {
	return h.Perform(ctx, model.Action{Kind: model.ActionClick, Button: button, Double: double, X: -1, Y: -1})
}

func (h *Humanizer) profileFor(name string) Profile {
	if name == "" {
		return h.defProfile
	}
	if p, ok := h.profiles[name]; ok {
		return p
	}
	h.logger.Warn("unknown humanize profile, using default", zap.String("profile", name))
	return h.defProfile
}

// cooldown enforces the minimum spacing since the previous action.
func (h *Humanizer) cooldown(ctx context.Context, p Profile) error {
	if h.lastAction.IsZero() || p.Cooldown <= 0 {
		return nil
	}
	remaining := p.Cooldown - time.Since(h.lastAction)
	if remaining <= 0 {
		return nil
	}
	return sleep(ctx, remaining)
}

func (h *Humanizer) moveTo(ctx context.Context, p Profile, x, y int) (input.Result, error) {
	x0, y0 := h.position()
	points := planTrajectory(x0, y0, x, y, p.MaxStepDistance, p.JitterPx, h.rng)

	var last input.Result
	for i, pt := range points {
		res, err := h.dispatch(ctx, input.Call{Kind: input.CallMove, X: pt.X, Y: pt.Y})
		if err != nil {
			return res, fmt.Errorf("move step %d/%d: %w", i+1, len(points), err)
		}
		last = res
		if i < len(points)-1 {
			if err := sleep(ctx, h.draw(p.MoveStep)); err != nil {
				return last, err
			}
		}
	}
	return last, nil
}

func (h *Humanizer) click(ctx context.Context, p Profile, action model.Action) (input.Result, error) {
	// Explicit coordinates get a humanized approach first.
	if action.X >= 0 && action.Y >= 0 {
		if res, err := h.moveTo(ctx, p, action.X, action.Y); err != nil {
			return res, err
		}
	}
	return h.paced(ctx, p.Click, input.Call{
		Kind:   input.CallClick,
		Button: action.Button,
		Double: action.Double,
	})
}

func (h *Humanizer) tapKey(ctx context.Context, p Profile, key string, mods []string) (input.Result, error) {
	return h.paced(ctx, p.Key, input.Call{
		Kind:      input.CallKeyTap,
		Key:       key,
		Modifiers: mods,
	})
}

func (h *Humanizer) typeText(ctx context.Context, p Profile, text string) (input.Result, error) {
	return h.paced(ctx, p.Text, input.Call{Kind: input.CallTypeText, Text: text})
}

// combo taps a key sequence with key pacing between taps.
func (h *Humanizer) combo(ctx context.Context, p Profile, keys []string) (input.Result, error) {
	var last input.Result
	for i, key := range keys {
		res, err := h.paced(ctx, p.Key, input.Call{Kind: input.CallKeyTap, Key: key})
		if err != nil {
			return res, fmt.Errorf("combo key %d/%d (%s): %w", i+1, len(keys), key, err)
		}
		last = res
	}
	return last, nil
}

// paced wraps one dispatch with a randomized delay on both sides.
func (h *Humanizer) paced(ctx context.Context, r DelayRange, call input.Call) (input.Result, error) {
	if err := sleep(ctx, h.draw(r)); err != nil {
		return input.Result{}, err
	}
	res, err := h.dispatch(ctx, call)
	if err != nil {
		return res, err
	}
	if err := sleep(ctx, h.draw(r)); err != nil {
		return res, err
	}
	return res, nil
}

// dispatch forwards to the chain and stamps the ledger on success.
func (h *Humanizer) dispatch(ctx context.Context, call input.Call) (input.Result, error) {
	res, err := h.chain.Dispatch(ctx, call)
	if err != nil {
		return res, err
	}
	h.ledger.MarkSynthetic(time.Now())
	return res, nil
}

func (h *Humanizer) draw(r DelayRange) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(h.rng.Int63n(int64(r.Max-r.Min)))
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
