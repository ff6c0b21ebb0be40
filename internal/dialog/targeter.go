package dialog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/input"
	"github.com/TLSLime/Puppeteer/internal/window"
)

// ErrNoMatch is returned when no enumerated control satisfies the role and
// no direct-activation fallback is available.
var ErrNoMatch = errors.New("no control matches role")

// Mover is the slice of the humanizer the targeter drives: an eased approach
// to the centroid followed by a click in place.
type Mover interface {
	MoveTo(ctx context.Context, x, y int) (input.Result, error)
	Click(ctx context.Context, button string, double bool) (input.Result, error)
}

// DirectActivator is optionally implemented by a window collaborator that
// can press a dialog button through platform messaging instead of synthetic
// pointer input. Used only when label matching fails.
type DirectActivator interface {
	Activate(ctx context.Context, h *window.Handle, role string) error
}

// Config bounds the control scan.
type Config struct {
	// MaxControls caps how many enumerated controls are considered.
	MaxControls int `mapstructure:"max_controls" yaml:"max_controls"`
	// ScanTimeout bounds the whole enumerate-and-click operation.
	ScanTimeout time.Duration `mapstructure:"scan_timeout" yaml:"scan_timeout"`
}

// DefaultConfig returns the stock scan bounds.
func DefaultConfig() Config {
	return Config{MaxControls: 64, ScanTimeout: 3 * time.Second}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxControls <= 0 {
		c.MaxControls = def.MaxControls
	}
	if c.ScanTimeout <= 0 {
		c.ScanTimeout = def.ScanTimeout
	}
	return c
}

// Targeter clicks dialog buttons by semantic role, going through the
// humanized pointer path so dialog handling is indistinguishable from the
// rest of the synthetic input.
type Targeter struct {
	logger *zap.Logger
	collab window.Collaborator
	mover  Mover
	cfg    Config
}

// NewTargeter builds a Targeter over the collaborator and mover.
func NewTargeter(logger *zap.Logger, collab window.Collaborator, mover Mover, cfg Config) *Targeter {
	return &Targeter{
		logger: logger,
		collab: collab,
		mover:  mover,
		cfg:    cfg.normalized(),
	}
}

// Click finds the button matching role inside the window and clicks its
// centroid through the humanizer. When no label matches and the collaborator
// can activate controls directly, the first button-sized control is pressed
// that way instead; otherwise ErrNoMatch.
func (t *Targeter) Click(ctx context.Context, h *window.Handle, role Role) error {
	if !validRole(role) {
		return fmt.Errorf("unknown dialog role %q", role)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.ScanTimeout)
	defer cancel()

	controls, err := t.collab.EnumerateControls(ctx, h)
	if err != nil {
		return fmt.Errorf("enumerate controls: %w", err)
	}
	if len(controls) > t.cfg.MaxControls {
		controls = controls[:t.cfg.MaxControls]
	}

	for _, c := range controls {
		if !role.Matches(c.Label) {
			continue
		}
		x, y := c.Rect.Center()
		t.logger.Info("dialog button matched",
			zap.String("label", c.Label),
			zap.String("role", string(role)),
			zap.Int("x", x),
			zap.Int("y", y))
		if _, err := t.mover.MoveTo(ctx, x, y); err != nil {
			return fmt.Errorf("approach button %q: %w", c.Label, err)
		}
		if _, err := t.mover.Click(ctx, "left", false); err != nil {
			return fmt.Errorf("click button %q: %w", c.Label, err)
		}
		return nil
	}

	if da, ok := t.collab.(DirectActivator); ok {
		t.logger.Warn("no label matched role, activating directly",
			zap.String("role", string(role)))
		return da.Activate(ctx, h, string(role))
	}

	return fmt.Errorf("%w %q among %d controls", ErrNoMatch, role, len(controls))
}

// Handle answers a dialog according to the policy: classify, decide the
// role, click it, and report whether the lifecycle should escalate.
func (t *Targeter) Handle(ctx context.Context, h *window.Handle, policy Policy, content string) (Type, bool, error) {
	dialogType := Classify(h.Title, content)
	role, escalate := policy.Decide(h.Title, content)

	t.logger.Info("handling dialog",
		zap.String("title", h.Title),
		zap.String("type", string(dialogType)),
		zap.String("role", string(role)),
		zap.Bool("escalate", escalate))

	if err := t.Click(ctx, h, role); err != nil {
		return dialogType, escalate, err
	}
	return dialogType, escalate, nil
}
