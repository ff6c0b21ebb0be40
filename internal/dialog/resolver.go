package dialog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/window"
)

// ErrEscalated marks a dialog the policy refuses to confirm; the lifecycle
// treats the readiness failure as a stop condition.
var ErrEscalated = errors.New("unexpected dialog escalated")

// dialogTitles are the window-title fragments that identify a dialog when
// the target window has gone missing behind one.
var dialogTitles = []string{
	"确认", "警告", "错误", "提示",
	"confirm", "warning", "error", "alert", "save",
}

// Ensurer matches the window readiness surface the resolver wraps.
type Ensurer interface {
	Ensure(ctx context.Context, desc window.Descriptor) (*window.Handle, error)
}

// Resolver decorates window readiness with dialog handling: when the target
// window cannot be ensured, it looks for a dialog standing in the way,
// answers it according to the policy, and retries once. Escalations surface
// as errors wrapping ErrEscalated.
type Resolver struct {
	logger   *zap.Logger
	inner    Ensurer
	collab   window.Collaborator
	targeter *Targeter
	policy   Policy
}

// NewResolver builds a Resolver around the inner readiness.
func NewResolver(logger *zap.Logger, inner Ensurer, collab window.Collaborator,
	targeter *Targeter, policy Policy) *Resolver {
	return &Resolver{
		logger:   logger,
		inner:    inner,
		collab:   collab,
		targeter: targeter,
		policy:   policy,
	}
}

func (r *Resolver) Ensure(ctx context.Context, desc window.Descriptor) (*window.Handle, error) {
	h, err := r.inner.Ensure(ctx, desc)
	if err == nil {
		return h, nil
	}

	dh := r.findDialog(ctx)
	if dh == nil {
		return nil, err
	}

	dialogType, escalate, derr := r.targeter.Handle(ctx, dh, r.policy, "")
	if escalate {
		return nil, fmt.Errorf("dialog %q (%s): %w", dh.Title, dialogType, ErrEscalated)
	}
	if derr != nil {
		r.logger.Warn("dialog handling failed", zap.String("title", dh.Title), zap.Error(derr))
		return nil, err
	}

	r.logger.Info("dialog dismissed, retrying window readiness",
		zap.String("title", dh.Title),
		zap.String("type", string(dialogType)))
	return r.inner.Ensure(ctx, desc)
}

// findDialog scans for a window whose title marks it as a dialog.
func (r *Resolver) findDialog(ctx context.Context) *window.Handle {
	for _, kw := range dialogTitles {
		h, err := r.collab.Find(ctx, window.Descriptor{Title: kw})
		if err == nil && h != nil {
			return h
		}
	}
	return nil
}
