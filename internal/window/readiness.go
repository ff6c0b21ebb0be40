package window

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config tunes the readiness retry loop.
type Config struct {
	// MaxRetries bounds find attempts per Ensure call.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	// Backoff is the wait after a failed attempt; it doubles each retry.
	Backoff time.Duration `mapstructure:"backoff" yaml:"backoff"`
	// Park moves the pointer to this window anchor after activation.
	Park Anchor `mapstructure:"park" yaml:"park"`
}

// DefaultConfig returns the stock retry tuning.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 5,
		Backoff:    200 * time.Millisecond,
		Park:       AnchorCenter,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.Backoff <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}

// Parker moves the pointer to a resting position. The humanizer satisfies
// this through a small adapter in the lifecycle.
type Parker interface {
	Park(ctx context.Context, x, y int) error
}

// Readiness verifies that the target window exists, is visible, and holds
// the foreground before any input is dispatched, launching the associated
// resource and retrying with backoff when it does not.
type Readiness struct {
	logger *zap.Logger
	collab Collaborator
	cfg    Config
	parker Parker // optional

	mu       sync.Mutex
	lastRect Rect
	haveRect bool
}

// NewReadiness builds a Readiness over the collaborator. parker may be nil.
func NewReadiness(logger *zap.Logger, collab Collaborator, cfg Config, parker Parker) *Readiness {
	return &Readiness{
		logger: logger,
		collab: collab,
		cfg:    cfg.normalized(),
		parker: parker,
	}
}

// LastRect returns the most recently observed window rectangle.
func (r *Readiness) LastRect() (Rect, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRect, r.haveRect
}

// Ensure locates, restores, and foregrounds the target window, retrying with
// doubling backoff up to the configured bound. The associated resource is
// opened at most once per call, on the first miss.
func (r *Readiness) Ensure(ctx context.Context, desc Descriptor) (*Handle, error) {
	if desc.Empty() {
		return nil, fmt.Errorf("empty window descriptor")
	}

	backoff := r.cfg.Backoff
	opened := false

	var lastErr error = ErrWindowNotFound
	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		h, err := r.collab.Find(ctx, desc)
		if err == nil {
			if h, err = r.activate(ctx, h); err == nil {
				return h, nil
			}
			lastErr = err
		} else {
			lastErr = err
			if !opened {
				opened = true
				if openErr := r.collab.OpenAssociatedResource(ctx, desc); openErr != nil {
					r.logger.Warn("opening associated resource failed", zap.Error(openErr))
				} else {
					r.logger.Info("opened associated resource",
						zap.String("resource", desc.Resource),
						zap.String("process", desc.Process))
				}
			}
		}

		if attempt < r.cfg.MaxRetries {
			r.logger.Debug("window not ready, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			if err := wait(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
		}
	}

	return nil, fmt.Errorf("window not ready after %d attempts: %w", r.cfg.MaxRetries, lastErr)
}

// activate restores and foregrounds a found window, caches its rectangle,
// and parks the pointer when configured.
func (r *Readiness) activate(ctx context.Context, h *Handle) (*Handle, error) {
	if err := r.collab.Restore(ctx, h); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if err := r.collab.BringToForeground(ctx, h); err != nil {
		return nil, fmt.Errorf("bring to foreground: %w", err)
	}

	rect, err := r.collab.Rect(ctx, h)
	if err != nil {
		r.logger.Warn("window rect unavailable", zap.Error(err))
	} else {
		r.mu.Lock()
		r.lastRect = rect
		r.haveRect = true
		r.mu.Unlock()
	}

	if r.parker != nil && r.cfg.Park != AnchorNone && err == nil {
		x, y := r.cfg.Park.Point(rect)
		if parkErr := r.parker.Park(ctx, x, y); parkErr != nil {
			r.logger.Warn("mouse parking failed", zap.Error(parkErr))
		}
	}

	r.logger.Info("window ready",
		zap.String("title", h.Title),
		zap.Int("pid", h.PID))
	return h, nil
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
