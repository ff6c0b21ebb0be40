package input

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Chain dispatches input calls through an ordered set of backends. The order
// is fixed when the chain is built; a backend that fails a call is marked
// degraded and never tried again within the session.
type Chain struct {
	logger *zap.Logger

	mu       sync.Mutex
	backends []Backend
	degraded map[string]bool
}

// NewChain builds a chain from the given backends, keeping only those that
// report themselves available. Priority follows slice order.
func NewChain(logger *zap.Logger, backends ...Backend) *Chain {
	c := &Chain{
		logger:   logger,
		degraded: make(map[string]bool),
	}
	for _, b := range backends {
		if b.Available() {
			c.backends = append(c.backends, b)
		} else {
			logger.Info("input backend not available, skipping",
				zap.String("backend", b.Name()))
		}
	}
	return c
}

// Active returns the name of the highest-priority backend that is not
// degraded, or empty if the chain is exhausted.
func (c *Chain) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.backends {
		if !c.degraded[b.Name()] {
			return b.Name()
		}
	}
	return ""
}

// Degraded reports whether the named backend has been marked degraded.
func (c *Chain) Degraded(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded[name]
}

// Dispatch attempts the call on each live backend in priority order. The first
// success wins. Each failure degrades that backend for the rest of the
// session; a call interrupted by the caller's context returns the context
// error without degrading anything. When every backend has failed, the
// returned error wraps ErrChainExhausted and the Result diagnostic lists the
// per-backend causes.
func (c *Chain) Dispatch(ctx context.Context, call Call) (Result, error) {
	start := time.Now()

	var attempts []string
	for _, b := range c.snapshot() {
		if err := ctx.Err(); err != nil {
			return Result{Latency: time.Since(start)}, err
		}

		err := c.tryBackend(ctx, b, call)
		if err == nil {
			return Result{
				Backend: b.Name(),
				Latency: time.Since(start),
			}, nil
		}

		// A call cut short by the caller's context is not a backend fault.
		if cerr := ctx.Err(); cerr != nil {
			return Result{Latency: time.Since(start)}, cerr
		}

		c.markDegraded(b.Name())
		attempts = append(attempts, fmt.Sprintf("%s: %v", b.Name(), err))
		c.logger.Warn("input backend degraded",
			zap.String("backend", b.Name()),
			zap.String("call", string(call.Kind)),
			zap.Error(err))
	}

	diag := "no live backends"
	if len(attempts) > 0 {
		diag = strings.Join(attempts, "; ")
	}
	return Result{
			Latency:    time.Since(start),
			Diagnostic: diag,
		}, fmt.Errorf("%w for %s call: %s", ErrChainExhausted, call.Kind, diag)
}

// KeyState queries the first live backend able to answer. Failures do not
// degrade anything; the query is simply retried on the next backend and on
// the next call.
func (c *Chain) KeyState(key string) (bool, error) {
	var lastErr error = ErrKeyStateUnsupported
	for _, b := range c.snapshot() {
		down, err := b.KeyState(key)
		if err == nil {
			return down, nil
		}
		lastErr = err
	}
	return false, lastErr
}

// tryBackend runs one dispatch attempt, converting panics into errors so a
// faulting backend degrades instead of crashing the session.
func (c *Chain) tryBackend(ctx context.Context, b Backend, call Call) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrBackendCallFailed, r)
		}
	}()
	if err := b.Dispatch(ctx, call); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendCallFailed, err)
	}
	return nil
}

// snapshot returns the live backends in priority order.
func (c *Chain) snapshot() []Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := make([]Backend, 0, len(c.backends))
	for _, b := range c.backends {
		if !c.degraded[b.Name()] {
			live = append(live, b)
		}
	}
	return live
}

func (c *Chain) markDegraded(name string) {
	c.mu.Lock()
	c.degraded[name] = true
	c.mu.Unlock()
}
