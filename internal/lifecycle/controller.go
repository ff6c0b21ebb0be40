package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/TLSLime/Puppeteer/internal/dialog"
	"github.com/TLSLime/Puppeteer/internal/model"
	"github.com/TLSLime/Puppeteer/internal/safety"
	"github.com/TLSLime/Puppeteer/internal/window"
)

// ErrNotIdle is returned when Start is called on a controller that already
// ran. A controller is single-use.
var ErrNotIdle = errors.New("controller already started")

// Config tunes the cycle.
type Config struct {
	// Interval paces the observe-decide-dispatch cycle.
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	// MaxActionsPerSecond caps dispatch frequency independently of the
	// interval.
	MaxActionsPerSecond float64 `mapstructure:"max_actions_per_second" yaml:"max_actions_per_second"`
	// PauseDelay is how long a pause lasts before automatic recovery.
	PauseDelay time.Duration `mapstructure:"pause_delay" yaml:"pause_delay"`
	// RecoveryRetries bounds recovery attempts before giving up.
	RecoveryRetries int `mapstructure:"recovery_retries" yaml:"recovery_retries"`
	// Target describes the window every dispatch requires.
	Target window.Descriptor `mapstructure:"target" yaml:"target"`
}

// DefaultConfig returns the stock cycle tuning.
func DefaultConfig() Config {
	return Config{
		Interval:            150 * time.Millisecond,
		MaxActionsPerSecond: 8,
		PauseDelay:          2 * time.Second,
		RecoveryRetries:     3,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.MaxActionsPerSecond <= 0 {
		c.MaxActionsPerSecond = def.MaxActionsPerSecond
	}
	if c.PauseDelay <= 0 {
		c.PauseDelay = def.PauseDelay
	}
	if c.RecoveryRetries <= 0 {
		c.RecoveryRetries = def.RecoveryRetries
	}
	return c
}

// CycleStats counts cycle outcomes.
type CycleStats struct {
	Started  time.Time
	Cycles   uint64
	Actions  uint64
	Failures uint64
	Pauses   uint64
	LastErr  string
}

// Status is the controller's externally visible condition.
type Status struct {
	State         State
	StopReason    string
	ActiveBackend string
	Safety        safety.Stats
	Cycle         CycleStats
}

type cmdKind int

const (
	cmdStop cmdKind = iota
	cmdPause
	cmdResume
)

type command struct {
	kind   cmdKind
	reason string
}

// Controller is the automation lifecycle: it couples the observe-decide
// cycle, window readiness, humanized dispatch, and safety events into one
// state machine. All state transitions happen on the run goroutine.
type Controller struct {
	logger    *zap.Logger
	cfg       Config
	performer Performer
	monitor   Monitor
	readiness Ensurer
	observer  Observer
	decider   Decider
	recorder  Recorder
	limiter   *rate.Limiter

	state atomic.Int32

	mu         sync.Mutex
	started    bool
	stopReason string
	stats      CycleStats

	cmds   chan command
	cancel context.CancelFunc
	done   chan struct{}
}

// New assembles a controller. recorder may be nil.
func New(logger *zap.Logger, cfg Config, performer Performer, monitor Monitor,
	readiness Ensurer, observer Observer, decider Decider, recorder Recorder) *Controller {

	cfg = cfg.normalized()
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Controller{
		logger:    logger,
		cfg:       cfg,
		performer: performer,
		monitor:   monitor,
		readiness: readiness,
		observer:  observer,
		decider:   decider,
		recorder:  recorder,
		limiter:   rate.NewLimiter(rate.Limit(cfg.MaxActionsPerSecond), 1),
		cmds:      make(chan command, 4),
		done:      make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Status returns the full externally visible condition.
func (c *Controller) Status() Status {
	c.mu.Lock()
	stats := c.stats
	reason := c.stopReason
	c.mu.Unlock()
	return Status{
		State:         c.State(),
		StopReason:    reason,
		ActiveBackend: c.performer.ActiveBackend(),
		Safety:        c.monitor.Stats(),
		Cycle:         stats,
	}
}

// SetSafetyLevel forwards to the monitor, effective immediately.
func (c *Controller) SetSafetyLevel(l safety.Level) {
	c.monitor.SetLevel(l)
}

// Start moves Idle to Running: the safety monitor comes up, the target
// window is confirmed once, then the cycle begins on its own goroutine.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrNotIdle
	}
	c.started = true
	c.mu.Unlock()

	if err := c.monitor.Start(); err != nil {
		c.finish("safety monitor failed: " + err.Error())
		close(c.done)
		return fmt.Errorf("start safety monitor: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	if _, err := c.readiness.Ensure(ctx, c.cfg.Target); err != nil {
		c.monitor.Stop()
		cancel()
		c.finish("initial window readiness failed: " + err.Error())
		close(c.done)
		return fmt.Errorf("initial window readiness: %w", err)
	}

	c.mu.Lock()
	c.stats.Started = time.Now()
	c.mu.Unlock()

	c.state.Store(int32(Running))
	c.logger.Info("automation started", zap.String("target", c.cfg.Target.Title))

	go c.run(ctx)
	return nil
}

// Stop requests a terminal stop and waits for the run goroutine to exit.
// Safe to call from any goroutine, repeatedly.
func (c *Controller) Stop(reason string) {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started || c.State() == Stopped {
		return
	}
	select {
	case c.cmds <- command{kind: cmdStop, reason: reason}:
	case <-c.done:
	}
	<-c.done
}

// Pause suspends the cycle as if operator activity had been detected.
func (c *Controller) Pause() {
	if c.State() == Running {
		select {
		case c.cmds <- command{kind: cmdPause, reason: "pause requested"}:
		default:
		}
	}
}

// Resume cuts the pause delay short and recovers immediately.
func (c *Controller) Resume() {
	if c.State() == Paused {
		select {
		case c.cmds <- command{kind: cmdResume}:
		default:
		}
	}
}

// Done is closed when the controller reaches Stopped.
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	defer c.cancel()
	defer c.monitor.Stop()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		switch c.State() {
		case Running:
			select {
			case cmd := <-c.cmds:
				switch cmd.kind {
				case cmdStop:
					c.finish(cmd.reason)
					return
				case cmdPause:
					c.pause(cmd.reason)
				}
			case ev := <-c.monitor.Events():
				if c.handleSafetyEvent(ev) {
					return
				}
			case <-ticker.C:
				if stop, reason := c.cycle(ctx); stop {
					c.finish(reason)
					return
				}
			}

		case Paused:
			delay := time.NewTimer(c.cfg.PauseDelay)
			paused := true
			for paused {
				select {
				case cmd := <-c.cmds:
					switch cmd.kind {
					case cmdStop:
						delay.Stop()
						c.finish(cmd.reason)
						return
					case cmdResume:
						c.state.Store(int32(Recovering))
						paused = false
					}
				case ev := <-c.monitor.Events():
					if ev.Kind == safety.EmergencyStop {
						delay.Stop()
						c.finish(ev.Detail)
						return
					}
				case <-delay.C:
					c.state.Store(int32(Recovering))
					paused = false
				}
			}
			delay.Stop()
			c.logger.Info("pause elapsed, recovering")

		case Recovering:
			if ok, reason := c.recover(ctx); ok {
				c.state.Store(int32(Running))
				c.logger.Info("recovered, resuming cycle")
			} else {
				c.finish(reason)
				return
			}

		default:
			return
		}
	}
}

// cycle runs one observe-decide-dispatch pass. It returns stop=true when the
// session should end.
func (c *Controller) cycle(ctx context.Context) (stop bool, reason string) {
	c.bumpCycles()

	if !c.limiter.Allow() {
		return false, ""
	}

	obs, err := c.observer.Observe(ctx)
	if err != nil {
		c.fail("observe", err)
		return false, ""
	}

	action, done, err := c.decider.Decide(ctx, obs)
	if err != nil {
		c.fail("decide", err)
		return false, ""
	}
	if done {
		return true, "decider finished"
	}

	if _, err := c.readiness.Ensure(ctx, c.cfg.Target); err != nil {
		c.fail("window readiness", err)
		// A refused dialog is an operator-attention situation, not a
		// transient readiness failure. No pause, no recovery.
		if errors.Is(err, dialog.ErrEscalated) {
			return true, "unexpected dialog: " + err.Error()
		}
		c.pause("window not ready")
		return false, ""
	}

	res, err := c.performer.Perform(ctx, action)
	if err != nil {
		if ctx.Err() != nil {
			return true, "cancelled"
		}
		c.fail("dispatch", err)
		c.recorder.Record(model.Record{
			Time: time.Now(),
			Kind: "action_failed",
			Fields: map[string]any{
				"action": string(action.Kind),
				"error":  err.Error(),
			},
		})
		return false, ""
	}

	c.bumpActions()
	c.recorder.Record(model.Record{
		Time: time.Now(),
		Kind: "action",
		Fields: map[string]any{
			"action":  string(action.Kind),
			"backend": res.Backend,
			"latency": res.Latency.String(),
		},
	})
	return false, ""
}

// handleSafetyEvent reacts to a monitor event while Running. It returns true
// when the controller must terminate.
func (c *Controller) handleSafetyEvent(ev safety.Event) bool {
	switch ev.Kind {
	case safety.EmergencyStop:
		c.logger.Warn("emergency stop", zap.String("detail", ev.Detail))
		c.recorder.Record(model.Record{
			Time:   ev.At,
			Kind:   "emergency_stop",
			Fields: map[string]any{"detail": ev.Detail},
		})
		c.finish(ev.Detail)
		return true
	case safety.UserActivity:
		c.pause(ev.Detail)
	}
	return false
}

func (c *Controller) pause(reason string) {
	if c.State() != Running {
		return
	}
	c.state.Store(int32(Paused))
	c.mu.Lock()
	c.stats.Pauses++
	c.mu.Unlock()
	c.logger.Warn("automation paused", zap.String("reason", reason))
	c.recorder.Record(model.Record{
		Time:   time.Now(),
		Kind:   "paused",
		Fields: map[string]any{"reason": reason},
	})
}

// recover re-ensures the target window and restarts the safety monitor with
// a fresh grace period. Bounded by RecoveryRetries.
func (c *Controller) recover(ctx context.Context) (bool, string) {
	for attempt := 1; attempt <= c.cfg.RecoveryRetries; attempt++ {
		select {
		case cmd := <-c.cmds:
			if cmd.kind == cmdStop {
				return false, cmd.reason
			}
		default:
		}
		if err := ctx.Err(); err != nil {
			return false, "cancelled"
		}

		c.monitor.Stop()
		if _, err := c.readiness.Ensure(ctx, c.cfg.Target); err != nil {
			if errors.Is(err, dialog.ErrEscalated) {
				return false, "unexpected dialog: " + err.Error()
			}
			c.logger.Warn("recovery attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		if err := c.monitor.Start(); err != nil {
			c.logger.Warn("monitor restart failed", zap.Error(err))
			continue
		}
		c.recorder.Record(model.Record{
			Time:   time.Now(),
			Kind:   "recovered",
			Fields: map[string]any{"attempt": attempt},
		})
		return true, ""
	}
	return false, fmt.Sprintf("recovery failed after %d attempts", c.cfg.RecoveryRetries)
}

// finish moves to the terminal state.
func (c *Controller) finish(reason string) {
	c.state.Store(int32(Stopped))
	c.mu.Lock()
	c.stopReason = reason
	c.mu.Unlock()
	c.logger.Info("automation stopped", zap.String("reason", reason))
	c.recorder.Record(model.Record{
		Time:   time.Now(),
		Kind:   "stopped",
		Fields: map[string]any{"reason": reason},
	})
}

func (c *Controller) bumpCycles() {
	c.mu.Lock()
	c.stats.Cycles++
	c.mu.Unlock()
}

func (c *Controller) bumpActions() {
	c.mu.Lock()
	c.stats.Actions++
	c.mu.Unlock()
}

func (c *Controller) fail(stage string, err error) {
	c.mu.Lock()
	c.stats.Failures++
	c.stats.LastErr = stage + ": " + err.Error()
	c.mu.Unlock()
	c.logger.Warn("cycle stage failed", zap.String("stage", stage), zap.Error(err))
}
