package safety

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/model"
)

// Config tunes the monitor. Zero fields take the defaults below.
type Config struct {
	Level             Level
	EmergencyKey      string
	GracePeriod       time.Duration
	MovementThreshold float64
	ActivityThreshold time.Duration
	PollInterval      time.Duration
}

// DefaultConfig returns the stock monitor tuning.
func DefaultConfig() Config {
	return Config{
		Level:             Medium,
		EmergencyKey:      "esc",
		GracePeriod:       5 * time.Second,
		MovementThreshold: 50,
		ActivityThreshold: time.Second,
		PollInterval:      10 * time.Millisecond,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.EmergencyKey == "" {
		c.EmergencyKey = def.EmergencyKey
	}
	if c.GracePeriod < 0 {
		c.GracePeriod = 0
	}
	if c.MovementThreshold < 1 {
		c.MovementThreshold = def.MovementThreshold
	}
	if c.ActivityThreshold <= 0 {
		c.ActivityThreshold = def.ActivityThreshold
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	return c
}

// eventBuffer is the delivery channel capacity. The monitor never blocks on
// a slow consumer: user-activity events are coalesced when the buffer is
// full, and an emergency evicts a pending event rather than being dropped.
const eventBuffer = 16

// Monitor watches for operator input and the emergency key on a tight poll
// loop, independent of the dispatch path. It reads the activity ledger to
// attribute observed input to the agent rather than the operator.
type Monitor struct {
	logger *zap.Logger
	probe  Probe
	ledger *model.ActivityLedger

	events chan Event

	mu        sync.Mutex
	cfg       Config
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time

	ticks          atomic.Uint64
	mouseEvents    atomic.Uint64
	keyEvents      atomic.Uint64
	userActivities atomic.Uint64
	emergencyStops atomic.Uint64
}

// NewMonitor builds a monitor over the given probe and shared ledger.
func NewMonitor(logger *zap.Logger, probe Probe, ledger *model.ActivityLedger, cfg Config) *Monitor {
	return &Monitor{
		logger: logger,
		probe:  probe,
		ledger: ledger,
		events: make(chan Event, eventBuffer),
		cfg:    cfg.normalized(),
	}
}

// Events is the delivery channel. It stays valid across Start/Stop cycles.
func (m *Monitor) Events() <-chan Event { return m.events }

// Config returns a snapshot of the current tuning.
func (m *Monitor) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// SetLevel changes the safety level, effective on the next poll.
func (m *Monitor) SetLevel(l Level) {
	m.mu.Lock()
	m.cfg.Level = l
	m.mu.Unlock()
	m.logger.Info("safety level changed", zap.Stringer("level", l))
}

// SetEmergencyKey changes the emergency-stop key, effective on the next poll.
func (m *Monitor) SetEmergencyKey(key string) {
	m.mu.Lock()
	m.cfg.EmergencyKey = key
	m.mu.Unlock()
	m.logger.Info("emergency key changed", zap.String("key", key))
}

// Stats returns the live counters.
func (m *Monitor) Stats() Stats {
	return Stats{
		Ticks:          m.ticks.Load(),
		MouseEvents:    m.mouseEvents.Load(),
		KeyEvents:      m.keyEvents.Load(),
		UserActivities: m.userActivities.Load(),
		EmergencyStops: m.emergencyStops.Load(),
	}
}

// Start launches the poll loop. Calling it while running is a no-op, so the
// lifecycle may call it freely during recovery. The grace period is anchored
// at each fresh start.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}

	raw, stopProbe, err := m.probe.Subscribe()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	m.startedAt = time.Now()

	go func(done chan struct{}) {
		defer close(done)
		defer stopProbe()
		m.run(ctx, raw)
	}(m.done)

	m.logger.Info("safety monitor started",
		zap.Stringer("level", m.cfg.Level),
		zap.String("emergency_key", m.cfg.EmergencyKey))
	return nil
}

// Stop halts the poll loop and waits for it to exit. Safe to call repeatedly.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
	m.logger.Info("safety monitor stopped")
}

// Running reports whether the poll loop is live.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) run(ctx context.Context, raw <-chan RawEvent) {
	lastX, lastY := m.probe.Position()
	var (
		lastActivity  time.Time
		emergencyHeld bool
	)

	ticker := time.NewTicker(m.Config().PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-raw:
			if !ok {
				raw = nil
				continue
			}
			cfg := m.Config()
			if cfg.Level == Disabled || cfg.Level == Low {
				continue
			}
			switch ev.Kind {
			case RawMouse:
				m.mouseEvents.Add(1)
			case RawKey:
				m.keyEvents.Add(1)
			}
			now := time.Now()
			if m.attributable(cfg, now, &lastActivity) {
				m.emitActivity(now, "input event")
			}

		case <-ticker.C:
			m.ticks.Add(1)
			cfg := m.Config()
			if cfg.Level == Disabled {
				continue
			}
			now := time.Now()

			// Emergency ignores grace and fires on the press edge.
			down, err := m.probe.KeyDown(cfg.EmergencyKey)
			if err == nil {
				if down && !emergencyHeld {
					m.emitEmergency(now, cfg.EmergencyKey)
				}
				emergencyHeld = down
			}

			if cfg.Level == Low {
				continue
			}

			x, y := m.probe.Position()
			dist := math.Hypot(float64(x-lastX), float64(y-lastY))
			lastX, lastY = x, y
			if dist > movementThreshold(cfg) && m.attributable(cfg, now, &lastActivity) {
				m.emitActivity(now, "pointer displacement")
			}
		}
	}
}

// attributable reports whether observed input should count as operator
// activity: past the grace period, not within the synthetic-action window,
// and debounced against the previous emission.
func (m *Monitor) attributable(cfg Config, now time.Time, lastActivity *time.Time) bool {
	m.mu.Lock()
	started := m.startedAt
	m.mu.Unlock()

	if now.Sub(started) < cfg.GracePeriod {
		return false
	}
	if m.ledger.SinceSynthetic(now) < activityThreshold(cfg) {
		return false
	}
	if !lastActivity.IsZero() && now.Sub(*lastActivity) < activityThreshold(cfg) {
		return false
	}
	*lastActivity = now
	return true
}

func movementThreshold(cfg Config) float64 {
	if cfg.Level == High {
		return cfg.MovementThreshold / 2
	}
	return cfg.MovementThreshold
}

func activityThreshold(cfg Config) time.Duration {
	if cfg.Level == High {
		return cfg.ActivityThreshold / 2
	}
	return cfg.ActivityThreshold
}

func (m *Monitor) emitActivity(now time.Time, detail string) {
	m.userActivities.Add(1)
	ev := Event{Kind: UserActivity, At: now, Detail: detail}
	select {
	case m.events <- ev:
	default:
		// A user-activity event is already pending; coalesce.
	}
	m.logger.Warn("user activity detected", zap.String("detail", detail))
}

// emitEmergency guarantees delivery: when the buffer is full it evicts a
// pending event rather than dropping the emergency.
func (m *Monitor) emitEmergency(now time.Time, key string) {
	m.emergencyStops.Add(1)
	ev := Event{Kind: EmergencyStop, At: now, Detail: "emergency key " + key}
	for {
		select {
		case m.events <- ev:
			m.logger.Warn("emergency stop triggered", zap.String("key", key))
			return
		default:
		}
		select {
		case <-m.events:
		default:
		}
	}
}
