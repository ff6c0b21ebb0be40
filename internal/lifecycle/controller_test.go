package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/dialog"
	"github.com/TLSLime/Puppeteer/internal/input"
	"github.com/TLSLime/Puppeteer/internal/model"
	"github.com/TLSLime/Puppeteer/internal/safety"
	"github.com/TLSLime/Puppeteer/internal/window"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePerformer struct {
	mu      sync.Mutex
	actions []model.Action
	failAll bool
}

func (p *fakePerformer) Perform(_ context.Context, a model.Action) (input.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAll {
		return input.Result{}, errors.New("dispatch failed")
	}
	p.actions = append(p.actions, a)
	return input.Result{Backend: "fake", Latency: time.Millisecond}, nil
}

func (p *fakePerformer) ActiveBackend() string { return "fake" }

func (p *fakePerformer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.actions)
}

type fakeMonitor struct {
	mu     sync.Mutex
	events chan safety.Event
	starts int
	stops  int
	level  safety.Level
}

func newFakeMonitor() *fakeMonitor {
	return &fakeMonitor{events: make(chan safety.Event, 16)}
}

func (m *fakeMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	return nil
}

func (m *fakeMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *fakeMonitor) Events() <-chan safety.Event { return m.events }
func (m *fakeMonitor) Stats() safety.Stats         { return safety.Stats{} }

func (m *fakeMonitor) SetLevel(l safety.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = l
}

func (m *fakeMonitor) startCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

type fakeEnsurer struct {
	mu       sync.Mutex
	calls    int
	failFrom int   // fail every call from this 1-based index on; 0 = never
	failErr  error // error returned when failing; nil means ErrWindowNotFound
}

func (e *fakeEnsurer) Ensure(context.Context, window.Descriptor) (*window.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.failFrom > 0 && e.calls >= e.failFrom {
		if e.failErr != nil {
			return nil, e.failErr
		}
		return nil, window.ErrWindowNotFound
	}
	return &window.Handle{ID: 1, Title: "target"}, nil
}

type memoryRecorder struct {
	mu   sync.Mutex
	recs []model.Record
}

func (r *memoryRecorder) Record(rec model.Record) {
	r.mu.Lock()
	r.recs = append(r.recs, rec)
	r.mu.Unlock()
}

func (r *memoryRecorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.recs))
	for i, rec := range r.recs {
		out[i] = rec.Kind
	}
	return out
}

type endlessDecider struct{}

func (endlessDecider) Decide(context.Context, model.Observation) (model.Action, bool, error) {
	return model.Action{Kind: model.ActionKey, Key: "down"}, false, nil
}

func testCycleConfig() Config {
	return Config{
		Interval:            3 * time.Millisecond,
		MaxActionsPerSecond: 1000,
		PauseDelay:          25 * time.Millisecond,
		RecoveryRetries:     3,
		Target:              window.Descriptor{Title: "target"},
	}
}

func newTestController(cfg Config, perf Performer, mon Monitor, ens Ensurer,
	dec Decider, rec Recorder) *Controller {
	return New(zap.NewNop(), cfg, perf, mon, ens, NopObserver{}, dec, rec)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	require.Fail(t, "condition not reached within "+timeout.String())
}

func TestControllerScriptRunsToCompletion(t *testing.T) {
	perf := &fakePerformer{}
	mon := newFakeMonitor()
	rec := &memoryRecorder{}
	script := model.Script{Name: "demo", Actions: []model.Action{
		{Kind: model.ActionKey, Key: "a"},
		{Kind: model.ActionKey, Key: "b"},
		{Kind: model.ActionText, Text: "hi"},
	}}

	c := newTestController(testCycleConfig(), perf, mon, &fakeEnsurer{},
		NewScriptDecider(script, false), rec)
	require.NoError(t, c.Start())

	<-c.Done()
	assert.Equal(t, Stopped, c.State())
	assert.Equal(t, 3, perf.count())
	assert.Equal(t, "decider finished", c.Status().StopReason)
	assert.Contains(t, rec.kinds(), "action")
	assert.Contains(t, rec.kinds(), "stopped")
}

func TestControllerSingleUse(t *testing.T) {
	c := newTestController(testCycleConfig(), &fakePerformer{}, newFakeMonitor(),
		&fakeEnsurer{}, NewScriptDecider(model.Script{}, false), nil)
	require.NoError(t, c.Start())
	<-c.Done()
	assert.ErrorIs(t, c.Start(), ErrNotIdle)
}

func TestControllerUserActivityPausesThenRecovers(t *testing.T) {
	perf := &fakePerformer{}
	mon := newFakeMonitor()
	rec := &memoryRecorder{}

	c := newTestController(testCycleConfig(), perf, mon, &fakeEnsurer{},
		endlessDecider{}, rec)
	require.NoError(t, c.Start())
	defer c.Stop("test done")

	waitFor(t, time.Second, func() bool { return perf.count() > 0 })

	mon.events <- safety.Event{Kind: safety.UserActivity, At: time.Now(), Detail: "mouse moved"}
	waitFor(t, time.Second, func() bool { return c.State() == Paused })

	// Automatic: pause delay elapses, recovery succeeds, cycle resumes.
	waitFor(t, time.Second, func() bool { return c.State() == Running })
	assert.GreaterOrEqual(t, mon.startCount(), 2, "monitor restarted during recovery")

	before := perf.count()
	waitFor(t, time.Second, func() bool { return perf.count() > before })
}

func TestControllerEmergencyStopIsTerminal(t *testing.T) {
	perf := &fakePerformer{}
	mon := newFakeMonitor()
	rec := &memoryRecorder{}

	c := newTestController(testCycleConfig(), perf, mon, &fakeEnsurer{},
		endlessDecider{}, rec)
	require.NoError(t, c.Start())

	mon.events <- safety.Event{Kind: safety.EmergencyStop, At: time.Now(), Detail: "emergency key esc"}

	<-c.Done()
	assert.Equal(t, Stopped, c.State())
	assert.Equal(t, "emergency key esc", c.Status().StopReason)
	assert.Contains(t, rec.kinds(), "emergency_stop")

	// Terminal: resume and pause are no-ops now.
	c.Resume()
	c.Pause()
	assert.Equal(t, Stopped, c.State())
}

func TestControllerEmergencyDuringPause(t *testing.T) {
	perf := &fakePerformer{}
	mon := newFakeMonitor()
	cfg := testCycleConfig()
	cfg.PauseDelay = 500 * time.Millisecond

	c := newTestController(cfg, perf, mon, &fakeEnsurer{}, endlessDecider{}, nil)
	require.NoError(t, c.Start())

	mon.events <- safety.Event{Kind: safety.UserActivity, At: time.Now()}
	waitFor(t, time.Second, func() bool { return c.State() == Paused })

	mon.events <- safety.Event{Kind: safety.EmergencyStop, At: time.Now(), Detail: "emergency"}
	<-c.Done()
	assert.Equal(t, Stopped, c.State())
}

func TestControllerRecoveryFailureStops(t *testing.T) {
	perf := &fakePerformer{}
	mon := newFakeMonitor()
	// First ensure (Start) succeeds, everything after fails.
	ens := &fakeEnsurer{failFrom: 2}

	c := newTestController(testCycleConfig(), perf, mon, ens, endlessDecider{}, nil)
	require.NoError(t, c.Start())

	<-c.Done()
	assert.Equal(t, Stopped, c.State())
	assert.Contains(t, c.Status().StopReason, "recovery failed")
}

func TestControllerInitialReadinessFailure(t *testing.T) {
	ens := &fakeEnsurer{failFrom: 1}
	mon := newFakeMonitor()

	c := newTestController(testCycleConfig(), &fakePerformer{}, mon, ens,
		endlessDecider{}, nil)
	err := c.Start()
	require.Error(t, err)
	assert.Equal(t, Stopped, c.State())
	assert.Equal(t, 1, mon.stops)
}

func TestControllerExternalStop(t *testing.T) {
	perf := &fakePerformer{}
	c := newTestController(testCycleConfig(), perf, newFakeMonitor(),
		&fakeEnsurer{}, endlessDecider{}, nil)
	require.NoError(t, c.Start())

	waitFor(t, time.Second, func() bool { return perf.count() > 0 })
	c.Stop("operator request")

	assert.Equal(t, Stopped, c.State())
	assert.Equal(t, "operator request", c.Status().StopReason)

	// Idempotent.
	c.Stop("again")
	assert.Equal(t, "operator request", c.Status().StopReason)
}

func TestControllerPauseAndResume(t *testing.T) {
	perf := &fakePerformer{}
	cfg := testCycleConfig()
	cfg.PauseDelay = 10 * time.Second // resume must cut this short

	c := newTestController(cfg, perf, newFakeMonitor(), &fakeEnsurer{},
		endlessDecider{}, nil)
	require.NoError(t, c.Start())
	defer c.Stop("test done")

	waitFor(t, time.Second, func() bool { return perf.count() > 0 })
	c.Pause()
	waitFor(t, time.Second, func() bool { return c.State() == Paused })

	c.Resume()
	waitFor(t, time.Second, func() bool { return c.State() == Running })
}

func TestControllerStatusSurface(t *testing.T) {
	perf := &fakePerformer{}
	c := newTestController(testCycleConfig(), perf, newFakeMonitor(),
		&fakeEnsurer{}, endlessDecider{}, nil)
	require.NoError(t, c.Start())
	defer c.Stop("test done")

	waitFor(t, time.Second, func() bool { return c.Status().Cycle.Actions > 0 })

	st := c.Status()
	assert.Equal(t, Running, st.State)
	assert.Equal(t, "fake", st.ActiveBackend)
	assert.NotZero(t, st.Cycle.Cycles)
}

func TestControllerDispatchFailureCounts(t *testing.T) {
	perf := &fakePerformer{failAll: true}
	c := newTestController(testCycleConfig(), perf, newFakeMonitor(),
		&fakeEnsurer{}, endlessDecider{}, nil)
	require.NoError(t, c.Start())
	defer c.Stop("test done")

	waitFor(t, time.Second, func() bool { return c.Status().Cycle.Failures > 0 })
	assert.Contains(t, c.Status().Cycle.LastErr, "dispatch")
}

func TestScriptDecider(t *testing.T) {
	script := model.Script{Actions: []model.Action{
		{Kind: model.ActionKey, Key: "a"},
		{Kind: model.ActionKey, Key: "b"},
	}}

	d := NewScriptDecider(script, false)
	a, done, err := d.Decide(context.Background(), model.Observation{})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "a", a.Key)
	assert.Equal(t, 1, d.Remaining())

	_, done, _ = d.Decide(context.Background(), model.Observation{})
	assert.False(t, done)
	_, done, _ = d.Decide(context.Background(), model.Observation{})
	assert.True(t, done)

	// Looping decider wraps around instead of finishing.
	loop := NewScriptDecider(script, true)
	for i := 0; i < 5; i++ {
		_, done, err := loop.Decide(context.Background(), model.Observation{})
		require.NoError(t, err)
		assert.False(t, done)
	}
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "recovering", Recovering.String())
	assert.Equal(t, "stopped", Stopped.String())
}

func TestControllerEscalatedDialogStops(t *testing.T) {
	ens := &fakeEnsurer{
		failFrom: 2,
		failErr:  fmt.Errorf("dialog %q (%s): %w", "Updater Alert", "warning", dialog.ErrEscalated),
	}
	mon := newFakeMonitor()
	c := newTestController(testCycleConfig(), &fakePerformer{}, mon, ens, endlessDecider{}, nil)
	require.NoError(t, c.Start())

	waitFor(t, time.Second, func() bool { return c.State() == Stopped })
	<-c.Done()

	st := c.Status()
	assert.Contains(t, st.StopReason, "unexpected dialog")
	assert.Contains(t, st.StopReason, "Updater Alert")
	// No pause-recover loop: the session ended on the first refusal.
	assert.Zero(t, st.Cycle.Pauses)
}
