package humanize

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/input"
	"github.com/TLSLime/Puppeteer/internal/model"
)

type recordingDispatcher struct {
	mu       sync.Mutex
	calls    []input.Call
	failWith error
	x, y     int
}

func (d *recordingDispatcher) Dispatch(_ context.Context, call input.Call) (input.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWith != nil {
		return input.Result{Diagnostic: d.failWith.Error()}, d.failWith
	}
	d.calls = append(d.calls, call)
	if call.Kind == input.CallMove {
		d.x, d.y = call.X, call.Y
	}
	return input.Result{Backend: "fake"}, nil
}

func (d *recordingDispatcher) Active() string { return "fake" }

func (d *recordingDispatcher) snapshot() []input.Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]input.Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// fastProfile removes the pacing so tests run in microseconds.
func fastProfile() Profile {
	return Profile{MaxStepDistance: 5}
}

func newTestHumanizer(disp *recordingDispatcher, ledger *model.ActivityLedger, p Profile) *Humanizer {
	h := New(zap.NewNop(), disp, ledger, p,
		WithRand(rand.New(rand.NewSource(99))),
		WithPosition(func() (int, int) {
			disp.mu.Lock()
			defer disp.mu.Unlock()
			return disp.x, disp.y
		}))
	return h
}

func TestHumanizerMoveSubSteps(t *testing.T) {
	disp := &recordingDispatcher{}
	h := newTestHumanizer(disp, &model.ActivityLedger{}, fastProfile())

	_, err := h.MoveTo(context.Background(), 200, 0)
	require.NoError(t, err)

	calls := disp.snapshot()
	require.NotEmpty(t, calls)

	px, py := 0, 0
	for i, c := range calls {
		require.Equal(t, input.CallMove, c.Kind)
		d := math.Hypot(float64(c.X-px), float64(c.Y-py))
		assert.LessOrEqualf(t, d, 5.0, "step %d", i)
		px, py = c.X, c.Y
	}
	last := calls[len(calls)-1]
	assert.Equal(t, 200, last.X)
	assert.Equal(t, 0, last.Y)
	assert.Greater(t, len(calls), 30)
}

func TestHumanizerMarksLedgerOnEveryDispatch(t *testing.T) {
	disp := &recordingDispatcher{}
	ledger := &model.ActivityLedger{}
	h := newTestHumanizer(disp, ledger, fastProfile())

	_, ok := ledger.LastSynthetic()
	require.False(t, ok)

	before := time.Now()
	_, err := h.Perform(context.Background(), model.Action{Kind: model.ActionKey, Key: "enter"})
	require.NoError(t, err)

	last, ok := ledger.LastSynthetic()
	require.True(t, ok)
	assert.False(t, last.Before(before))
}

func TestHumanizerClickAtCoordinatesMovesFirst(t *testing.T) {
	disp := &recordingDispatcher{}
	h := newTestHumanizer(disp, &model.ActivityLedger{}, fastProfile())

	_, err := h.Perform(context.Background(), model.Action{
		Kind: model.ActionClick, X: 40, Y: 40, Button: "left",
	})
	require.NoError(t, err)

	calls := disp.snapshot()
	require.NotEmpty(t, calls)
	assert.Equal(t, input.CallClick, calls[len(calls)-1].Kind)

	moveCount := 0
	for _, c := range calls[:len(calls)-1] {
		if c.Kind == input.CallMove {
			moveCount++
		}
	}
	assert.Equal(t, len(calls)-1, moveCount)
	assert.Equal(t, 40, calls[len(calls)-2].X)
}

func TestHumanizerClickInPlaceSkipsMove(t *testing.T) {
	disp := &recordingDispatcher{}
	h := newTestHumanizer(disp, &model.ActivityLedger{}, fastProfile())

	_, err := h.Click(context.Background(), "right", false)
	require.NoError(t, err)

	calls := disp.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, input.CallClick, calls[0].Kind)
	assert.Equal(t, "right", calls[0].Button)
}

func TestHumanizerComboTapsEachKey(t *testing.T) {
	disp := &recordingDispatcher{}
	h := newTestHumanizer(disp, &model.ActivityLedger{}, fastProfile())

	_, err := h.Perform(context.Background(), model.Action{
		Kind: model.ActionCombo, Keys: []string{"alt", "f4"},
	})
	require.NoError(t, err)

	calls := disp.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "alt", calls[0].Key)
	assert.Equal(t, "f4", calls[1].Key)
}

func TestHumanizerCancellationStopsMidMove(t *testing.T) {
	disp := &recordingDispatcher{}
	p := fastProfile()
	p.MoveStep = DelayRange{Min: 5 * time.Millisecond, Max: 5 * time.Millisecond}
	h := newTestHumanizer(disp, &model.ActivityLedger{}, p)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.MoveTo(ctx, 2000, 2000)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The move was cut off well before the destination.
	calls := disp.snapshot()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.NotEqual(t, [2]int{2000, 2000}, [2]int{last.X, last.Y})
}

func TestHumanizerDispatchErrorPropagates(t *testing.T) {
	boom := errors.New("chain exhausted")
	disp := &recordingDispatcher{failWith: boom}
	h := newTestHumanizer(disp, &model.ActivityLedger{}, fastProfile())

	_, err := h.Perform(context.Background(), model.Action{Kind: model.ActionText, Text: "hello"})
	assert.ErrorIs(t, err, boom)

	// Failed dispatches never stamp the ledger.
	_, ok := (&model.ActivityLedger{}).LastSynthetic()
	assert.False(t, ok)
}

func TestHumanizerUnknownActionKind(t *testing.T) {
	disp := &recordingDispatcher{}
	h := newTestHumanizer(disp, &model.ActivityLedger{}, fastProfile())

	_, err := h.Perform(context.Background(), model.Action{Kind: "teleport"})
	assert.Error(t, err)
	assert.Empty(t, disp.snapshot())
}

func TestHumanizerNamedProfileSelection(t *testing.T) {
	disp := &recordingDispatcher{}
	slow := fastProfile()
	slow.Cooldown = 0
	h := New(zap.NewNop(), disp, &model.ActivityLedger{}, fastProfile(),
		WithRand(rand.New(rand.NewSource(1))),
		WithPosition(func() (int, int) { return 0, 0 }),
		WithProfile("careful", slow))

	_, err := h.Perform(context.Background(), model.Action{
		Kind: model.ActionKey, Key: "tab", Profile: "careful",
	})
	require.NoError(t, err)

	// Unknown profile falls back to the default instead of failing.
	_, err = h.Perform(context.Background(), model.Action{
		Kind: model.ActionKey, Key: "tab", Profile: "no-such-profile",
	})
	require.NoError(t, err)
}
