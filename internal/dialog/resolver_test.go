package dialog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/input"
	"github.com/TLSLime/Puppeteer/internal/window"
)

// blockedEnsurer fails until unblocked.
type blockedEnsurer struct {
	blocked bool
	calls   int
}

func (e *blockedEnsurer) Ensure(context.Context, window.Descriptor) (*window.Handle, error) {
	e.calls++
	if e.blocked {
		return nil, window.ErrWindowNotFound
	}
	return &window.Handle{ID: 1, Title: "target"}, nil
}

// dialogWorld serves a dialog window once and clears the blockage when its
// confirm button is clicked.
type dialogWorld struct {
	fakeDialogCollab
	ensurer *blockedEnsurer
	title   string
}

func (w *dialogWorld) Find(_ context.Context, desc window.Descriptor) (*window.Handle, error) {
	if w.ensurer.blocked && desc.MatchTitle(w.title) {
		return &window.Handle{ID: 9, Title: w.title}, nil
	}
	return nil, window.ErrWindowNotFound
}

// unblockingMover clicks like fakeMover but also clears the blockage, the
// way a real confirm click dismisses the dialog.
type unblockingMover struct {
	fakeMover
	ensurer *blockedEnsurer
}

func (m *unblockingMover) Click(ctx context.Context, button string, double bool) (input.Result, error) {
	m.ensurer.blocked = false
	return m.fakeMover.Click(ctx, button, double)
}

func TestResolverDismissesExpectedDialog(t *testing.T) {
	ensurer := &blockedEnsurer{blocked: true}
	world := &dialogWorld{ensurer: ensurer, title: "Notepad - Do you want to save changes?"}
	world.controls = []window.Control{
		{Label: "取消", Rect: window.Rect{X: 0, Y: 0, W: 60, H: 24}},
		{Label: "是(&Y)", Rect: window.Rect{X: 70, Y: 0, W: 60, H: 24}},
	}
	mover := &unblockingMover{ensurer: ensurer}
	tg := NewTargeter(zap.NewNop(), world, mover, Config{})
	r := NewResolver(zap.NewNop(), ensurer, world, tg, Policy{})

	h, err := r.Ensure(context.Background(), window.Descriptor{Title: "target"})
	require.NoError(t, err)
	assert.Equal(t, "target", h.Title)
	assert.Equal(t, 1, mover.clicks)
	// The confirm button, not cancel, was approached.
	require.Len(t, mover.moves, 1)
	assert.True(t, world.controls[1].Rect.Contains(mover.moves[0][0], mover.moves[0][1]))
	assert.Equal(t, 2, ensurer.calls)
}

func TestResolverEscalatesUnexpectedDialog(t *testing.T) {
	ensurer := &blockedEnsurer{blocked: true}
	world := &dialogWorld{ensurer: ensurer, title: "Updater Alert"}
	world.controls = []window.Control{
		{Label: "OK", Rect: window.Rect{X: 0, Y: 0, W: 60, H: 24}},
		{Label: "Cancel", Rect: window.Rect{X: 70, Y: 0, W: 60, H: 24}},
	}
	tg := NewTargeter(zap.NewNop(), world, &fakeMover{}, Config{})
	r := NewResolver(zap.NewNop(), ensurer, world, tg, Policy{})

	_, err := r.Ensure(context.Background(), window.Descriptor{Title: "target"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEscalated)
}

func TestResolverPassesThroughWhenNoDialog(t *testing.T) {
	ensurer := &blockedEnsurer{blocked: true}
	world := &dialogWorld{ensurer: ensurer, title: "nothing dialogish"}
	tg := NewTargeter(zap.NewNop(), world, &fakeMover{}, Config{})
	r := NewResolver(zap.NewNop(), ensurer, world, tg, Policy{})

	_, err := r.Ensure(context.Background(), window.Descriptor{Title: "target"})
	assert.ErrorIs(t, err, window.ErrWindowNotFound)
}

func TestResolverNoOpWhenTargetPresent(t *testing.T) {
	ensurer := &blockedEnsurer{blocked: false}
	world := &dialogWorld{ensurer: ensurer}
	tg := NewTargeter(zap.NewNop(), world, &fakeMover{}, Config{})
	r := NewResolver(zap.NewNop(), ensurer, world, tg, Policy{})

	h, err := r.Ensure(context.Background(), window.Descriptor{Title: "target"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.ID)
	assert.Equal(t, 1, ensurer.calls)
}
