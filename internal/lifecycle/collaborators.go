package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/TLSLime/Puppeteer/internal/input"
	"github.com/TLSLime/Puppeteer/internal/model"
	"github.com/TLSLime/Puppeteer/internal/safety"
	"github.com/TLSLime/Puppeteer/internal/window"
)

// Observer supplies the external observation for each cycle: a screen
// capture, an OCR result, whatever the vision layer produces. The controller
// treats it as opaque.
type Observer interface {
	Observe(ctx context.Context) (model.Observation, error)
}

// Decider turns an observation into the next action. done=true ends the
// session cleanly, before any further dispatch.
type Decider interface {
	Decide(ctx context.Context, obs model.Observation) (action model.Action, done bool, err error)
}

// Recorder receives structured outcome records for external persistence.
// Implementations must not block the cycle.
type Recorder interface {
	Record(rec model.Record)
}

// Performer is the humanizer surface the controller drives.
type Performer interface {
	Perform(ctx context.Context, action model.Action) (input.Result, error)
	ActiveBackend() string
}

// Monitor is the safety monitor surface the controller consumes.
type Monitor interface {
	Start() error
	Stop()
	Events() <-chan safety.Event
	Stats() safety.Stats
	SetLevel(l safety.Level)
}

// Ensurer is the window readiness surface the controller confirms before
// each dispatch.
type Ensurer interface {
	Ensure(ctx context.Context, desc window.Descriptor) (*window.Handle, error)
}

// NopRecorder discards records.
type NopRecorder struct{}

func (NopRecorder) Record(model.Record) {}

// ZapRecorder writes records to a zap logger, the default persistence sink
// when no external collaborator is attached.
type ZapRecorder struct {
	Logger *zap.Logger
}

func (r ZapRecorder) Record(rec model.Record) {
	r.Logger.Info("cycle record",
		zap.Time("at", rec.Time),
		zap.String("kind", rec.Kind),
		zap.Any("fields", rec.Fields))
}
