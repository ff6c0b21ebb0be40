package model

import (
	"sync/atomic"
	"time"
)

// ActivityLedger records the timestamp of the most recent synthetic input
// action. The humanizer writes it on every dispatch; the safety monitor reads
// it to attribute observed input to the agent or to the operator. Both sides
// touch it from separate goroutines, so access goes through atomics.
type ActivityLedger struct {
	lastSynthetic atomic.Int64 // unix nanoseconds, 0 = never
}

// MarkSynthetic records that a synthetic action was just dispatched.
func (l *ActivityLedger) MarkSynthetic(t time.Time) {
	l.lastSynthetic.Store(t.UnixNano())
}

// LastSynthetic returns the time of the most recent synthetic action and
// whether one has been recorded at all.
func (l *ActivityLedger) LastSynthetic() (time.Time, bool) {
	ns := l.lastSynthetic.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}

// SinceSynthetic reports the elapsed time since the last synthetic action.
// If none was ever recorded it returns a very large duration.
func (l *ActivityLedger) SinceSynthetic(now time.Time) time.Duration {
	last, ok := l.LastSynthetic()
	if !ok {
		return time.Duration(1<<62 - 1)
	}
	return now.Sub(last)
}
