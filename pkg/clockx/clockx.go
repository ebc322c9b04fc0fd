// Package clockx abstracts wall-clock time and timer scheduling so that
// timeout behaviour (idle detection, cache retention) can be tested without
// sleeping.
package clockx

import "time"

// Clock provides the current time and timer scheduling.
type Clock interface {
	Now() time.Time

	// AfterFunc schedules fn to run once d has elapsed. The returned Timer
	// can be stopped or re-armed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a scheduled callback that can be cancelled or re-armed.
type Timer interface {
	// Stop cancels the timer. It reports whether the timer was still pending.
	Stop() bool

	// Reset re-arms the timer to fire after d. It reports whether the timer
	// was still pending before the reset.
	Reset(d time.Duration) bool
}

// System returns a Clock backed by the time package.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return systemTimer{time.AfterFunc(d, fn)}
}

type systemTimer struct{ t *time.Timer }

func (t systemTimer) Stop() bool                 { return t.t.Stop() }
func (t systemTimer) Reset(d time.Duration) bool { return t.t.Reset(d) }
