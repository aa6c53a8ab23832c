// Package race implements the timeout race pattern shared by every timed
// wait in this module (spec.md §4.14): a deadline timer and an inner
// operation race to complete first; the loser is cancelled and never
// invokes the completion.
package race

import "sync/atomic"

// Gate arbitrates exactly one winner between a timer branch and an inner-
// operation branch. The zero value is ready to use.
type Gate struct {
	completed atomic.Bool
}

// WinTimer attempts to claim victory for the timer branch. Returns true if
// this call is the one that should cancel the inner operation and deliver
// the timeout outcome; false if the inner operation already won (in which
// case this call must do nothing further).
func (g *Gate) WinTimer() bool {
	return g.completed.CompareAndSwap(false, true)
}

// WinInner attempts to claim victory for the inner operation. Returns true
// if this call is the one that should cancel the timer and deliver the
// success outcome; false if the timer already won.
func (g *Gate) WinInner() bool {
	return g.completed.CompareAndSwap(false, true)
}
