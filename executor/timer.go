package executor

import "time"

// afterFuncTimer adapts time.AfterFunc to the Timer interface.
type afterFuncTimer struct {
	t *time.Timer
}

func (a *afterFuncTimer) Stop() bool { return a.t.Stop() }

// AfterFunc arms a one-shot deadline that runs fn (on its own goroutine,
// per time.AfterFunc semantics) after d elapses. It satisfies
// TimerFactory, so *Loop can stand in for "the runtime's one-shot deadline
// timer" spec.md §1 calls for.
func (l *Loop) AfterFunc(d time.Duration, fn Task) Timer {
	return &afterFuncTimer{t: time.AfterFunc(d, fn)}
}
