package event

import (
	"container/list"
	"context"
	"time"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/handler"
	"github.com/joeycumines/go-syncprim/internal/ctxwait"
	"github.com/joeycumines/go-syncprim/internal/idgen"
	"github.com/joeycumines/go-syncprim/internal/race"
)

// Auto is an auto-reset event: signals > 0 and a non-empty waiter list
// never coexist. A Notify(n) wakes up to n waiters FIFO; any residue
// increments signals. Intended for unicast task dispatch.
type Auto struct {
	ser       executor.Serializer
	ownSer    bool
	ids       idgen.Generator
	signals   int
	waiters   *list.List
	waiterMap map[uint64]*list.Element
}

// NewAuto creates an Auto event with its own freshly created serializer.
func NewAuto(factory executor.SerializerFactory, initialSignals int) *Auto {
	return newAuto(factory.NewSerializer(), true, initialSignals)
}

// NewAutoShared creates an Auto event bound to an existing serializer.
func NewAutoShared(ser executor.Serializer, initialSignals int) *Auto {
	return newAuto(ser, false, initialSignals)
}

func newAuto(ser executor.Serializer, owns bool, initialSignals int) *Auto {
	if initialSignals < 0 {
		panic(executor.NewError(executor.KindInvalidArgument, "event: negative initial signal count"))
	}
	return &Auto{
		ser:       ser,
		ownSer:    owns,
		signals:   initialSignals,
		waiters:   list.New(),
		waiterMap: make(map[uint64]*list.Element),
	}
}

// Close releases the event's own serializer, if it owns one.
func (a *Auto) Close() {
	if a.ownSer {
		a.ser.Close()
	}
}

// Wait decrements signals if positive, else appends a non-cancellable
// waiter.
func (a *Auto) Wait(cb handler.Func) {
	a.ser.Submit(func() {
		if a.signals > 0 {
			a.signals--
			cb()
			return
		}
		a.waiters.PushBack(handler.NewCancellable(0, cb))
	})
}

// WaitCancellable is like Wait, returning a waiter id usable with Cancel.
func (a *Auto) WaitCancellable(cb handler.Func) uint64 {
	id := a.ids.Next()
	a.ser.Submit(func() {
		if a.signals > 0 {
			a.signals--
			cb()
			return
		}
		elem := a.waiters.PushBack(handler.NewCancellable(id, cb))
		a.waiterMap[id] = elem
	})
	return id
}

// WaitTimed races Wait against timeout.
func (a *Auto) WaitTimed(timeout time.Duration, tf executor.TimerFactory, cb handler.BoolFunc) {
	var gate race.Gate
	var id uint64
	var timer executor.Timer

	id = a.WaitCancellable(func() {
		if gate.WinInner() {
			if timer != nil {
				timer.Stop()
			}
			cb(true)
		}
	})
	timer = tf.AfterFunc(timeout, func() {
		if gate.WinTimer() {
			a.Cancel(id)
			cb(false)
		}
	})
}

// WaitCtx blocks until ctx is done or a signal is consumed.
func (a *Auto) WaitCtx(ctx context.Context) error {
	var id uint64
	return ctxwait.Wait(ctx, func(done func(ok bool)) {
		id = a.WaitCancellable(func() { done(true) })
	}, func() {
		a.Cancel(id)
	})
}

// TryWait consumes one signal if immediately available; it never queues.
func (a *Auto) TryWait(cb func(ok bool)) {
	a.ser.Submit(func() {
		if a.signals > 0 {
			a.signals--
			cb(true)
			return
		}
		cb(false)
	})
}

// Cancel removes a still-pending waiter without invoking its callback.
func (a *Auto) Cancel(id uint64) {
	if id == 0 {
		return
	}
	a.ser.Submit(func() {
		elem, ok := a.waiterMap[id]
		if !ok {
			return
		}
		delete(a.waiterMap, id)
		a.waiters.Remove(elem)
	})
}

// Notify wakes a single waiter if one is queued, else increments signals.
func (a *Auto) Notify() {
	a.NotifyN(1)
}

// NotifyN wakes up to n waiters FIFO; any residue increments signals.
func (a *Auto) NotifyN(n int) {
	if n <= 0 {
		return
	}
	a.ser.Submit(func() {
		for i := 0; i < n; i++ {
			front := a.waiters.Front()
			if front == nil {
				a.signals += n - i
				return
			}
			w := front.Value.(*handler.Cancellable)
			a.waiters.Remove(front)
			if w.ID() != 0 {
				delete(a.waiterMap, w.ID())
			}
			w.Fire()
		}
	})
}

// Reset clears the residual signal count. It does not cancel waiters.
func (a *Auto) Reset() {
	a.ser.Submit(func() {
		a.signals = 0
	})
}

// AutoStats is a best-effort, point-in-time snapshot.
type AutoStats struct {
	Signals int
	Waiters int
}

// StatsAsync reports a snapshot of the event's state.
func (a *Auto) StatsAsync(cb func(AutoStats)) {
	a.ser.Submit(func() {
		cb(AutoStats{Signals: a.signals, Waiters: a.waiters.Len()})
	})
}
