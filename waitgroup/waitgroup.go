package waitgroup

import (
	"container/list"
	"context"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/handler"
	"github.com/joeycumines/go-syncprim/internal/ctxwait"
	"github.com/joeycumines/go-syncprim/internal/idgen"
	"github.com/joeycumines/go-syncprim/internal/race"
)

// WaitGroup is a bidirectional counter: Add adjusts it (posted through
// the serializer so it orders against concurrent Wait registration, per
// spec.md §4.8's rationale), and every Wait completes the moment the
// count reaches zero.
type WaitGroup struct {
	ser        executor.Serializer
	ownSer     bool
	ids        idgen.Generator
	count      int64
	snapshot   atomic.Int64
	underflows atomic.Uint64
	waiters    *list.List
	waiterMap  map[uint64]*list.Element
}

// New creates a WaitGroup with its own freshly created serializer.
func New(factory executor.SerializerFactory, initialCount int64) *WaitGroup {
	return newWaitGroup(factory.NewSerializer(), true, initialCount)
}

// NewShared creates a WaitGroup bound to an existing, shared serializer.
func NewShared(ser executor.Serializer, initialCount int64) *WaitGroup {
	return newWaitGroup(ser, false, initialCount)
}

func newWaitGroup(ser executor.Serializer, owns bool, initialCount int64) *WaitGroup {
	if initialCount < 0 {
		panic(executor.NewError(executor.KindInvalidArgument, "waitgroup: negative initial count"))
	}
	wg := &WaitGroup{
		ser:       ser,
		ownSer:    owns,
		count:     initialCount,
		waiters:   list.New(),
		waiterMap: make(map[uint64]*list.Element),
	}
	wg.snapshot.Store(initialCount)
	return wg
}

// Close releases the wait-group's own serializer, if it owns one.
func (wg *WaitGroup) Close() {
	if wg.ownSer {
		wg.ser.Close()
	}
}

// Add adjusts the count by delta (which may be negative). If the count
// would go negative, it is clamped to zero and the attempt is counted as
// an underflow (observable via UnderflowCount), per spec.md §4.8.
func (wg *WaitGroup) Add(delta int64) {
	wg.ser.Submit(func() {
		next := wg.count + delta
		if next < 0 {
			wg.underflows.Add(1)
			next = 0
		}
		wg.count = next
		wg.snapshot.Store(next)
		if next == 0 {
			wg.drain()
		}
	})
}

// Done decrements the count by one; equivalent to Add(-1).
func (wg *WaitGroup) Done() { wg.Add(-1) }

func (wg *WaitGroup) drain() {
	for {
		front := wg.waiters.Front()
		if front == nil {
			return
		}
		w := front.Value.(*handler.Cancellable)
		wg.waiters.Remove(front)
		if w.ID() != 0 {
			delete(wg.waiterMap, w.ID())
		}
		w.Fire()
	}
}

// Wait completes immediately if the count is already zero, else appends a
// non-cancellable waiter.
func (wg *WaitGroup) Wait(cb handler.Func) {
	wg.ser.Submit(func() {
		if wg.count == 0 {
			cb()
			return
		}
		wg.waiters.PushBack(handler.NewCancellable(0, cb))
	})
}

// WaitCancellable is like Wait, returning a waiter id usable with Cancel.
func (wg *WaitGroup) WaitCancellable(cb handler.Func) uint64 {
	id := wg.ids.Next()
	wg.ser.Submit(func() {
		if wg.count == 0 {
			cb()
			return
		}
		elem := wg.waiters.PushBack(handler.NewCancellable(id, cb))
		wg.waiterMap[id] = elem
	})
	return id
}

// WaitTimed races Wait against timeout.
func (wg *WaitGroup) WaitTimed(timeout time.Duration, tf executor.TimerFactory, cb handler.BoolFunc) {
	var gate race.Gate
	var id uint64
	var timer executor.Timer

	id = wg.WaitCancellable(func() {
		if gate.WinInner() {
			if timer != nil {
				timer.Stop()
			}
			cb(true)
		}
	})
	timer = tf.AfterFunc(timeout, func() {
		if gate.WinTimer() {
			wg.Cancel(id)
			cb(false)
		}
	})
}

// WaitCtx blocks until ctx is done or the count reaches zero.
func (wg *WaitGroup) WaitCtx(ctx context.Context) error {
	var id uint64
	return ctxwait.Wait(ctx, func(done func(ok bool)) {
		id = wg.WaitCancellable(func() { done(true) })
	}, func() {
		wg.Cancel(id)
	})
}

// Cancel removes a still-pending waiter without invoking its callback.
func (wg *WaitGroup) Cancel(id uint64) {
	if id == 0 {
		return
	}
	wg.ser.Submit(func() {
		elem, ok := wg.waiterMap[id]
		if !ok {
			return
		}
		delete(wg.waiterMap, id)
		wg.waiters.Remove(elem)
	})
}

// Count returns a synchronous, possibly-stale snapshot of the count.
func (wg *WaitGroup) Count() int64 { return wg.snapshot.Load() }

// UnderflowCount returns the number of Add calls that attempted to drive
// the count negative.
func (wg *WaitGroup) UnderflowCount() uint64 { return wg.underflows.Load() }
