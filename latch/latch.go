package latch

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

// Latch is a one-shot downward counter: triggered is true exactly when
// count has reached zero, and the transition is one-way (spec.md §3).
// count and triggered are atomics per spec.md §5 (readable outside the
// serializer); the waiter list still only mutates inside the serializer.
type Latch struct {
	ser       executor.Serializer
	ownSer    bool
	ids       idgen.Generator
	count     atomic.Int64
	triggered atomic.Bool
	errCount  atomic.Uint64
	waiters   *list.List
	waiterMap map[uint64]*list.Element
}

// New creates a Latch with its own freshly created serializer.
func New(factory executor.SerializerFactory, initialCount int64) *Latch {
	return newLatch(factory.NewSerializer(), true, initialCount)
}

// NewShared creates a Latch bound to an existing, shared serializer.
func NewShared(ser executor.Serializer, initialCount int64) *Latch {
	return newLatch(ser, false, initialCount)
}

func newLatch(ser executor.Serializer, owns bool, initialCount int64) *Latch {
	if initialCount < 0 {
		panic(executor.NewError(executor.KindInvalidArgument, "latch: negative initial count"))
	}
	l := &Latch{
		ser:       ser,
		ownSer:    owns,
		waiters:   list.New(),
		waiterMap: make(map[uint64]*list.Element),
	}
	l.count.Store(initialCount)
	l.triggered.Store(initialCount == 0)
	return l
}

// Close releases the latch's own serializer, if it owns one.
func (l *Latch) Close() {
	if l.ownSer {
		l.ser.Close()
	}
}

// countDown performs the clamped fetch-sub and reports whether this call
// is the one that caused the false->true transition of triggered.
func (l *Latch) countDown(k int64) (causedTrigger bool) {
	if k <= 0 {
		return false
	}
	for {
		old := l.count.Load()
		if old <= 0 {
			l.errCount.Add(1)
			return false
		}
		next := old - k
		if next < 0 {
			next = 0
		}
		if !l.count.CompareAndSwap(old, next) {
			continue
		}
		if next == 0 && old-k < 0 {
			l.errCount.Add(1)
		}
		if next == 0 && l.triggered.CompareAndSwap(false, true) {
			l.ser.Submit(func() { l.drain() })
			return true
		}
		return false
	}
}

func (l *Latch) drain() {
	for {
		front := l.waiters.Front()
		if front == nil {
			return
		}
		w := front.Value.(*handler.Cancellable)
		l.waiters.Remove(front)
		if w.ID() != 0 {
			delete(l.waiterMap, w.ID())
		}
		w.Fire()
	}
}

// CountDown decrements the count by k (clamped at 0); once it reaches
// zero, every pending and future Wait completes. Decrementing past zero
// is tolerated and reflected in ErrorCount.
func (l *Latch) CountDown(k int64) {
	l.countDown(k)
}

// ArriveAndWait fuses CountDown(k) and Wait: if this call causes the
// zero transition, it completes immediately without queuing.
func (l *Latch) ArriveAndWait(k int64, cb handler.Func) {
	if l.countDown(k) {
		cb()
		return
	}
	l.Wait(cb)
}

// Wait completes immediately if triggered, else appends a non-cancellable
// waiter.
func (l *Latch) Wait(cb handler.Func) {
	l.ser.Submit(func() {
		if l.triggered.Load() {
			cb()
			return
		}
		l.waiters.PushBack(handler.NewCancellable(0, cb))
	})
}

// WaitCancellable is like Wait, returning a waiter id usable with Cancel.
func (l *Latch) WaitCancellable(cb handler.Func) uint64 {
	id := l.ids.Next()
	l.ser.Submit(func() {
		if l.triggered.Load() {
			cb()
			return
		}
		elem := l.waiters.PushBack(handler.NewCancellable(id, cb))
		l.waiterMap[id] = elem
	})
	return id
}

// WaitTimed races Wait against timeout.
func (l *Latch) WaitTimed(timeout time.Duration, tf executor.TimerFactory, cb handler.BoolFunc) {
	var gate race.Gate
	var id uint64
	var timer executor.Timer

	id = l.WaitCancellable(func() {
		if gate.WinInner() {
			if timer != nil {
				timer.Stop()
			}
			cb(true)
		}
	})
	timer = tf.AfterFunc(timeout, func() {
		if gate.WinTimer() {
			l.Cancel(id)
			cb(false)
		}
	})
}

// WaitCtx blocks until ctx is done or the latch triggers.
func (l *Latch) WaitCtx(ctx context.Context) error {
	var id uint64
	return ctxwait.Wait(ctx, func(done func(ok bool)) {
		id = l.WaitCancellable(func() { done(true) })
	}, func() {
		l.Cancel(id)
	})
}

// Cancel removes a still-pending waiter without invoking its callback.
func (l *Latch) Cancel(id uint64) {
	if id == 0 {
		return
	}
	l.ser.Submit(func() {
		elem, ok := l.waiterMap[id]
		if !ok {
			return
		}
		delete(l.waiterMap, id)
		l.waiters.Remove(elem)
	})
}

// TryWait is a synchronous, lock-free read of the triggered flag.
func (l *Latch) TryWait() bool { return l.triggered.Load() }

// Count returns a synchronous snapshot of the remaining count.
func (l *Latch) Count() int64 { return l.count.Load() }

// ErrorCount returns the number of CountDown calls that attempted to
// decrement past zero.
func (l *Latch) ErrorCount() uint64 { return l.errCount.Load() }
