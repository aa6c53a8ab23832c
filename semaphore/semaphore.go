package semaphore

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

// Semaphore is a counting semaphore: count > 0 and a non-empty waiter list
// never coexist (spec.md §3).
type Semaphore struct {
	ser       executor.Serializer
	ownSer    bool
	ids       idgen.Generator
	logger    executor.Logger
	count     int
	waiters   *list.List // of *handler.Cancellable
	waiterMap map[uint64]*list.Element
}

// New creates a Semaphore with its own, freshly created serializer.
func New(factory executor.SerializerFactory, initialCount int) *Semaphore {
	if initialCount < 0 {
		panic(executor.NewError(executor.KindInvalidArgument, "semaphore: negative initial count"))
	}
	return newSemaphore(factory.NewSerializer(), true, initialCount)
}

// NewShared creates a Semaphore bound to an existing, shared serializer —
// e.g. the one owned by a queue.Queue, so the embedded semaphore's
// completion callbacks run without an extra post.
func NewShared(ser executor.Serializer, initialCount int) *Semaphore {
	if initialCount < 0 {
		panic(executor.NewError(executor.KindInvalidArgument, "semaphore: negative initial count"))
	}
	return newSemaphore(ser, false, initialCount)
}

func newSemaphore(ser executor.Serializer, owns bool, initialCount int) *Semaphore {
	return &Semaphore{
		ser:       ser,
		ownSer:    owns,
		logger:    executor.GetLogger(),
		count:     initialCount,
		waiters:   list.New(),
		waiterMap: make(map[uint64]*list.Element),
	}
}

// Close releases the semaphore's own serializer, if it owns one. Any
// waiters still queued are dropped without their callbacks firing
// (spec.md §3 lifecycle: "destruction runs after the serializer has
// drained; any still-pending waiters are dropped").
func (s *Semaphore) Close() {
	if s.ownSer {
		s.ser.Close()
	}
}

// Acquire decrements the count if positive, else appends a
// non-cancellable waiter.
func (s *Semaphore) Acquire(cb handler.Func) {
	s.ser.Submit(func() {
		if s.count > 0 {
			s.count--
			cb()
			return
		}
		s.waiters.PushBack(handler.NewCancellable(0, cb))
	})
}

// AcquireCancellable is like Acquire, but returns a waiter id (before the
// serializer task that registers it has necessarily run) that can later
// be passed to Cancel. Cancel is tolerant of an id that has not yet been
// registered.
func (s *Semaphore) AcquireCancellable(cb handler.Func) uint64 {
	id := s.ids.Next()
	s.ser.Submit(func() {
		if s.count > 0 {
			s.count--
			cb()
			return
		}
		elem := s.waiters.PushBack(handler.NewCancellable(id, cb))
		s.waiterMap[id] = elem
	})
	return id
}

// AcquireTimed races an acquire against timeout, delivering true if the
// acquire won, false if the timer did. On timeout, no permit is consumed.
// Implements the shared timeout-race pattern of spec.md §4.14.
func (s *Semaphore) AcquireTimed(timeout time.Duration, tf executor.TimerFactory, cb handler.BoolFunc) {
	var gate race.Gate
	var id uint64
	var timer executor.Timer

	id = s.AcquireCancellable(func() {
		if gate.WinInner() {
			if timer != nil {
				timer.Stop()
			}
			cb(true)
		} else {
			// the timer already won, but the permit was granted before its
			// Cancel ran: hand the permit back so none is consumed.
			s.Release()
		}
	})
	timer = tf.AfterFunc(timeout, func() {
		if gate.WinTimer() {
			s.Cancel(id)
			cb(false)
		}
	})
}

// AcquireCtx blocks the calling goroutine until either ctx is done or a
// permit is acquired, using the same race arbitration as AcquireTimed.
func (s *Semaphore) AcquireCtx(ctx context.Context) error {
	var id uint64
	return ctxwait.Wait(ctx, func(done func(ok bool)) {
		id = s.AcquireCancellable(func() { done(true) })
	}, func() {
		s.Cancel(id)
	})
}

// Release wakes the front waiter if any, else increments count.
func (s *Semaphore) Release() {
	s.ser.Submit(func() {
		s.releaseOne()
	})
}

// releaseOne must only be called from within the serializer.
func (s *Semaphore) releaseOne() {
	if front := s.waiters.Front(); front != nil {
		w := front.Value.(*handler.Cancellable)
		s.waiters.Remove(front)
		if w.ID() != 0 {
			delete(s.waiterMap, w.ID())
		}
		w.Fire()
		return
	}
	s.count++
}

// ReleaseN releases n permits in a single serializer task.
func (s *Semaphore) ReleaseN(n int) {
	if n <= 0 {
		return
	}
	s.ser.Submit(func() {
		for i := 0; i < n; i++ {
			s.releaseOne()
		}
	})
}

// TryAcquireAsync completes immediately (from inside the serializer) with
// true if a permit was available, false otherwise — it never queues.
func (s *Semaphore) TryAcquireAsync(cb func(ok bool)) {
	s.ser.Submit(func() {
		if s.count > 0 {
			s.count--
			cb(true)
			return
		}
		cb(false)
	})
}

// TryAcquireN grants min(n, count) permits atomically and reports the
// granted amount. This is the batch hook queue.Queue uses to drain
// without extra context switches.
func (s *Semaphore) TryAcquireN(n int, cb func(granted int)) {
	if n < 0 {
		n = 0
	}
	s.ser.Submit(func() {
		granted := n
		if granted > s.count {
			granted = s.count
		}
		s.count -= granted
		cb(granted)
	})
}

// Cancel removes the waiter with the given id, if still pending, without
// invoking its callback. Safe to call before, during, or after the waiter
// is registered, and idempotent once it has already fired or been
// cancelled.
func (s *Semaphore) Cancel(id uint64) {
	if id == 0 {
		return
	}
	s.ser.Submit(func() {
		elem, ok := s.waiterMap[id]
		if !ok {
			return
		}
		delete(s.waiterMap, id)
		s.waiters.Remove(elem)
	})
}

// CancelAll drops every pending waiter without invoking their callbacks.
func (s *Semaphore) CancelAll() {
	s.ser.Submit(func() {
		s.waiters.Init()
		for k := range s.waiterMap {
			delete(s.waiterMap, k)
		}
	})
}

// Stats is a best-effort, point-in-time snapshot (spec.md §6.3).
type Stats struct {
	Count   int
	Waiters int
}

// StatsAsync reports a snapshot of the semaphore's state.
func (s *Semaphore) StatsAsync(cb func(Stats)) {
	s.ser.Submit(func() {
		cb(Stats{Count: s.count, Waiters: s.waiters.Len()})
	})
}
