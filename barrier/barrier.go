package barrier

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

// Barrier is a cyclic N-party meeting point: once numParticipants calls to
// ArriveAndWait have arrived, all of them complete together, arrived
// resets to zero, and generation increments (spec.md §3/§4.9).
type Barrier struct {
	ser        executor.Serializer
	ownSer     bool
	ids        idgen.Generator
	numParties int
	arrived    int
	generation atomic.Uint64
	waiters    *list.List
	waiterMap  map[uint64]*list.Element
}

// New creates a Barrier with its own freshly created serializer.
func New(factory executor.SerializerFactory, numParticipants int) *Barrier {
	return newBarrier(factory.NewSerializer(), true, numParticipants)
}

// NewShared creates a Barrier bound to an existing, shared serializer.
func NewShared(ser executor.Serializer, numParticipants int) *Barrier {
	return newBarrier(ser, false, numParticipants)
}

func newBarrier(ser executor.Serializer, owns bool, numParticipants int) *Barrier {
	if numParticipants <= 0 {
		panic(executor.NewError(executor.KindInvalidArgument, "barrier: numParticipants must be positive"))
	}
	return &Barrier{
		ser:        ser,
		ownSer:     owns,
		numParties: numParticipants,
		waiters:    list.New(),
		waiterMap:  make(map[uint64]*list.Element),
	}
}

// Close releases the barrier's own serializer, if it owns one.
func (b *Barrier) Close() {
	if b.ownSer {
		b.ser.Close()
	}
}

// ArriveAndWait registers an arrival and blocks until numParticipants
// arrivals have accumulated in the current generation, at which point
// every participant of that generation (including this caller) completes
// together, arrived resets to zero, and generation increments.
func (b *Barrier) ArriveAndWait(cb handler.Func) {
	b.ser.Submit(func() {
		b.arrived++
		if b.arrived == b.numParties {
			b.release(cb)
			return
		}
		b.waiters.PushBack(handler.NewCancellable(0, cb))
	})
}

// ArriveAndWaitCancellable is like ArriveAndWait, returning a waiter id.
// Cancelling after this call's arrival has already been counted does not
// retroactively decrement arrived (the caller is assumed to have
// committed to the round); Cancel only prevents its own callback firing.
func (b *Barrier) ArriveAndWaitCancellable(cb handler.Func) uint64 {
	id := b.ids.Next()
	b.ser.Submit(func() {
		b.arrived++
		if b.arrived == b.numParties {
			b.release(cb)
			return
		}
		elem := b.waiters.PushBack(handler.NewCancellable(id, cb))
		b.waiterMap[id] = elem
	})
	return id
}

func (b *Barrier) release(last handler.Func) {
	for {
		front := b.waiters.Front()
		if front == nil {
			break
		}
		w := front.Value.(*handler.Cancellable)
		b.waiters.Remove(front)
		if w.ID() != 0 {
			delete(b.waiterMap, w.ID())
		}
		w.Fire()
	}
	b.arrived = 0
	b.generation.Add(1)
	last()
}

// ArriveAndWaitTimed races ArriveAndWait against timeout.
func (b *Barrier) ArriveAndWaitTimed(timeout time.Duration, tf executor.TimerFactory, cb handler.BoolFunc) {
	var gate race.Gate
	var id uint64
	var timer executor.Timer

	id = b.ArriveAndWaitCancellable(func() {
		if gate.WinInner() {
			if timer != nil {
				timer.Stop()
			}
			cb(true)
		}
	})
	timer = tf.AfterFunc(timeout, func() {
		if gate.WinTimer() {
			b.Cancel(id)
			cb(false)
		}
	})
}

// ArriveAndWaitCtx blocks until ctx is done or the barrier releases.
func (b *Barrier) ArriveAndWaitCtx(ctx context.Context) error {
	var id uint64
	return ctxwait.Wait(ctx, func(done func(ok bool)) {
		id = b.ArriveAndWaitCancellable(func() { done(true) })
	}, func() {
		b.Cancel(id)
	})
}

// Arrive registers an arrival without waiting for release.
func (b *Barrier) Arrive() {
	b.ser.Submit(func() {
		b.arrived++
		if b.arrived == b.numParties {
			b.release(func() {})
		}
	})
}

// ArriveAndDrop removes this participant from the party (decrementing
// numParticipants) while also counting its arrival, in the same
// serializer task so the two updates cannot be observed independently.
func (b *Barrier) ArriveAndDrop() {
	b.ser.Submit(func() {
		if b.numParties > 1 {
			b.numParties--
		}
		b.arrived++
		if b.arrived == b.numParties {
			b.release(func() {})
		}
	})
}

// Cancel removes a still-pending waiter without invoking its callback.
// Note: this does not undo the arrival already counted for that waiter;
// see ArriveAndWaitCancellable.
func (b *Barrier) Cancel(id uint64) {
	if id == 0 {
		return
	}
	b.ser.Submit(func() {
		elem, ok := b.waiterMap[id]
		if !ok {
			return
		}
		delete(b.waiterMap, id)
		b.waiters.Remove(elem)
	})
}

// Generation returns the number of completed rounds so far.
func (b *Barrier) Generation() uint64 { return b.generation.Load() }

// Stats is a best-effort, point-in-time snapshot.
type Stats struct {
	NumParticipants int
	Arrived         int
	Generation      uint64
}

// StatsAsync reports a snapshot of the barrier's state.
func (b *Barrier) StatsAsync(cb func(Stats)) {
	b.ser.Submit(func() {
		cb(Stats{NumParticipants: b.numParties, Arrived: b.arrived, Generation: b.generation.Load()})
	})
}
