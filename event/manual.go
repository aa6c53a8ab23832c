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

// Manual is a manual-reset event: once set, it stays set (and immediately
// completes any new Wait) until Reset is called. NotifyAll drains and
// empties the waiter list on the false->true transition.
type Manual struct {
	ser       executor.Serializer
	ownSer    bool
	ids       idgen.Generator
	isSet     bool
	waiters   *list.List
	waiterMap map[uint64]*list.Element
}

// NewManual creates a Manual event with its own freshly created
// serializer.
func NewManual(factory executor.SerializerFactory, initialSet bool) *Manual {
	return newManual(factory.NewSerializer(), true, initialSet)
}

// NewManualShared creates a Manual event bound to an existing serializer.
func NewManualShared(ser executor.Serializer, initialSet bool) *Manual {
	return newManual(ser, false, initialSet)
}

func newManual(ser executor.Serializer, owns bool, initialSet bool) *Manual {
	return &Manual{
		ser:       ser,
		ownSer:    owns,
		isSet:     initialSet,
		waiters:   list.New(),
		waiterMap: make(map[uint64]*list.Element),
	}
}

// Close releases the event's own serializer, if it owns one.
func (m *Manual) Close() {
	if m.ownSer {
		m.ser.Close()
	}
}

// Wait completes immediately if the event is set, else appends a
// non-cancellable waiter.
func (m *Manual) Wait(cb handler.Func) {
	m.ser.Submit(func() {
		if m.isSet {
			cb()
			return
		}
		m.waiters.PushBack(handler.NewCancellable(0, cb))
	})
}

// WaitCancellable is like Wait, returning a waiter id usable with Cancel.
func (m *Manual) WaitCancellable(cb handler.Func) uint64 {
	id := m.ids.Next()
	m.ser.Submit(func() {
		if m.isSet {
			cb()
			return
		}
		elem := m.waiters.PushBack(handler.NewCancellable(id, cb))
		m.waiterMap[id] = elem
	})
	return id
}

// WaitTimed races Wait against timeout.
func (m *Manual) WaitTimed(timeout time.Duration, tf executor.TimerFactory, cb handler.BoolFunc) {
	var gate race.Gate
	var id uint64
	var timer executor.Timer

	id = m.WaitCancellable(func() {
		if gate.WinInner() {
			if timer != nil {
				timer.Stop()
			}
			cb(true)
		}
	})
	timer = tf.AfterFunc(timeout, func() {
		if gate.WinTimer() {
			m.Cancel(id)
			cb(false)
		}
	})
}

// WaitCtx blocks until ctx is done or the event is set.
func (m *Manual) WaitCtx(ctx context.Context) error {
	var id uint64
	return ctxwait.Wait(ctx, func(done func(ok bool)) {
		id = m.WaitCancellable(func() { done(true) })
	}, func() {
		m.Cancel(id)
	})
}

// Cancel removes a still-pending waiter without invoking its callback.
func (m *Manual) Cancel(id uint64) {
	if id == 0 {
		return
	}
	m.ser.Submit(func() {
		elem, ok := m.waiterMap[id]
		if !ok {
			return
		}
		delete(m.waiterMap, id)
		m.waiters.Remove(elem)
	})
}

// NotifyAll sets the event (if not already set) and drains every pending
// waiter. Calling NotifyAll while already set is a no-op.
func (m *Manual) NotifyAll() {
	m.ser.Submit(func() {
		if m.isSet {
			return
		}
		m.isSet = true
		for {
			front := m.waiters.Front()
			if front == nil {
				break
			}
			w := front.Value.(*handler.Cancellable)
			m.waiters.Remove(front)
			if w.ID() != 0 {
				delete(m.waiterMap, w.ID())
			}
			w.Fire()
		}
	})
}

// Reset clears the set flag. It does not affect waiters already queued,
// nor does it cancel them; it only changes the outcome of future Wait
// calls. Per spec.md §9, a caller requiring "latch then clear" must
// sequence this after a Wait completion, not rely on external ordering
// against a concurrent NotifyAll.
func (m *Manual) Reset() {
	m.ser.Submit(func() {
		m.isSet = false
	})
}

// IsSetAsync reports a snapshot of the set flag.
func (m *Manual) IsSetAsync(cb func(bool)) {
	m.ser.Submit(func() {
		cb(m.isSet)
	})
}

// Stats is a best-effort, point-in-time snapshot.
type Stats struct {
	IsSet   bool
	Waiters int
}

// StatsAsync reports a snapshot of the event's state.
func (m *Manual) StatsAsync(cb func(Stats)) {
	m.ser.Submit(func() {
		cb(Stats{IsSet: m.isSet, Waiters: m.waiters.Len()})
	})
}
