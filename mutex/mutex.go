package mutex

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

// Mutex is a binary exclusion lock: at most one Guard is outstanding at
// any time, and the order waiters are granted the lock matches the order
// their serializer tasks registered them (spec.md §8 property 8).
type Mutex struct {
	ser       executor.Serializer
	ownSer    bool
	ids       idgen.Generator
	logger    executor.Logger
	locked    bool
	waiters   *list.List
	waiterMap map[uint64]*list.Element
	misuse    atomic.Uint64
}

// Guard represents ownership of the lock. Calling Unlock releases it; a
// Guard must not be used after Unlock.
type Guard struct {
	m *Mutex
}

// Unlock releases the lock this guard represents.
func (g *Guard) Unlock() { g.m.Unlock() }

// New creates a Mutex with its own freshly created serializer.
func New(factory executor.SerializerFactory) *Mutex {
	return newMutex(factory.NewSerializer(), true)
}

// NewShared creates a Mutex bound to an existing, shared serializer.
func NewShared(ser executor.Serializer) *Mutex {
	return newMutex(ser, false)
}

func newMutex(ser executor.Serializer, owns bool) *Mutex {
	return &Mutex{
		ser:       ser,
		ownSer:    owns,
		logger:    executor.GetLogger(),
		waiters:   list.New(),
		waiterMap: make(map[uint64]*list.Element),
	}
}

// Close releases the mutex's own serializer, if it owns one.
func (m *Mutex) Close() {
	if m.ownSer {
		m.ser.Close()
	}
}

// Lock acquires the lock, completing with a Guard once ownership transfers
// to the caller.
func (m *Mutex) Lock(cb func(*Guard)) {
	m.ser.Submit(func() {
		if !m.locked {
			m.locked = true
			cb(&Guard{m: m})
			return
		}
		m.waiters.PushBack(handler.NewCancellable(0, func() { cb(&Guard{m: m}) }))
	})
}

// LockCancellable is like Lock but returns a waiter id that can be passed
// to CancelLock.
func (m *Mutex) LockCancellable(cb func(*Guard)) uint64 {
	id := m.ids.Next()
	m.ser.Submit(func() {
		if !m.locked {
			m.locked = true
			cb(&Guard{m: m})
			return
		}
		elem := m.waiters.PushBack(handler.NewCancellable(id, func() { cb(&Guard{m: m}) }))
		m.waiterMap[id] = elem
	})
	return id
}

// LockTimed races acquiring the lock against timeout, combining the race
// pattern of spec.md §4.14. On timeout g is nil.
func (m *Mutex) LockTimed(timeout time.Duration, tf executor.TimerFactory, cb func(ok bool, g *Guard)) {
	var gate race.Gate
	var id uint64
	var timer executor.Timer

	id = m.LockCancellable(func(g *Guard) {
		if gate.WinInner() {
			if timer != nil {
				timer.Stop()
			}
			cb(true, g)
		} else {
			// lost the race after already acquiring ownership: release
			// immediately so the lock isn't leaked.
			g.Unlock()
		}
	})
	timer = tf.AfterFunc(timeout, func() {
		if gate.WinTimer() {
			m.CancelLock(id)
			cb(false, nil)
		}
	})
}

// LockCtx blocks until ctx is done or the lock is acquired.
func (m *Mutex) LockCtx(ctx context.Context) (*Guard, error) {
	var id uint64
	var guard *Guard
	err := ctxwait.Wait(ctx, func(done func(ok bool)) {
		id = m.LockCancellable(func(g *Guard) {
			guard = g
			done(true)
		})
	}, func() {
		m.CancelLock(id)
	})
	if err != nil {
		return nil, err
	}
	return guard, nil
}

// TryLockAsync completes immediately with whether the lock was free.
func (m *Mutex) TryLockAsync(cb func(ok bool, g *Guard)) {
	m.ser.Submit(func() {
		if m.locked {
			cb(false, nil)
			return
		}
		m.locked = true
		cb(true, &Guard{m: m})
	})
}

// CancelLock removes a still-pending waiter registered via
// LockCancellable, without invoking its callback.
func (m *Mutex) CancelLock(id uint64) {
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

// Unlock releases the lock. If waiters are queued, ownership transfers to
// the head of the FIFO (locked stays true); otherwise the lock becomes
// free. Unlocking an already-unlocked Mutex is a tolerated no-op, counted
// as Misuse and logged, per spec.md §7.
func (m *Mutex) Unlock() {
	m.ser.Submit(func() {
		if !m.locked {
			m.misuse.Add(1)
			if m.logger != nil && m.logger.IsEnabled() {
				m.logger.Log("mutex", nil, "unlock called on already-unlocked mutex")
			}
			return
		}
		if front := m.waiters.Front(); front != nil {
			w := front.Value.(*handler.Cancellable)
			m.waiters.Remove(front)
			if w.ID() != 0 {
				delete(m.waiterMap, w.ID())
			}
			w.Fire()
			return
		}
		m.locked = false
	})
}

// MisuseCount returns the number of double-unlock calls observed so far.
func (m *Mutex) MisuseCount() uint64 { return m.misuse.Load() }

// Stats is a best-effort, point-in-time snapshot.
type Stats struct {
	Locked  bool
	Waiters int
}

// StatsAsync reports a snapshot of the mutex's state.
func (m *Mutex) StatsAsync(cb func(Stats)) {
	m.ser.Submit(func() {
		cb(Stats{Locked: m.locked, Waiters: m.waiters.Len()})
	})
}
