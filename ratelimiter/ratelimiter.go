package ratelimiter

import (
	"container/list"
	"context"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/internal/ctxwait"
	"github.com/joeycumines/go-syncprim/internal/idgen"
	"github.com/joeycumines/go-syncprim/internal/race"
)

// Outcome is the closed set of ways an Acquire call can complete.
type Outcome int

const (
	// Granted means cost tokens were deducted and the caller may proceed.
	Granted Outcome = iota
	// Denied names the refusal TryAcquire reports as ok=false; no callback
	// receives this value, and Acquire never refuses (it waits instead).
	Denied
	// Cancelled marks a waiter removed via Cancel before it was granted.
	Cancelled
	// TimedOut marks a timed wait that elapsed before grant.
	TimedOut
	// StoppedOutcome marks a waiter completed because Stop was called,
	// distinct from an individually Cancelled waiter (spec.md §9 open
	// question: the limiter surfaces a distinct terminal outcome rather
	// than silently dropping queued waiters).
	StoppedOutcome
)

func (o Outcome) String() string {
	switch o {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed out"
	case StoppedOutcome:
		return "stopped"
	default:
		return "unknown"
	}
}

type waiter struct {
	id uint64
	// cost is the number of tokens this waiter needs; it may be fractional
	// and is not validated by Acquire.
	cost float64
	cb   func(Outcome)
}

// Limiter is a token-bucket rate limiter: tokens refill continuously at
// rate tokens per period up to capacity, and waiters of varying cost are
// granted strictly FIFO as soon as enough tokens have accumulated for the
// one at the head of the queue (spec.md §3/§4.11).
type Limiter struct {
	ser    executor.Serializer
	ownSer bool
	ids    idgen.Generator
	logger executor.Logger
	now    func() time.Time

	tf       executor.TimerFactory
	rate     float64
	period   time.Duration
	capacity float64

	tokens     float64
	lastRefill time.Time

	waiters   *list.List
	waiterMap map[uint64]*list.Element
	deadline  executor.Timer

	stopped bool
	misuse  atomic.Uint64
}

// New creates a Limiter with its own freshly created serializer, refilling
// at rate tokens every period up to capacity. It panics if rate, period,
// or capacity is non-positive, or if capacity is less than rate (a bucket
// that can never hold one full period's worth of refill is not a useful
// token bucket).
func New(factory executor.SerializerFactory, tf executor.TimerFactory, rate float64, period time.Duration, capacity float64) *Limiter {
	return newLimiter(factory.NewSerializer(), true, tf, rate, period, capacity)
}

// NewShared creates a Limiter bound to an existing, shared serializer.
func NewShared(ser executor.Serializer, tf executor.TimerFactory, rate float64, period time.Duration, capacity float64) *Limiter {
	return newLimiter(ser, false, tf, rate, period, capacity)
}

func newLimiter(ser executor.Serializer, owns bool, tf executor.TimerFactory, rate float64, period time.Duration, capacity float64) *Limiter {
	if rate <= 0 {
		panic(executor.NewError(executor.KindInvalidArgument, "ratelimiter: rate must be positive"))
	}
	if period <= 0 {
		panic(executor.NewError(executor.KindInvalidArgument, "ratelimiter: period must be positive"))
	}
	if capacity <= 0 {
		panic(executor.NewError(executor.KindInvalidArgument, "ratelimiter: capacity must be positive"))
	}
	if capacity < rate {
		panic(executor.NewError(executor.KindInvalidArgument, "ratelimiter: capacity must be >= rate"))
	}
	return &Limiter{
		ser:        ser,
		ownSer:     owns,
		logger:     executor.GetLogger(),
		now:        time.Now,
		tf:         tf,
		rate:       rate,
		period:     period,
		capacity:   capacity,
		tokens:     capacity,
		lastRefill: time.Now(),
		waiters:    list.New(),
		waiterMap:  make(map[uint64]*list.Element),
	}
}

// Close releases the limiter's own serializer, if it owns one.
func (l *Limiter) Close() {
	if l.ownSer {
		l.ser.Close()
	}
}

// refill must be called from within a serializer task. It advances
// lastRefill to now and credits tokens proportional to elapsed time,
// capped at capacity.
func (l *Limiter) refill() {
	n := l.now()
	elapsed := n.Sub(l.lastRefill)
	if elapsed > 0 {
		l.tokens += elapsed.Seconds() / l.period.Seconds() * l.rate
		if l.tokens > l.capacity {
			l.tokens = l.capacity
		}
	}
	l.lastRefill = n
}

// scheduleDeadline arms (or re-arms) the single refill timer so it fires
// no later than the moment tokens will cover the head waiter's cost. It is
// a no-op if a deadline is already armed or there are no waiters.
func (l *Limiter) scheduleDeadline() {
	if l.deadline != nil {
		return
	}
	front := l.waiters.Front()
	if front == nil {
		return
	}
	head := front.Value.(*waiter)
	needed := head.cost - l.tokens
	if needed <= 0 {
		needed = 0
	}
	wait := time.Duration(needed / l.rate * float64(l.period))
	if wait < 0 {
		wait = 0
	}
	l.deadline = l.tf.AfterFunc(wait, func() {
		l.ser.Submit(l.onDeadline)
	})
}

// onDeadline runs inside a serializer task: it refills, grants as many
// head waiters as now fit in strict FIFO order, and reschedules if any
// remain.
func (l *Limiter) onDeadline() {
	l.deadline = nil
	if l.stopped {
		return
	}
	l.refill()
	l.grantReady()
	l.scheduleDeadline()
}

// grantReady pops and completes waiters from the front of the queue for as
// long as the head's cost fits in the current token balance.
func (l *Limiter) grantReady() {
	for {
		front := l.waiters.Front()
		if front == nil {
			return
		}
		w := front.Value.(*waiter)
		if l.tokens < w.cost {
			return
		}
		l.tokens -= w.cost
		l.waiters.Remove(front)
		if w.id != 0 {
			delete(l.waiterMap, w.id)
		}
		w.cb(Granted)
	}
}

// Acquire waits for cost tokens to become available, then invokes cb with
// Granted. If the limiter has been stopped, cb is invoked immediately with
// StoppedOutcome. Acquiring from an already-stopped limiter is counted as
// misuse.
func (l *Limiter) Acquire(cost float64, cb func(Outcome)) {
	l.AcquireCancellable(cost, cb)
}

// AcquireCancellable is like Acquire, returning a waiter id usable with
// Cancel.
func (l *Limiter) AcquireCancellable(cost float64, cb func(Outcome)) uint64 {
	id := l.ids.Next()
	l.ser.Submit(func() {
		if l.stopped {
			l.misuse.Add(1)
			if l.logger != nil && l.logger.IsEnabled() {
				l.logger.Log("ratelimiter", nil, "acquire called on stopped rate limiter")
			}
			cb(StoppedOutcome)
			return
		}
		l.refill()
		if l.waiters.Len() == 0 && l.tokens >= cost {
			l.tokens -= cost
			cb(Granted)
			return
		}
		elem := l.waiters.PushBack(&waiter{id: id, cost: cost, cb: cb})
		l.waiterMap[id] = elem
		l.scheduleDeadline()
	})
	return id
}

// AcquireTimed races Acquire against timeout.
func (l *Limiter) AcquireTimed(cost float64, timeout time.Duration, tf executor.TimerFactory, cb func(Outcome)) {
	var gate race.Gate
	var id uint64
	var timer executor.Timer

	id = l.AcquireCancellable(cost, func(outcome Outcome) {
		if gate.WinInner() {
			if timer != nil {
				timer.Stop()
			}
			cb(outcome)
		}
	})
	timer = tf.AfterFunc(timeout, func() {
		if gate.WinTimer() {
			l.Cancel(id)
			cb(TimedOut)
		}
	})
}

// AcquireCtx blocks until ctx is done or cost tokens are granted.
func (l *Limiter) AcquireCtx(ctx context.Context, cost float64) error {
	var id uint64
	var outcome Outcome
	err := ctxwait.Wait(ctx, func(done func(ok bool)) {
		id = l.AcquireCancellable(cost, func(o Outcome) {
			outcome = o
			done(o == Granted)
		})
	}, func() {
		l.Cancel(id)
	})
	if err != nil {
		return err
	}
	if outcome != Granted {
		return executor.NewError(executor.KindStopped, "ratelimiter: stopped while waiting")
	}
	return nil
}

// TryAcquire completes immediately: ok is true and cost tokens are
// deducted if (after a lazy refill) the balance covers cost and no older
// waiter is already queued; otherwise ok is false and no tokens move.
func (l *Limiter) TryAcquire(cost float64, cb func(ok bool)) {
	l.ser.Submit(func() {
		if l.stopped {
			l.misuse.Add(1)
			cb(false)
			return
		}
		l.refill()
		if l.waiters.Len() == 0 && l.tokens >= cost {
			l.tokens -= cost
			cb(true)
			return
		}
		cb(false)
	})
}

// Cancel removes a still-pending waiter registered via
// AcquireCancellable, without invoking its callback.
func (l *Limiter) Cancel(id uint64) {
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

// Stop halts refilling, cancels any armed deadline, and completes every
// queued waiter with StoppedOutcome. Further Acquire calls also complete
// with StoppedOutcome, and TryAcquire calls with ok=false (both increment
// the misuse counter), rather than blocking forever.
func (l *Limiter) Stop() {
	l.ser.Submit(func() {
		if l.stopped {
			return
		}
		l.stopped = true
		if l.deadline != nil {
			l.deadline.Stop()
			l.deadline = nil
		}
		for {
			front := l.waiters.Front()
			if front == nil {
				break
			}
			w := front.Value.(*waiter)
			l.waiters.Remove(front)
			if w.id != 0 {
				delete(l.waiterMap, w.id)
			}
			w.cb(StoppedOutcome)
		}
	})
}

// Reset replenishes the bucket to full capacity and grants as many queued
// waiters as that affords, FIFO. It does not clear the stopped flag.
func (l *Limiter) Reset() {
	l.ser.Submit(func() {
		if l.stopped {
			return
		}
		l.tokens = l.capacity
		l.lastRefill = l.now()
		l.grantReady()
		l.scheduleDeadline()
	})
}

// MisuseCount returns the number of Acquire/TryAcquire calls observed
// against an already-stopped limiter.
func (l *Limiter) MisuseCount() uint64 { return l.misuse.Load() }

// Stats is a best-effort, point-in-time snapshot.
type Stats struct {
	Tokens   float64
	Capacity float64
	Waiters  int
	Stopped  bool
}

// StatsAsync reports a snapshot of the limiter's state, after a lazy
// refill.
func (l *Limiter) StatsAsync(cb func(Stats)) {
	l.ser.Submit(func() {
		if !l.stopped {
			l.refill()
		}
		cb(Stats{Tokens: l.tokens, Capacity: l.capacity, Waiters: l.waiters.Len(), Stopped: l.stopped})
	})
}
