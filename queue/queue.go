package queue

import (
	"container/list"
	"context"
	"time"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/internal/ctxwait"
	"github.com/joeycumines/go-syncprim/internal/race"
	"github.com/joeycumines/go-syncprim/semaphore"
)

// Queue is an unbounded FIFO channel of items of type T: Push appends and
// signals availability, Read (and its batch/timed variants) pop in
// arrival order. The item count available for Read is tracked by an
// embedded semaphore sharing this queue's own serializer (spec.md §4.12).
type Queue[T any] struct {
	ser     executor.Serializer
	ownSer  bool
	sem     *semaphore.Semaphore
	deque   *list.List
	stopped bool
}

// New creates a Queue with its own freshly created serializer.
func New[T any](factory executor.SerializerFactory) *Queue[T] {
	ser := factory.NewSerializer()
	return newQueue[T](ser, true)
}

// NewShared creates a Queue bound to an existing, shared serializer.
func NewShared[T any](ser executor.Serializer) *Queue[T] {
	return newQueue[T](ser, false)
}

func newQueue[T any](ser executor.Serializer, owns bool) *Queue[T] {
	return &Queue[T]{
		ser:    ser,
		ownSer: owns,
		sem:    semaphore.NewShared(ser, 0),
		deque:  list.New(),
	}
}

// Close releases the queue's own serializer, if it owns one. Any items
// still queued are dropped without further notice.
func (q *Queue[T]) Close() {
	if q.ownSer {
		q.ser.Close()
	}
}

// Push appends item to the back of the queue and wakes one waiting
// reader, if any. If the queue has been stopped the item is silently
// dropped.
func (q *Queue[T]) Push(item T) {
	q.ser.Submit(func() {
		if q.stopped {
			return
		}
		q.deque.PushBack(item)
		q.sem.Release()
	})
}

// PushBatch appends every item of items to the back of the queue in order
// and wakes up to len(items) waiting readers, all within a single
// serializer task.
func (q *Queue[T]) PushBatch(items []T) {
	if len(items) == 0 {
		return
	}
	q.ser.Submit(func() {
		if q.stopped {
			return
		}
		for _, it := range items {
			q.deque.PushBack(it)
		}
		q.sem.ReleaseN(len(items))
	})
}

// Read pops the front item once one is available, delivering it to cb with
// ok=true. A reader still waiting when Stop runs is dropped without cb
// being invoked. A Read that obtains a permit after Stop (while residual
// items remain) is invoked with ok=false and the zero value; a Read issued
// after Stop on an empty queue is never completed.
func (q *Queue[T]) Read(cb func(item T, ok bool)) uint64 {
	return q.sem.AcquireCancellable(func() {
		if q.stopped || q.deque.Len() == 0 {
			var zero T
			cb(zero, false)
			return
		}
		front := q.deque.Front()
		q.deque.Remove(front)
		cb(front.Value.(T), true)
	})
}

// ReadBatch acquires at least one permit (blocking until available), then
// grants as many additional permits as immediately available up to max,
// delivering up to max items in FIFO order in a single callback. The
// slice is never empty when ok is true. A reader still waiting when Stop
// runs is dropped without cb being invoked; one that obtains its first
// permit after Stop gets a nil slice and ok=false.
func (q *Queue[T]) ReadBatch(max int, cb func(items []T, ok bool)) uint64 {
	if max < 1 {
		max = 1
	}
	return q.sem.AcquireCancellable(func() {
		if q.stopped {
			cb(nil, false)
			return
		}
		q.sem.TryAcquireN(max-1, func(extra int) {
			total := 1 + extra
			if q.deque.Len() < total {
				panic(executor.NewError(executor.KindMisuse, "queue: deque has fewer items than permits granted"))
			}
			items := make([]T, 0, total)
			for i := 0; i < total; i++ {
				front := q.deque.Front()
				q.deque.Remove(front)
				items = append(items, front.Value.(T))
			}
			cb(items, true)
		})
	})
}

// ReadCtx blocks until ctx is done or an item is available.
func (q *Queue[T]) ReadCtx(ctx context.Context) (item T, err error) {
	var id uint64
	err = ctxwait.Wait(ctx, func(done func(ok bool)) {
		id = q.Read(func(it T, ok bool) {
			if ok {
				item = it
			}
			done(ok)
		})
	}, func() {
		q.sem.Cancel(id)
	})
	return item, err
}

// ReadWithTimeout races Read against timeout, using the shared race
// pattern of spec.md §4.14. On timeout no item is consumed and ok is
// false.
func (q *Queue[T]) ReadWithTimeout(timeout time.Duration, tf executor.TimerFactory, cb func(item T, ok bool)) {
	var gate race.Gate
	var id uint64
	var timer executor.Timer

	id = q.Read(func(item T, ok bool) {
		if gate.WinInner() {
			if timer != nil {
				timer.Stop()
			}
			cb(item, ok)
		} else if ok {
			// the timer already won, but the item was popped before its
			// Cancel ran: put it back at the front so none is consumed.
			q.deque.PushFront(item)
			q.sem.Release()
		}
	})
	timer = tf.AfterFunc(timeout, func() {
		if gate.WinTimer() {
			q.sem.Cancel(id)
			var zero T
			cb(zero, false)
		}
	})
}

// ReadBatchWithTimeout races ReadBatch against timeout, with the same
// arbitration as ReadWithTimeout.
func (q *Queue[T]) ReadBatchWithTimeout(max int, timeout time.Duration, tf executor.TimerFactory, cb func(items []T, ok bool)) {
	var gate race.Gate
	var id uint64
	var timer executor.Timer

	id = q.ReadBatch(max, func(items []T, ok bool) {
		if gate.WinInner() {
			if timer != nil {
				timer.Stop()
			}
			cb(items, ok)
		} else if ok {
			// the timer already won: put the popped items back in order.
			for i := len(items) - 1; i >= 0; i-- {
				q.deque.PushFront(items[i])
			}
			q.sem.ReleaseN(len(items))
		}
	})
	timer = tf.AfterFunc(timeout, func() {
		if gate.WinTimer() {
			q.sem.Cancel(id)
			cb(nil, false)
		}
	})
}

// Stop marks the queue stopped and cancels every pending reader (without
// invoking their callbacks from here — spec.md §4.12 prescribes
// semaphore.cancel_all, which is silent). Queued items are left in place:
// clearing them would break the invariant that a grant always corresponds
// to a poppable item; residual items are freed when the queue is closed.
func (q *Queue[T]) Stop() {
	q.ser.Submit(func() {
		q.stopped = true
		q.sem.CancelAll()
	})
}

// Stats is a best-effort, point-in-time snapshot.
type Stats struct {
	Len     int
	Stopped bool
}

// StatsAsync reports a snapshot of the queue's state.
func (q *Queue[T]) StatsAsync(cb func(Stats)) {
	q.ser.Submit(func() {
		cb(Stats{Len: q.deque.Len(), Stopped: q.stopped})
	})
}

// SyncDepth reads the current item count without posting a task. It is
// only safe to call from code already running on this queue's own
// serializer goroutine — e.g. a dispatcher whose subscriber queues share
// its serializer via NewShared, building a multi-queue snapshot in one
// task. Calling it from any other goroutine is a data race.
func (q *Queue[T]) SyncDepth() int { return q.deque.Len() }
