package dispatcher

import (
	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/internal/idgen"
	"github.com/joeycumines/go-syncprim/queue"
)

// Dispatcher is a pub-sub fan-out point: each Subscribe call hands back a
// fresh queue.Queue that receives a copy of every item Published after the
// subscription's insertion task has run (spec.md §4.13). Messages
// published before that insertion task runs are not delivered to it — a
// documented ordering gap, not a bug.
type Dispatcher[T any] struct {
	ser    executor.Serializer
	ownSer bool
	ids    idgen.Generator
	subs   map[uint64]*queue.Queue[T]
}

// New creates a Dispatcher with its own freshly created serializer.
func New[T any](factory executor.SerializerFactory) *Dispatcher[T] {
	return newDispatcher[T](factory.NewSerializer(), true)
}

// NewShared creates a Dispatcher bound to an existing, shared serializer.
func NewShared[T any](ser executor.Serializer) *Dispatcher[T] {
	return newDispatcher[T](ser, false)
}

func newDispatcher[T any](ser executor.Serializer, owns bool) *Dispatcher[T] {
	return &Dispatcher[T]{
		ser:    ser,
		ownSer: owns,
		subs:   make(map[uint64]*queue.Queue[T]),
	}
}

// Close releases the dispatcher's own serializer, if it owns one.
func (d *Dispatcher[T]) Close() {
	if d.ownSer {
		d.ser.Close()
	}
}

// Subscribe creates a fresh queue sharing the dispatcher's serializer and
// returns it synchronously, while the insertion into the subscriber map
// happens as a posted task. Callers may begin reading the returned queue
// immediately; any Publish whose own task runs before the insertion task
// will not reach it.
func (d *Dispatcher[T]) Subscribe() (id uint64, q *queue.Queue[T]) {
	id = d.ids.Next()
	q = queue.NewShared[T](d.ser)
	d.ser.Submit(func() {
		d.subs[id] = q
	})
	return id, q
}

// Unsubscribe stops and removes the subscriber's queue. Stopping the queue
// (rather than merely forgetting it) drops any reader currently blocked on
// it without invoking its callback, and makes later pushes no-ops.
func (d *Dispatcher[T]) Unsubscribe(id uint64) {
	d.ser.Submit(func() {
		q, ok := d.subs[id]
		if !ok {
			return
		}
		delete(d.subs, id)
		q.Stop()
	})
}

// Publish iterates every current subscriber and calls Push on its queue.
// Because each subscriber's queue shares this dispatcher's serializer,
// every Push lands in FIFO order relative to other dispatcher operations,
// even though (like any Queue.Push) it runs as its own posted task rather
// than inline within Publish's. A subscriber whose queue has been stopped
// simply drops the item (queue.Push's own documented behavior).
func (d *Dispatcher[T]) Publish(item T) {
	d.ser.Submit(func() {
		for _, q := range d.subs {
			q.Push(item)
		}
	})
}

// PublishBatch is like Publish, but copy-pushes every item of items, in
// order, via a single PushBatch call per subscriber (so all of items lands
// in one subscriber's deque atomically, even though that landing is still
// its own posted task relative to PublishBatch's).
func (d *Dispatcher[T]) PublishBatch(items []T) {
	if len(items) == 0 {
		return
	}
	d.ser.Submit(func() {
		for _, q := range d.subs {
			q.PushBatch(items)
		}
	})
}

// Clear stops every subscriber's queue and removes all subscriptions.
func (d *Dispatcher[T]) Clear() {
	d.ser.Submit(func() {
		for id, q := range d.subs {
			q.Stop()
			delete(d.subs, id)
		}
	})
}

// SubscriberCount reports the number of active subscriptions, as of the
// posted task's execution (so it reflects any Subscribe/Unsubscribe calls
// already queued ahead of it).
func (d *Dispatcher[T]) SubscriberCount(cb func(int)) {
	d.ser.Submit(func() {
		cb(len(d.subs))
	})
}

// Stats is a best-effort, point-in-time snapshot.
type Stats struct {
	Subscribers int
	// QueueDepths maps subscriber id to that subscriber's current queue
	// length, per spec.md §4.13's subscriber_count query generalized to
	// full diagnostics.
	QueueDepths map[uint64]int
}

// StatsAsync reports a snapshot of the dispatcher's state, including each
// subscriber's current queue depth.
func (d *Dispatcher[T]) StatsAsync(cb func(Stats)) {
	d.ser.Submit(func() {
		depths := make(map[uint64]int, len(d.subs))
		for id, q := range d.subs {
			depths[id] = q.SyncDepth()
		}
		cb(Stats{Subscribers: len(d.subs), QueueDepths: depths})
	})
}
