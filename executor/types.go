// Package executor models the I/O runtime's scheduling primitives that the
// synchronization primitives in this module treat as opaque collaborators:
// a task executor, a serializer factory, and a one-shot deadline timer.
//
// A concrete, goroutine-based implementation is provided (see [New]) so the
// module is runnable standalone, but any other implementation of Executor
// and Serializer (e.g. one backed by a real I/O reactor) can be substituted.
package executor

import "time"

// Task is a unit of work posted to an Executor or Serializer.
type Task func()

// Executor runs posted tasks, possibly across multiple goroutines.
// Submit must be safe to call from any goroutine.
type Executor interface {
	// Submit schedules task to run asynchronously. It returns immediately.
	Submit(task Task)
}

// Serializer runs posted tasks one at a time, in the order they were
// posted, but not necessarily on the same goroutine from call to call.
// It is the "cooperative serializer" every primitive routes its state
// mutations through.
type Serializer interface {
	Executor

	// Close stops accepting new tasks and releases resources owned by the
	// serializer. Tasks already posted are still run before Close returns
	// control to any pending drain; tasks posted after Close is called are
	// silently dropped, mirroring the queue's own stop-drops-future-pushes
	// convention.
	Close()
}

// SerializerFactory creates a new, independent Serializer.
type SerializerFactory interface {
	NewSerializer() Serializer
}

// Timer is a one-shot deadline. Stop is idempotent and safe to call after
// the timer has already fired.
type Timer interface {
	// Stop cancels the timer. It returns true if the cancellation stopped
	// the timer before it fired.
	Stop() bool
}

// TimerFactory schedules one-shot deadlines.
type TimerFactory interface {
	// AfterFunc arms a Timer that runs fn on the factory's Executor after
	// d elapses.
	AfterFunc(d time.Duration, fn Task) Timer
}
