// Package handler implements the type-erased, one-shot completion slots
// every primitive's waiter record carries (spec.md §4.1): a nullary
// completion and a unary-boolean completion (used by timed waits), plus a
// cancellable wrapper that turns invocation into a no-op once the waiter
// has been removed from its primitive's list.
//
// Grounded on eventloop/promise.go's erased resolve/reject callbacks
// (stored as plain closures, not generics) and on eventloop/registry.go's
// id+cursor approach to O(1) removal.
package handler

// Func is a nullary completion, used by semaphore/mutex/event/latch/
// wait-group/barrier waiters.
type Func func()

// BoolFunc is a unary-boolean completion, used by timed waits: true means
// the event happened, false means the wait timed out.
type BoolFunc func(ok bool)

// Cancellable wraps a Func with an id and a move-once guard: Fire either
// delivers the handler or is a no-op if Cancel already vacated the slot.
// It is the waiter record's completion half; the id+list-cursor half is
// owned by the primitive itself (see spec.md §3 "Waiter record").
type Cancellable struct {
	id uint64
	fn Func
}

// NewCancellable wraps fn with the given waiter id. id is 0 for a
// non-cancellable waiter (Cancel is then never meaningful, but remains
// safe to call — it will simply vacate the slot).
func NewCancellable(id uint64, fn Func) *Cancellable {
	return &Cancellable{id: id, fn: fn}
}

// ID returns the waiter id this handler was registered under.
func (c *Cancellable) ID() uint64 { return c.id }

// Fire delivers the wrapped handler exactly once. Calling Fire again, or
// calling it after Cancel, is a no-op.
func (c *Cancellable) Fire() {
	if c == nil || c.fn == nil {
		return
	}
	fn := c.fn
	c.fn = nil
	fn()
}

// Cancel vacates the slot without invoking the handler. The primitive
// calling Cancel is responsible for also removing the Cancellable from
// its waiter list/map; Cancel alone only prevents a subsequent Fire from
// running user code.
func (c *Cancellable) Cancel() {
	if c == nil {
		return
	}
	c.fn = nil
}
