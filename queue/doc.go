// Package queue implements the bounded-by-nothing, FIFO async queue of
// spec.md §3/§4.12: a deque guarded by an embedded semaphore sharing the
// queue's own serializer, so the semaphore's completion callback can pop
// the deque without an extra post. Grounded on semaphore.NewShared, which
// exists specifically to support this composition (spec.md §9, "async
// primitives composing with each other").
package queue
