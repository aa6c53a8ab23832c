// Package semaphore implements a counting semaphore with cancellable
// waiters and a batch-try acquire, the foundation queue.Queue composes on
// top of.
//
// Grounded on: spec.md §3 ("Semaphore" invariants) and §4.3 for the
// operation list; the id-starts-at-1 convention is grounded on
// eventloop/registry.go's newRegistry. All state mutation happens inside
// the bound executor.Serializer, per spec.md §3's blanket invariant.
package semaphore
