// Package executor provides the scheduling contract every synchronization
// primitive in this module is built against — Executor, Serializer,
// SerializerFactory, Timer, TimerFactory — plus one concrete, minimal,
// goroutine-based implementation (Loop) so the module runs standalone.
//
// The contract intentionally mirrors the narrow slice of a real I/O
// reactor that the primitives actually consume: a place to post tasks, a
// per-primitive (or shared) at-most-one-task-at-a-time serializer, and a
// one-shot deadline timer. Everything else a production reactor needs —
// socket acceptors, FD polling, option tables — is out of scope.
package executor
