// Package event implements the two event flavors of spec.md §3/§4.5-4.6:
// Manual, a broadcast signal that stays set until Reset, and Auto, a
// unicast signal that carries over a residual permit count. Both route
// state mutations through a bound executor.Serializer, following the same
// waiter-list discipline as package semaphore.
package event
