// Package barrier implements a cyclic N-party meeting point (spec.md
// §3/§4.9): ArriveAndWait blocks until num_participants calls have
// arrived, then releases every one of them together, resets arrived to
// zero, and increments generation. ArriveAndDrop lets a participant leave
// the party without waiting.
package barrier
