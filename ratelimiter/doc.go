// Package ratelimiter implements a token-bucket limiter with burst
// capacity and variable-cost requests (spec.md §3/§4.11). Tokens refill
// lazily, proportionally to elapsed time, capped at capacity; waiters are
// granted strictly FIFO, and a single internal refill deadline is
// (re)armed only as far out as the head waiter's cost requires.
//
// Style grounded on catrate (package-doc register, panic-on-invalid-
// construction convention, and an overridable now func for deterministic
// tests); the token-bucket algorithm itself has no teacher analogue —
// catrate implements sliding-window limiting, a different algorithm
// family — since spec.md §4.11 requires token-bucket specifically.
package ratelimiter
