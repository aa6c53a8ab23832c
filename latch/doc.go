// Package latch implements a one-shot downward counter (spec.md §3/§4.7):
// CountDown decrements monotonically, and once it reaches zero every
// current and future Wait completes; the transition is one-way. Overshoot
// is clamped and observed via ErrorCount.
package latch
