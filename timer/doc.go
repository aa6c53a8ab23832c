// Package timer implements the periodic and one-shot wake sources of
// spec.md §3/§4.10. Periodic rearms a deadline each time Next is called,
// honoring Pause/Resume/Stop/SetPeriod; OneShot is a thin adapter over the
// runtime's deadline timer for callers that only need a single fire.
package timer
