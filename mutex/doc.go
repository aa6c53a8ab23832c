// Package mutex implements a binary exclusion lock as a semaphore of
// capacity one, with ownership transfer on unlock, a scoped Guard, and a
// timed Lock variant. Grounded on spec.md §3 ("Mutex") and §4.4.
package mutex
