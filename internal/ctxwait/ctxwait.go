// Package ctxwait adapts the callback-based cancellable-waiter core every
// primitive exposes into a context.Context-aware blocking call, using the
// same timeout-race pattern (internal/race) a context cancellation would
// otherwise have to reimplement per call site.
package ctxwait

import (
	"context"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/internal/race"
)

// Wait blocks until either ctx is done or the registered operation
// completes. register must arrange for done(true) to be called on
// success, or done(false) if the operation itself reports a
// non-success outcome (e.g. it was cancelled out from under the
// caller); cancel must abort the still-pending operation if ctx wins
// the race.
//
// Returns nil on success, ctx.Err() if ctx fired first, or
// executor.Cancelled if the operation itself resolved unsuccessfully.
func Wait(ctx context.Context, register func(done func(ok bool)), cancel func()) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var gate race.Gate
	result := make(chan bool, 1)

	register(func(ok bool) {
		if gate.WinInner() {
			result <- ok
		}
	})

	select {
	case ok := <-result:
		if ok {
			return nil
		}
		return executor.Cancelled
	case <-ctx.Done():
		if gate.WinTimer() {
			cancel()
			return ctx.Err()
		}
		// the operation already won the race concurrently with ctx
		// firing; its result is in flight on result.
		if <-result {
			return nil
		}
		return executor.Cancelled
	}
}
