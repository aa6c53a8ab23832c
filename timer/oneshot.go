package timer

import (
	"context"
	"time"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/handler"
	"github.com/joeycumines/go-syncprim/internal/race"
)

// OneShot is a thin adapter over the runtime's one-shot deadline timer,
// for callers that need a single fire rather than a recurring wake
// source.
type OneShot struct {
	tf executor.TimerFactory
}

// NewOneShot wraps tf.
func NewOneShot(tf executor.TimerFactory) *OneShot { return &OneShot{tf: tf} }

// After arms a deadline for d and invokes cb when it fires.
func (o *OneShot) After(d time.Duration, cb handler.Func) executor.Timer {
	return o.tf.AfterFunc(d, cb)
}

// AfterCtx blocks until either ctx is done or d elapses, whichever comes
// first, using the same race arbitration as the rest of this module.
func (o *OneShot) AfterCtx(ctx context.Context, d time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var gate race.Gate
	fired := make(chan struct{})
	t := o.tf.AfterFunc(d, func() {
		if gate.WinInner() {
			close(fired)
		}
	})
	select {
	case <-fired:
		return nil
	case <-ctx.Done():
		if gate.WinTimer() {
			t.Stop()
			return ctx.Err()
		}
		<-fired
		return nil
	}
}
