package timer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/timer"
)

func TestOneShot_After(t *testing.T) {
	loop := executor.New()
	o := timer.NewOneShot(loop)

	done := make(chan struct{})
	o.After(20*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("one-shot did not fire")
	}
}

func TestOneShot_AfterCtx_FiresNormally(t *testing.T) {
	loop := executor.New()
	o := timer.NewOneShot(loop)

	err := o.AfterCtx(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
}

func TestOneShot_AfterCtx_CancelledFirst(t *testing.T) {
	loop := executor.New()
	o := timer.NewOneShot(loop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := o.AfterCtx(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}
