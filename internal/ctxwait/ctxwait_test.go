package ctxwait_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-syncprim/internal/ctxwait"
)

func TestWait_SuccessBeforeCancel(t *testing.T) {
	var cancelled bool
	err := ctxwait.Wait(context.Background(), func(done func(ok bool)) {
		go done(true)
	}, func() {
		cancelled = true
	})
	require.NoError(t, err)
	require.False(t, cancelled)
}

func TestWait_ContextCancelledFirst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var cancelledOp bool
	done := make(chan struct{})
	go func() {
		err := ctxwait.Wait(ctx, func(resolve func(ok bool)) {
			// never resolves on its own; the test cancels ctx instead.
			_ = resolve
		}, func() {
			cancelledOp = true
		})
		require.ErrorIs(t, err, context.Canceled)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after ctx cancel")
	}
	require.True(t, cancelledOp)
}

func TestWait_OperationReportsUnsuccessful(t *testing.T) {
	err := ctxwait.Wait(context.Background(), func(done func(ok bool)) {
		go done(false)
	}, func() {})
	require.Error(t, err)
}

func TestWait_NilContextDefaultsToBackground(t *testing.T) {
	err := ctxwait.Wait(nil, func(done func(ok bool)) {
		go done(true)
	}, func() {})
	require.NoError(t, err)
}
