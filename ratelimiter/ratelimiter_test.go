package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-syncprim/executor"
)

func TestLimiter_AcquireGrantsImmediatelyWhenTokensAvailable(t *testing.T) {
	loop := executor.New()
	l := New(loop, loop, 10, time.Second, 10)
	defer l.Close()

	result := make(chan Outcome, 1)
	l.Acquire(3, func(o Outcome) { result <- o })
	require.Equal(t, Granted, <-result)

	stats := make(chan Stats, 1)
	l.StatsAsync(func(s Stats) { stats <- s })
	require.InDelta(t, 7, (<-stats).Tokens, 0.01)
}

func TestLimiter_AcquireQueuesWhenInsufficientThenRefills(t *testing.T) {
	loop := executor.New()
	// 100 tok/s, capacity 1: the initial full bucket covers exactly one
	// cost-1 acquire, and the second must wait ~10ms for a fresh token.
	l := New(loop, loop, 100, time.Second, 1)
	defer l.Close()

	first := make(chan Outcome, 1)
	l.Acquire(1, func(o Outcome) { first <- o })
	require.Equal(t, Granted, <-first)

	second := make(chan Outcome, 1)
	l.AcquireTimed(1, 2*time.Second, loop, func(o Outcome) { second <- o })

	select {
	case o := <-second:
		require.Equal(t, Granted, o)
	case <-time.After(2 * time.Second):
		t.Fatal("acquire did not grant after refill")
	}
}

func TestLimiter_TryAcquire(t *testing.T) {
	loop := executor.New()
	l := New(loop, loop, 5, time.Second, 5)
	defer l.Close()

	ok1 := make(chan bool, 1)
	l.TryAcquire(5, func(ok bool) { ok1 <- ok })
	require.True(t, <-ok1)

	ok2 := make(chan bool, 1)
	l.TryAcquire(1, func(ok bool) { ok2 <- ok })
	require.False(t, <-ok2)
}

func TestLimiter_StopCompletesQueuedWaitersWithStoppedOutcome(t *testing.T) {
	loop := executor.New()
	l := New(loop, loop, 1, time.Hour, 1)
	defer l.Close()

	drained := make(chan Outcome, 1)
	l.TryAcquire(1, func(bool) {})
	l.Acquire(1, func(o Outcome) { drained <- o })

	l.Stop()
	select {
	case o := <-drained:
		require.Equal(t, StoppedOutcome, o)
	case <-time.After(time.Second):
		t.Fatal("stop did not drain queued waiter")
	}

	afterStop := make(chan Outcome, 1)
	l.Acquire(1, func(o Outcome) { afterStop <- o })
	require.Equal(t, StoppedOutcome, <-afterStop)
	require.Equal(t, uint64(1), l.MisuseCount())
}

func TestLimiter_Reset(t *testing.T) {
	loop := executor.New()
	l := New(loop, loop, 1, time.Hour, 1)
	defer l.Close()

	l.TryAcquire(1, func(bool) {})
	result := make(chan Outcome, 1)
	l.Acquire(1, func(o Outcome) { result <- o })

	select {
	case <-result:
		t.Fatal("acquire should not have granted yet")
	case <-time.After(20 * time.Millisecond):
	}

	l.Reset()
	select {
	case o := <-result:
		require.Equal(t, Granted, o)
	case <-time.After(time.Second):
		t.Fatal("reset did not grant queued waiter")
	}
}

func TestLimiter_ConstructionPreconditions(t *testing.T) {
	loop := executor.New()
	require.Panics(t, func() { New(loop, loop, 0, time.Second, 1) })
	require.Panics(t, func() { New(loop, loop, 1, 0, 1) })
	require.Panics(t, func() { New(loop, loop, 1, time.Second, 0) })
	require.Panics(t, func() { New(loop, loop, 5, time.Second, 1) })
}
