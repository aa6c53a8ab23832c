package mutex_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/mutex"
)

func TestMutex_LockUnlockRoundTrip(t *testing.T) {
	loop := executor.New()
	m := mutex.New(loop)
	defer m.Close()

	locked := make(chan *mutex.Guard, 1)
	m.Lock(func(g *mutex.Guard) { locked <- g })

	var g *mutex.Guard
	select {
	case g = <-locked:
	case <-time.After(time.Second):
		t.Fatal("lock did not complete")
	}
	require.NotNil(t, g)
	g.Unlock()
}

func TestMutex_SecondLockWaitsForUnlock(t *testing.T) {
	loop := executor.New()
	m := mutex.New(loop)
	defer m.Close()

	first := make(chan *mutex.Guard, 1)
	m.Lock(func(g *mutex.Guard) { first <- g })
	g1 := <-first

	second := make(chan *mutex.Guard, 1)
	m.Lock(func(g *mutex.Guard) { second <- g })

	select {
	case <-second:
		t.Fatal("second lock should not complete while first is held")
	case <-time.After(20 * time.Millisecond):
	}

	g1.Unlock()
	select {
	case g2 := <-second:
		require.NotNil(t, g2)
	case <-time.After(time.Second):
		t.Fatal("second lock did not complete after unlock")
	}
}

func TestMutex_DoubleUnlockIsMisuse(t *testing.T) {
	loop := executor.New()
	m := mutex.New(loop)
	defer m.Close()

	locked := make(chan *mutex.Guard, 1)
	m.Lock(func(g *mutex.Guard) { locked <- g })
	g := <-locked
	g.Unlock()
	g.Unlock()

	// give the second unlock's posted task a chance to run.
	done := make(chan struct{})
	m.StatsAsync(func(mutex.Stats) { close(done) })
	<-done

	require.Equal(t, uint64(1), m.MisuseCount())
}

func TestMutex_LockTimed_TimesOut(t *testing.T) {
	loop := executor.New()
	m := mutex.New(loop)
	defer m.Close()

	locked := make(chan *mutex.Guard, 1)
	m.Lock(func(g *mutex.Guard) { locked <- g })
	<-locked // held, never unlocked in this test

	result := make(chan bool, 1)
	m.LockTimed(20*time.Millisecond, loop, func(ok bool, g *mutex.Guard) {
		result <- ok
	})

	select {
	case ok := <-result:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("LockTimed did not complete")
	}
}

func TestMutex_TryLockAsync(t *testing.T) {
	loop := executor.New()
	m := mutex.New(loop)
	defer m.Close()

	result := make(chan bool, 1)
	m.TryLockAsync(func(ok bool, g *mutex.Guard) { result <- ok })
	require.True(t, <-result)

	result2 := make(chan bool, 1)
	m.TryLockAsync(func(ok bool, g *mutex.Guard) { result2 <- ok })
	require.False(t, <-result2)
}
