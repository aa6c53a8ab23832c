package event_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-syncprim/event"
	"github.com/joeycumines/go-syncprim/executor"
)

func TestAuto_NotifyWakesExactlyOneWaiter(t *testing.T) {
	loop := executor.New()
	a := event.NewAuto(loop, 0)
	defer a.Close()

	woken := make(chan int, 2)
	a.Wait(func() { woken <- 0 })
	a.Wait(func() { woken <- 1 })

	a.Notify()

	select {
	case v := <-woken:
		require.Equal(t, 0, v)
	case <-time.After(time.Second):
		t.Fatal("first waiter was not woken")
	}
	select {
	case <-woken:
		t.Fatal("second waiter should still be pending")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestAuto_NotifyWithNoWaitersAccumulatesSignal(t *testing.T) {
	loop := executor.New()
	a := event.NewAuto(loop, 0)
	defer a.Close()

	a.Notify()

	done := make(chan struct{})
	a.Wait(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("accumulated signal was not consumed by later Wait")
	}
}

func TestAuto_TryWait(t *testing.T) {
	loop := executor.New()
	a := event.NewAuto(loop, 1)
	defer a.Close()

	ok1 := make(chan bool, 1)
	a.TryWait(func(ok bool) { ok1 <- ok })
	require.True(t, <-ok1)

	ok2 := make(chan bool, 1)
	a.TryWait(func(ok bool) { ok2 <- ok })
	require.False(t, <-ok2)
}

func TestAuto_NotifyN_WakesUpToNFIFO(t *testing.T) {
	loop := executor.New()
	a := event.NewAuto(loop, 0)
	defer a.Close()

	order := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		a.Wait(func() { order <- i })
	}
	a.NotifyN(2)

	for i := 0; i < 2; i++ {
		select {
		case v := <-order:
			require.Equal(t, i, v)
		case <-time.After(time.Second):
			t.Fatal("NotifyN did not wake enough waiters")
		}
	}
	select {
	case <-order:
		t.Fatal("third waiter should still be pending")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestAuto_NegativeInitialSignalsPanics(t *testing.T) {
	loop := executor.New()
	require.Panics(t, func() { event.NewAuto(loop, -1) })
}
