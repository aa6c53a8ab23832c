package waitgroup_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/waitgroup"
)

func TestWaitGroup_WaitCompletesWhenCountReachesZero(t *testing.T) {
	loop := executor.New()
	wg := waitgroup.New(loop, 0)
	defer wg.Close()

	wg.Add(3)

	done := make(chan struct{})
	wg.Wait(func() { close(done) })

	wg.Done()
	wg.Done()
	select {
	case <-done:
		t.Fatal("wait completed before count reached zero")
	case <-time.After(20 * time.Millisecond):
	}

	wg.Done()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait did not complete at zero")
	}
}

func TestWaitGroup_WaitOnAlreadyZeroCompletesImmediately(t *testing.T) {
	loop := executor.New()
	wg := waitgroup.New(loop, 0)
	defer wg.Close()

	done := make(chan struct{})
	wg.Wait(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait on zero count did not complete immediately")
	}
}

func TestWaitGroup_UnderflowClampsAtZeroAndCounts(t *testing.T) {
	loop := executor.New()
	wg := waitgroup.New(loop, 0)
	defer wg.Close()

	wg.Add(-1)

	// give the posted Add task a chance to run before asserting.
	done := make(chan struct{})
	wg.Wait(func() { close(done) })
	<-done

	require.Equal(t, int64(0), wg.Count())
	require.Equal(t, uint64(1), wg.UnderflowCount())
}

func TestWaitGroup_NegativeInitialCountPanics(t *testing.T) {
	loop := executor.New()
	require.Panics(t, func() { waitgroup.New(loop, -1) })
}
