package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-syncprim/executor"
	"github.com/joeycumines/go-syncprim/timer"
)

func TestPeriodic_NextFiresAfterPeriod(t *testing.T) {
	loop := executor.New()
	p := timer.New(loop, loop, 20*time.Millisecond)
	defer p.Close()

	done := make(chan struct{})
	p.Next(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("periodic did not fire")
	}
}

func TestPeriodic_StopPreventsFire(t *testing.T) {
	loop := executor.New()
	p := timer.New(loop, loop, 20*time.Millisecond)
	defer p.Close()

	var fired bool
	p.Next(func() { fired = true })
	p.Stop()
	time.Sleep(50 * time.Millisecond)
	require.False(t, fired)
}

func TestPeriodic_PauseResume(t *testing.T) {
	loop := executor.New()
	p := timer.New(loop, loop, 20*time.Millisecond)
	defer p.Close()

	p.Pause()
	var fired bool
	p.Next(func() { fired = true })
	time.Sleep(50 * time.Millisecond)
	require.False(t, fired, "Next should not arm while paused")

	p.Resume()
	done := make(chan struct{})
	p.Next(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("periodic did not fire after resume")
	}
}

func TestPeriodic_StatsAsync(t *testing.T) {
	loop := executor.New()
	p := timer.New(loop, loop, 20*time.Millisecond)
	defer p.Close()

	got := make(chan timer.Stats, 1)
	p.StatsAsync(func(s timer.Stats) { got <- s })
	s := <-got
	require.True(t, s.Running)
	require.False(t, s.Paused)
	require.Equal(t, 20*time.Millisecond, s.Period)
}

func TestPeriodic_NonPositivePeriodPanics(t *testing.T) {
	loop := executor.New()
	require.Panics(t, func() { timer.New(loop, loop, 0) })
}
