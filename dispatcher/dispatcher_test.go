package dispatcher_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-syncprim/dispatcher"
	"github.com/joeycumines/go-syncprim/executor"
)

func TestDispatcher_PublishFansOutToAllSubscribers(t *testing.T) {
	loop := executor.New()
	d := dispatcher.New[string](loop)
	defer d.Close()

	_, q1 := d.Subscribe()
	_, q2 := d.Subscribe()

	// let both insertion tasks settle before publishing.
	countDone := make(chan int, 1)
	d.SubscriberCount(func(n int) { countDone <- n })
	require.Equal(t, 2, <-countDone)

	d.Publish("hello")

	got1 := make(chan string, 1)
	q1.Read(func(item string, ok bool) { got1 <- item })
	got2 := make(chan string, 1)
	q2.Read(func(item string, ok bool) { got2 <- item })

	select {
	case v := <-got1:
		require.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("subscriber 1 did not receive the published item")
	}
	select {
	case v := <-got2:
		require.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("subscriber 2 did not receive the published item")
	}
}

func TestDispatcher_UnsubscribeStopsQueue(t *testing.T) {
	loop := executor.New()
	d := dispatcher.New[int](loop)
	defer d.Close()

	id, q := d.Subscribe()
	d.Unsubscribe(id)

	var fired bool
	q.Read(func(item int, ok bool) { fired = true })

	d.Publish(1)
	time.Sleep(20 * time.Millisecond)
	require.False(t, fired)
}

func TestDispatcher_ClearRemovesAllSubscribers(t *testing.T) {
	loop := executor.New()
	d := dispatcher.New[int](loop)
	defer d.Close()

	d.Subscribe()
	d.Subscribe()
	d.Clear()

	got := make(chan int, 1)
	d.SubscriberCount(func(n int) { got <- n })
	require.Equal(t, 0, <-got)
}

func TestDispatcher_StatsReportsPerSubscriberDepth(t *testing.T) {
	loop := executor.New()
	d := dispatcher.New[int](loop)
	defer d.Close()

	id, q := d.Subscribe()
	settled := make(chan int, 1)
	d.SubscriberCount(func(n int) { settled <- n })
	<-settled

	// PushBatch appends every item and releases all its permits in one
	// posted task, so once a single Read confirms an item landed, the
	// other two are already in the deque too.
	d.PublishBatch([]int{1, 2, 3})

	readDone := make(chan struct{})
	q.Read(func(item int, ok bool) { close(readDone) })
	select {
	case <-readDone:
	case <-time.After(time.Second):
		t.Fatal("read after publish did not complete")
	}

	got := make(chan dispatcher.Stats, 1)
	d.StatsAsync(func(s dispatcher.Stats) { got <- s })
	s := <-got
	require.Equal(t, 1, s.Subscribers)
	require.Equal(t, 2, s.QueueDepths[id])
}

func TestDispatcher_PublishBatch(t *testing.T) {
	loop := executor.New()
	d := dispatcher.New[int](loop)
	defer d.Close()

	_, q := d.Subscribe()
	settled := make(chan int, 1)
	d.SubscriberCount(func(n int) { settled <- n })
	<-settled

	d.PublishBatch([]int{1, 2, 3})

	for _, want := range []int{1, 2, 3} {
		got := make(chan int, 1)
		q.Read(func(item int, ok bool) { got <- item })
		require.Equal(t, want, <-got)
	}
}
