package handler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-syncprim/handler"
)

func TestCancellable_FireInvokesOnce(t *testing.T) {
	var calls int
	c := handler.NewCancellable(1, func() { calls++ })
	require.Equal(t, uint64(1), c.ID())
	c.Fire()
	c.Fire()
	require.Equal(t, 1, calls)
}

func TestCancellable_CancelPreventsFire(t *testing.T) {
	var calls int
	c := handler.NewCancellable(2, func() { calls++ })
	c.Cancel()
	c.Fire()
	require.Equal(t, 0, calls)
}

func TestCancellable_NonCancellableIDIsZero(t *testing.T) {
	c := handler.NewCancellable(0, func() {})
	require.Equal(t, uint64(0), c.ID())
}
