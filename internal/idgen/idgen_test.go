package idgen_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-syncprim/internal/idgen"
)

func TestGenerator_StartsAtOne(t *testing.T) {
	var g idgen.Generator
	require.Equal(t, uint64(1), g.Next())
	require.Equal(t, uint64(2), g.Next())
	require.Equal(t, uint64(0), idgen.NonCancellable)
}

func TestGenerator_ConcurrentUniqueIDs(t *testing.T) {
	var g idgen.Generator
	const n = 2000
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			ids <- g.Next()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool, n)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	require.Len(t, seen, n)
}
