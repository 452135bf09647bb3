package mac

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestConcurrentAllocAtMostOneSuccess is TESTABLE PROPERTY 7: two
// concurrent Alloc calls targeting the same subframe return at most one
// success.
func TestConcurrentAllocAtMostOneSuccess(t *testing.T) {
	for trial := 0; trial < 200; trial++ {
		m := NewResourceMap()
		var wg sync.WaitGroup
		results := make([]bool, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = m.Alloc(42, false)
			}(i)
		}
		wg.Wait()
		successes := 0
		for _, ok := range results {
			if ok {
				successes++
			}
		}
		require.LessOrEqual(t, successes, 1)
	}
}

func TestBroadcastWinsTie(t *testing.T) {
	m := NewResourceMap()
	require.True(t, m.Alloc(10, false))
	require.True(t, m.Alloc(10, true))
	require.False(t, m.Alloc(10, false))
}

func TestFreeThenRealloc(t *testing.T) {
	m := NewResourceMap()
	require.True(t, m.Alloc(5, false))
	m.Free(5)
	require.True(t, m.Alloc(5, false))
}
