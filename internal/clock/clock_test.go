package clock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sonica-nb/enb/internal/tables"
)

// TestAddWrapsSFNAndHFN exercises spec.md §4.I's wrap arithmetic: adding
// past SFN 1023 rolls HFN forward, and adding past the end of the full
// HFN cycle wraps HFN back to 0.
func TestAddWrapsSFNAndHFN(t *testing.T) {
	t1 := TTI{HFN: 0, SFN: 1023, SfIdx: 9}
	next := t1.Add(1)
	require.Equal(t, TTI{HFN: 1, SFN: 0, SfIdx: 0}, next)
}

// TestRawRoundTripsWithinOneHyperframe asserts Raw() is a bijection over
// one hyperframe's worth of (SFN, SfIdx) pairs ignoring HFN.
func TestRawRoundTripsWithinOneHyperframe(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sfn := rapid.IntRange(0, tables.SystemFrameMax-1).Draw(rt, "sfn")
		sfIdx := rapid.IntRange(0, tables.SubframesPerSF-1).Draw(rt, "sfIdx")
		tti := TTI{SFN: sfn, SfIdx: sfIdx}
		require.Equal(t, sfn*tables.SubframesPerSF+sfIdx, tti.Raw())
	})
}

// TestSubMatchesRepeatedAdd is TESTABLE PROPERTY 1 (TTI monotonicity): the
// number of subframes Sub reports between a and b must equal the number
// of single-subframe Add steps that get from a to b.
func TestSubMatchesRepeatedAdd(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := TTI{
			HFN:   rapid.IntRange(0, tables.HyperFrameMax-1).Draw(rt, "hfn"),
			SFN:   rapid.IntRange(0, tables.SystemFrameMax-1).Draw(rt, "sfn"),
			SfIdx: rapid.IntRange(0, tables.SubframesPerSF-1).Draw(rt, "sfIdx"),
		}
		n := rapid.IntRange(1, 2000).Draw(rt, "n")
		b := a.Add(n)
		require.Equal(t, n, Sub(a, b))
	})
}

// TestSemaphoreReleasesInTicketOrder is property 7's concurrency
// counterpart for transmission ordering: N goroutines reserve tickets in
// order, then Wait in a scrambled goroutine schedule; the release order
// observed must still match ticket order.
func TestSemaphoreReleasesInTicketOrder(t *testing.T) {
	sem := NewSemaphore()
	const n = 50

	tickets := make([]int64, n)
	for i := range tickets {
		tickets[i] = sem.Reserve()
	}

	var mu sync.Mutex
	var order []int64
	var wg sync.WaitGroup
	wg.Add(n)

	// Launch in reverse order to maximize scheduling scramble.
	for i := n - 1; i >= 0; i-- {
		go func(ticket int64) {
			defer wg.Done()
			sem.Wait(ticket)
			mu.Lock()
			order = append(order, ticket)
			mu.Unlock()
		}(tickets[i])
	}
	wg.Wait()

	require.Equal(t, tickets, order)
}

// TestSemaphoreCloseReleasesAllWaiters ensures Close unblocks every
// pending Wait call (used on cooperative shutdown).
func TestSemaphoreCloseReleasesAllWaiters(t *testing.T) {
	sem := NewSemaphore()
	t1 := sem.Reserve()
	t2 := sem.Reserve()
	_ = t1

	done := make(chan struct{})
	go func() {
		sem.Wait(t2) // would otherwise block forever: t1 never arrives
		close(done)
	}()

	sem.Close()
	<-done
}
