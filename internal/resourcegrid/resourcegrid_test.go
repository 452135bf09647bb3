package resourcegrid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonica-nb/enb/internal/clock"
	"github.com/sonica-nb/enb/internal/ofdm"
)

// TestIsValidDLDataSubframeExcludesBroadcastSubframes is TESTABLE
// PROPERTY 3's resource-grid half: sf_idx 0 (MIB), 5 (NPSS) and 9 on even
// SFN (NSSS) must never be offered to the scheduler as data-eligible.
func TestIsValidDLDataSubframeExcludesBroadcastSubframes(t *testing.T) {
	require.False(t, IsValidDLDataSubframe(clock.TTI{SFN: 4, SfIdx: 0}))
	require.False(t, IsValidDLDataSubframe(clock.TTI{SFN: 4, SfIdx: 5}))
	require.False(t, IsValidDLDataSubframe(clock.TTI{SFN: 4, SfIdx: 9}))
	require.True(t, IsValidDLDataSubframe(clock.TTI{SFN: 5, SfIdx: 9}), "NSSS only on even SFN")

	for _, idx := range []int{1, 2, 3, 4, 6, 7, 8} {
		require.True(t, IsValidDLDataSubframe(clock.TTI{SFN: 10, SfIdx: idx}))
	}
}

func TestAvailableDataRECountShrinksWithMorePorts(t *testing.T) {
	one := AvailableDataRECount(3, 1)
	two := AvailableDataRECount(3, 2)
	require.Equal(t, one-4, two, "a second NRS port adds one extra pilot RE across each of the 4 NRS symbol instances (2 slots x 2 pilot symbols)")
}

// TestPlaceNPDSCHNeverOverwritesNRS places a distinctive value across
// every RE and checks the NRS positions kept their pilot value rather
// than being clobbered by data placement, the ordering invariant
// spec.md §4.G's placement-priority list depends on.
func TestPlaceNPDSCHNeverOverwritesNRS(t *testing.T) {
	const cellID, nofPorts = 7, 2
	var g ofdm.Grid
	PlaceNRS(&g, cellID, nofPorts)

	nrsSnapshot := g

	avail := AvailableDataRECount(cellID, nofPorts)
	data := make([]complex128, avail)
	for i := range data {
		data[i] = complex(9999, 9999)
	}
	PlaceNPDSCH(&g, data, cellID)

	mask := nrsPositions(cellID, nofPorts)
	for sym := 0; sym < 14; sym++ {
		for sc := 0; sc < 12; sc++ {
			if mask[sym][sc] {
				require.Equal(t, nrsSnapshot.At(sym, sc), g.At(sym, sc), "NRS RE (%d,%d) must survive NPDSCH placement", sym, sc)
			}
		}
	}
}

func TestPlaceMIBWritesOnlyTheSelectedWindowSlice(t *testing.T) {
	const symsPerFrame = 11 * 12
	coded := make([]complex128, MIBWindowLen*symsPerFrame)
	for i := range coded {
		coded[i] = complex(float64(i), 0)
	}

	var g ofdm.Grid
	PlaceMIB(&g, coded, 3)

	idx := 3 * symsPerFrame
	for sym := 3; sym < 14; sym++ {
		for sc := 0; sc < 12; sc++ {
			require.Equal(t, coded[idx], g.At(sym, sc))
			idx++
		}
	}
}

func TestNSSSSequenceIsCellSpecific(t *testing.T) {
	a := nsssSequence(0)
	b := nsssSequence(1)
	require.NotEqual(t, a, b)
}
