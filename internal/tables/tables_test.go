package tables

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDLTransportBlockBytesRejectsZeroEntries and
// TestULTransportBlockBytesRejectsZeroEntries are TESTABLE PROPERTY 6: a
// zero table cell must always surface as ErrInvalidTBS, never as a
// silent transport block size of zero.
func TestDLTransportBlockBytesRejectsZeroEntries(t *testing.T) {
	_, err := DLTransportBlockBytes(9, 10) // dlTBS[9][7] == 0
	require.ErrorIs(t, err, ErrInvalidTBS)

	_, err = DLTransportBlockBytes(10, 1) // row 10 is all zero
	require.ErrorIs(t, err, ErrInvalidTBS)
}

func TestULTransportBlockBytesRejectsZeroEntries(t *testing.T) {
	_, err := ULTransportBlockBytes(9, 10) // ulTBS[9][7] == 0
	require.ErrorIs(t, err, ErrInvalidTBS)

	_, err = ULTransportBlockBytes(13, 4) // ulTBS[13][3..7] == 0
	require.ErrorIs(t, err, ErrInvalidTBS)
}

func TestDLTransportBlockBytesRejectsOutOfRangeInputs(t *testing.T) {
	_, err := DLTransportBlockBytes(-1, 1)
	require.ErrorIs(t, err, ErrInvalidTBS)

	_, err = DLTransportBlockBytes(0, 7) // 7 is not a valid i_sf
	require.ErrorIs(t, err, ErrInvalidTBS)

	_, err = DLTransportBlockBytes(13, 1) // mcs out of range (0..12)
	require.ErrorIs(t, err, ErrInvalidTBS)
}

// TestValidEntriesRoundTripThroughTheTableLookup walks every nonzero cell
// of both tables and checks the lookup returns exactly that value,
// closing the other half of property 6's "valid combinations resolve to
// a stable byte count" requirement.
func TestValidEntriesRoundTripThroughTheTableLookup(t *testing.T) {
	for mcs := 0; mcs < len(dlTBS); mcs++ {
		for col, want := range dlTBS[mcs] {
			if want == 0 {
				continue
			}
			got, err := DLTransportBlockBytes(mcs, dlISFValues[col])
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}

	for mcs := 0; mcs < len(ulTBS); mcs++ {
		for col, want := range ulTBS[mcs] {
			if want == 0 {
				continue
			}
			got, err := ULTransportBlockBytes(mcs, ulRUValues[col])
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}
}
