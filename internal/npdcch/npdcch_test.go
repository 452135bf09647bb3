package npdcch

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sonica-nb/enb/internal/dci"
)

func TestEncodeDecodeRoundTripFormatN0(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rnti := uint32(rapid.IntRange(1, 0xFFFE).Draw(t, "rnti"))
		cellID := rapid.IntRange(0, 503).Draw(t, "cellID")
		frameNum := rapid.IntRange(0, 1023).Draw(t, "frameNum")

		d := dci.FormatN0{
			SubcarrierIndication: uint32(rapid.IntRange(0, 63).Draw(t, "sc")),
			SchedulingDelay:      uint32(rapid.IntRange(0, 3).Draw(t, "delay")),
			ResourceAssignment:   uint32(rapid.IntRange(0, 7).Draw(t, "ra")),
			MCS:                  uint32(rapid.IntRange(0, 15).Draw(t, "mcs")),
			RedundancyVersion:    uint32(rapid.IntRange(0, 1).Draw(t, "rv")),
			RepetitionNumber:     uint32(rapid.IntRange(0, 7).Draw(t, "rep")),
			NewDataIndicator:     uint32(rapid.IntRange(0, 1).Draw(t, "ndi")),
			DCISubframeRepeat:    uint32(rapid.IntRange(0, 3).Draw(t, "dsr")),
		}
		bits := d.Pack()

		symbols := Encode(bits, rnti, L2, cellID, frameNum)
		require.Len(t, symbols, codedBitLen(L2)/2)

		decoded, err := Decode(symbols, rnti, L2, cellID, frameNum, len(bits))
		require.NoError(t, err)
		require.Equal(t, bits, decoded)
	})
}

func TestDecodeWrongRNTIFails(t *testing.T) {
	d := dci.FormatN0{MCS: 5, ResourceAssignment: 2}
	bits := d.Pack()
	symbols := Encode(bits, 100, L2, 10, 0)
	_, err := Decode(symbols, 200, L2, 10, 0, len(bits))
	require.Error(t, err)
}
