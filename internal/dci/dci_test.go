package dci

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestFormatN0RoundTrip exercises spec.md testable property 5:
// pack(unpack(x)) == x for every syntactically valid 23-bit stream, by
// constructing FormatN0 values from arbitrary field values and checking
// the packed bits decode back to the same fields.
func TestFormatN0RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := FormatN0{
			SubcarrierIndication: uint32(rapid.IntRange(0, 63).Draw(rt, "sc")),
			SchedulingDelay:      uint32(rapid.IntRange(0, 3).Draw(rt, "delay")),
			ResourceAssignment:   uint32(rapid.IntRange(0, 7).Draw(rt, "ra")),
			MCS:                  uint32(rapid.IntRange(0, 15).Draw(rt, "mcs")),
			RedundancyVersion:    uint32(rapid.IntRange(0, 1).Draw(rt, "rv")),
			RepetitionNumber:     uint32(rapid.IntRange(0, 7).Draw(rt, "rep")),
			NewDataIndicator:     uint32(rapid.IntRange(0, 1).Draw(rt, "ndi")),
			DCISubframeRepeat:    uint32(rapid.IntRange(0, 3).Draw(rt, "dsr")),
		}
		bits := d.Pack()
		require.Len(rt, bits, FormatN0Bits)
		got := UnpackFormatN0(bits)
		require.Equal(rt, d, got)
	})
}

func TestFormatN1RoundTripFullForm(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := FormatN1{
			IsSIB1:             false,
			SchedulingDelay:    uint32(rapid.IntRange(0, 7).Draw(rt, "delay")),
			ResourceAssignment: uint32(rapid.IntRange(0, 7).Draw(rt, "ra")),
			MCS:                uint32(rapid.IntRange(0, 15).Draw(rt, "mcs")),
			RepetitionNumber:   uint32(rapid.IntRange(0, 15).Draw(rt, "rep")),
			HARQAckResource:    uint32(rapid.IntRange(0, 15).Draw(rt, "harq")),
			DCISubframeRepeat:  uint32(rapid.IntRange(0, 3).Draw(rt, "dsr")),
			NewDataIndicator:   uint32(rapid.IntRange(0, 1).Draw(rt, "ndi")),
		}
		bits := d.Pack()
		require.Len(rt, bits, FormatN1Bits)
		got := UnpackFormatN1(bits)
		require.Equal(rt, d, got)
	})
}

func TestFormatN1RoundTripSIB1Overlay(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := FormatN1{
			IsSIB1:             true,
			SchedInfoSIB1:      uint32(rapid.IntRange(0, 15).Draw(rt, "sched")),
			ResourceAssignment: uint32(rapid.IntRange(0, 7).Draw(rt, "ra")),
		}
		bits := d.Pack()
		require.Len(rt, bits, FormatN1Bits)
		got := UnpackFormatN1(bits)
		require.Equal(rt, d, got)
	})
}

func TestRARGrantRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		g := RARGrant{
			SubcarrierSpacing:    uint32(rapid.IntRange(0, 1).Draw(rt, "scs")),
			SubcarrierIndication: uint32(rapid.IntRange(0, 63).Draw(rt, "sc")),
			SchedulingDelay:      uint32(rapid.IntRange(0, 3).Draw(rt, "delay")),
			RepetitionNumber:     uint32(rapid.IntRange(0, 7).Draw(rt, "rep")),
			MCS:                  uint32(rapid.IntRange(0, 7).Draw(rt, "mcs")),
		}
		bits := g.Pack()
		require.Len(rt, bits, RARGrantBits)
		got := UnpackRARGrant(bits)
		require.Equal(rt, g, got)
	})
}
