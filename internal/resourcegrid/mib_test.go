package resourcegrid

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestMIBPackUnpackRoundTrips is TESTABLE PROPERTY 9 (MIB drift): packing
// a MIB and unpacking it again must recover every field exactly,
// including the HFN value repatched into the spare bits every 8-frame
// window, or a receiver would drift its hyperframe count relative to the
// eNB's actual clock.
func TestMIBPackUnpackRoundTrips(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := MIB{
			SchedInfoSIB1:     uint32(rapid.IntRange(0, 15).Draw(rt, "sched")),
			SysInfoTag:        uint32(rapid.IntRange(0, 31).Draw(rt, "tag")),
			ACBarring:         uint32(rapid.IntRange(0, 1).Draw(rt, "barring")),
			OperationModeInfo: uint32(rapid.IntRange(0, 127).Draw(rt, "opmode")),
			HFN:               uint32(rapid.IntRange(0, 2047).Draw(rt, "hfn")),
		}
		bits := m.Pack()
		require.Len(t, bits, mibPayloadBits+16)

		got, ok := UnpackMIB(bits)
		require.True(t, ok)
		require.Equal(t, m, got)
	})
}

func TestUnpackMIBRejectsCorruptedCRC(t *testing.T) {
	m := MIB{SchedInfoSIB1: 5, SysInfoTag: 9, ACBarring: 1, OperationModeInfo: 64, HFN: 1023}
	bits := m.Pack()
	bits[0] ^= 1 // flip a payload bit without touching the CRC

	_, ok := UnpackMIB(bits)
	require.False(t, ok)
}

func TestUnpackMIBRejectsWrongLength(t *testing.T) {
	_, ok := UnpackMIB(make([]int, mibPayloadBits))
	require.False(t, ok)
}
