package mac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParsePDUDPROverlay reproduces scenario S6: an uplink PDU starting
// with LCID 0 and a DPR byte must have the DPR stripped, the remaining
// 11-byte SDU preserved, and a synthetic 125-byte BSR/30-subframe wait
// timer reported.
func TestParsePDUDPROverlay(t *testing.T) {
	sdu := make([]byte, 11)
	for i := range sdu {
		sdu[i] = byte(i + 1)
	}
	payload := append([]byte{0x42}, sdu...)
	pdu := append(packSubHeader(LCIDDPR, len(payload)), payload...)

	sdus, dpr, err := ParsePDU(pdu)
	require.NoError(t, err)
	require.True(t, dpr.Present)
	require.Equal(t, SyntheticBSRBytes, dpr.BSRBytes)
	require.Equal(t, SyntheticBSRWaitSubframes, dpr.WaitSubframes)
	require.Len(t, sdus, 1)
	require.Equal(t, uint8(LCIDDPR), sdus[0].LCID)
	require.Equal(t, sdu, sdus[0].Payload)
}

func TestAssembleParseRoundTrip(t *testing.T) {
	sdus := []ParsedSDU{
		{LCID: 3, Payload: []byte{1, 2, 3}},
		{LCID: 5, Payload: make([]byte, 200)},
	}
	pdu := AssemblePDU(sdus)
	got, dpr, err := ParsePDU(pdu)
	require.NoError(t, err)
	require.False(t, dpr.Present)
	require.Len(t, got, 2)
	require.Equal(t, sdus[0].Payload, got[0].Payload)
	require.Equal(t, sdus[1].Payload, got[1].Payload)
}

func TestConResCESize(t *testing.T) {
	ce := BuildConResCE([6]byte{1, 2, 3, 4, 5, 6})
	require.Len(t, ce, ConResCEBytes)
}
