package sfworker

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sonica-nb/enb/internal/chest"
	"github.com/sonica-nb/enb/internal/clock"
	"github.com/sonica-nb/enb/internal/npusch"
	"github.com/sonica-nb/enb/internal/ofdm"
	"github.com/sonica-nb/enb/internal/stack"
	"github.com/sonica-nb/enb/internal/stack/stubstack"
	"github.com/sonica-nb/enb/internal/tables"
)

func TestProcessProducesCorrectlySizedSubframe(t *testing.T) {
	stub := stubstack.New()
	w := New(Config{CellID: 5, NofPorts: 1}, stub)

	tti := clock.TTI{HFN: 0, SFN: 1, SfIdx: 1}
	result := w.Process(tti, nil)
	require.Len(t, result.TxIQ, ofdm.SubframeLen())
}

func TestDLGrantProducesDCIAndEventuallyData(t *testing.T) {
	stub := stubstack.New()
	w := New(Config{CellID: 1, NofPorts: 1}, stub)

	rxTTI := clock.TTI{HFN: 0, SFN: 20, SfIdx: 1}
	ttiTxDL := rxTTI.Add(4)
	dataTTI := ttiTxDL.Add(5)
	stub.ScheduleDL(ttiTxDL.Raw(), stack.DLSchedResult{
		HasGrant: true,
		RNTI:     0x1001,
		MCS:      4,
		NofSF:    1,
		TB:       make([]byte, 8),
		DataRaw:  dataTTI.Raw(),
	})

	result := w.Process(rxTTI, nil)
	require.Len(t, result.TxIQ, ofdm.SubframeLen())
	require.Equal(t, 1, stub.TickCount)
	require.Nil(t, w.active, "data must not be placed on the DCI's own subframe")
	require.Contains(t, w.armedDL, dataTTI.Raw()%10240)

	// Drive the worker forward to the scheduled data subframe (rxTTI such
	// that rxTTI+4 == dataTTI) and confirm the armed grant becomes active.
	dataRxTTI := dataTTI.Add(-4)
	w.Process(dataRxTTI, nil)
	require.NotContains(t, w.armedDL, dataTTI.Raw()%10240)
}

// TestMIBSubframeDoesNotPanic drives enough TTIs that ttiTxDL (rxTTI+4)
// lands on sf_idx 0 repeatedly across several 8-frame MIB windows.
func TestMIBSubframeDoesNotPanic(t *testing.T) {
	stub := stubstack.New()
	w := New(Config{CellID: 9, NofPorts: 1}, stub)
	for sfn := 0; sfn < 32; sfn++ {
		rxTTI := clock.TTI{HFN: 0, SFN: sfn, SfIdx: 6}
		result := w.Process(rxTTI, nil)
		require.Len(t, result.TxIQ, ofdm.SubframeLen())
	}
}

// TestUserGrantDataWaitsForScheduledSubframe exercises the DCI-to-data gap
// directly on resolveNPDSCHGrant (scenario: DCI on subframe 200, data on
// subframe 205 only): the subframe the grant is announced on must not
// place any data, and the data must appear exactly on the subframe the
// grant names.
func TestUserGrantDataWaitsForScheduledSubframe(t *testing.T) {
	stub := stubstack.New()
	w := New(Config{CellID: 1, NofPorts: 1}, stub)

	dciTTI := clock.TTI{SFN: 20, SfIdx: 0} // raw 200
	dataTTI := dciTTI.Add(5)                // raw 205

	grant := stack.DLSchedResult{
		HasGrant: true,
		RNTI:     0x1001,
		MCS:      4,
		NofSF:    1,
		TB:       make([]byte, 8),
		DataRaw:  dataTTI.Raw(),
	}

	symbols, ok := w.resolveNPDSCHGrant(dciTTI, grant)
	require.False(t, ok, "no data may be placed on the DCI's own subframe")
	require.Nil(t, symbols)
	require.Contains(t, w.armedDL, dataTTI.Raw()%10240)

	for raw := dciTTI.Raw() + 1; raw < dataTTI.Raw(); raw++ {
		tti := clock.TTI{SFN: raw / 10, SfIdx: raw % 10}
		symbols, ok := w.resolveNPDSCHGrant(tti, stack.DLSchedResult{})
		require.False(t, ok, "no data before the scheduled subframe")
		require.Nil(t, symbols)
	}

	symbols, ok = w.resolveNPDSCHGrant(dataTTI, stack.DLSchedResult{})
	require.True(t, ok, "data must appear on the scheduled subframe")
	require.NotEmpty(t, symbols)
}

// TestMultiSubframeGrantSpreadsOneEncoding confirms a nof_sf>1 grant
// rate-matches its transport block once across the whole block and places
// a distinct slice of that single encoding on each subframe, rather than
// re-encoding the full TB from scratch every subframe.
func TestMultiSubframeGrantSpreadsOneEncoding(t *testing.T) {
	stub := stubstack.New()
	w := New(Config{CellID: 3, NofPorts: 1}, stub)

	dataTTI := clock.TTI{SFN: 5, SfIdx: 0}
	grant := stack.DLSchedResult{
		HasGrant: true,
		RNTI:     0x1002,
		MCS:      2,
		NofSF:    3,
		TB:       make([]byte, 8),
		DataRaw:  dataTTI.Raw(),
	}

	_, ok := w.resolveNPDSCHGrant(dataTTI.Add(-5), grant)
	require.False(t, ok)

	require.NotNil(t, w.armedDL[dataTTI.Raw()])
	fullLen := len(w.armedDL[dataTTI.Raw()].symbols)
	reAvail := w.armedDL[dataTTI.Raw()].reAvail
	require.Equal(t, 3*reAvail, fullLen)

	var slices [][]complex128
	for i := 0; i < 3; i++ {
		tti := dataTTI.Add(i)
		sym, ok := w.resolveNPDSCHGrant(tti, stack.DLSchedResult{})
		require.True(t, ok)
		slices = append(slices, sym)
	}
	require.NotEqual(t, slices[0], slices[1], "each subframe must carry a distinct slice of the rate-matched block")
	require.NotEqual(t, slices[1], slices[2])
}

// TestHandleArmedULDecodesRealReception exercises the uplink decode path
// end to end: a transport block encoded and placed on a resource grid the
// way a real UE would (DMRS included), IFFT'd into I/Q, fed through
// Process as rxIQ, must decode successfully via the real channel
// estimate and received symbols rather than a stubbed-out constant.
func TestHandleArmedULDecodesRealReception(t *testing.T) {
	stub := stubstack.New()
	cellID := 7
	w := New(Config{CellID: cellID, NofPorts: 1}, stub)

	const mcs = 4
	const nofRU = 1
	tbBytes, err := tables.ULTransportBlockBytes(mcs, nofRU)
	require.NoError(t, err)
	tb := make([]byte, tbBytes)
	for i := range tb {
		tb[i] = byte(i*17 + 3)
	}

	rxTTI := clock.TTI{SFN: 50, SfIdx: 0}
	ttiTxUL := rxTTI.Add(8)
	stub.ScheduleUL(ttiTxUL.Raw(), stack.ULSchedResult{
		HasGrant: true,
		RNTI:     0x2001,
		MCS:      mcs,
		NRUsc:    12,
		NofRU:    nofRU,
		NofRep:   1,
	})

	// Arm the grant (the subframe worker's step 2), with no data to decode
	// on this TTI yet.
	w.Process(rxTTI, nil)

	g := npusch.Grant{
		RNTI:      0x2001,
		NRUsc:     12,
		Slots:     2,
		NofRU:     1,
		NofRep:    1,
		MCS:       mcs,
		ScAlloc0:  0,
		CellID:    cellID,
		FrameNum:  int(ttiTxUL.SFN),
		SlotStart: 0,
	}
	const numCodedBits = 288
	coded := npusch.EncodeTransportBlock(tb, numCodedBits, 0)
	scrambled := npusch.Scramble(coded, g)

	var grid ofdm.Grid
	require.NoError(t, npusch.EncodeRU([]*ofdm.Grid{&grid}, scrambled, g))

	// Place an ideal (channel-free) DMRS reference sequence the same way
	// the estimator expects it, per internal/chest's pilot correlation.
	for slot := 0; slot < 2; slot++ {
		symIdx := chest.DMRSSymbols[slot]
		u := chest.GroupNumber(cellID, 0, slot, false)
		ref := zcRefSequence(u)
		for sc := 0; sc < 12; sc++ {
			grid.Set(symIdx, sc, ref[sc])
		}
	}

	rxIQ := ofdm.Inverse(&grid)

	rxTTI2 := ttiTxUL
	w.Process(rxTTI2, rxIQ)

	require.Len(t, stub.CRCCalls, 1)
	require.Equal(t, uint32(0x2001), stub.CRCCalls[0].RNTI)
	require.True(t, stub.CRCCalls[0].OK, "decode must succeed from the real received symbols and channel estimate")
	require.Equal(t, tbBytes, stub.CRCCalls[0].Bytes)
}

// zcRefSequence mirrors internal/chest's unexported base-sequence
// construction (length-12 Zadoff-Chu root selected by group number u) so
// this test can place a reference DMRS symbol the estimator will read
// back as an ideal, undistorted channel.
func zcRefSequence(u int) []complex128 {
	const n = 12
	q := float64(u%n) + 1
	seq := make([]complex128, n)
	for i := 0; i < n; i++ {
		phase := -math.Pi * q * float64(i) * float64(i+1) / float64(n)
		seq[i] = cmplx.Exp(complex(0, phase))
	}
	return seq
}
