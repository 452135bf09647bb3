// Package npdsch implements the NPDSCH downlink shared channel
// encoder/decoder of spec.md §4.C: CRC-24A, turbo encode, rate matching
// to nof_sf*nof_rep*2*7*12*2 coded bits (QPSK), cell-specific scrambling,
// QPSK modulation, and the SIB1 HFN-patch special case.
package npdsch

import (
	"github.com/sonica-nb/enb/internal/goldseq"
	"github.com/sonica-nb/enb/internal/ofdm"
	"github.com/sonica-nb/enb/internal/resourcegrid"
	"github.com/sonica-nb/enb/internal/turbocode"
)

// CodedBitLen returns nof_sf*nof_rep*2*7*12*2 (QPSK => 2 bits/RE) minus
// the REs the resource grid reserves for NRS, per spec.md §4.C.
func CodedBitLen(nofSF, nofRep, cellID, nofPorts int) int {
	reAvail := resourcegrid.AvailableDataRECount(cellID, nofPorts)
	return nofSF * nofRep * reAvail * 2
}

// CInitNPDSCH implements the NPDSCH cell/RNTI scrambling seed, 36.211
// §10.2.3.1's c_init = n_rnti*2^14 + n_f*2^9 + cell_id (a fixed-RNTI
// variant of the NPUSCH seed in spec.md §4.B since NPDSCH has no
// NRUsc-bound RU-group re-init requirement).
func CInitNPDSCH(rnti uint32, frameNum, cellID int) uint32 {
	return rnti<<14 + uint32(frameNum)<<9 + uint32(cellID)
}

func qpskModulate(bits []int) []complex128 {
	out := make([]complex128, len(bits)/2)
	const a = 0.70710678
	for i := range out {
		re, im := a, a
		if bits[2*i] == 1 {
			re = -a
		}
		if bits[2*i+1] == 1 {
			im = -a
		}
		out[i] = complex(re, im)
	}
	return out
}

// Encode runs CRC-24A + turbo-encode + rate-match + scramble + QPSK
// modulation for one NPDSCH transport block, returning symbols ready for
// resourcegrid.PlaceNPDSCH.
func Encode(tb []byte, numCodedBits int, rv int, rnti uint32, frameNum, cellID int) []complex128 {
	withCRC := turbocode.AppendCRC24A(tb)
	dataBits := turbocode.BytesToBits(withCRC, len(withCRC)*8)
	block := turbocode.Encode(dataBits)
	coded := turbocode.RateMatch(block, numCodedBits, rv)

	seq := goldseq.Generate(CInitNPDSCH(rnti, frameNum, cellID), len(coded))
	scrambled := make([]int, len(coded))
	for i, b := range coded {
		scrambled[i] = b ^ seq[i]
	}
	return qpskModulate(scrambled)
}

// PatchSIB1HFN rewrites bytes 1..2 of an already-encoded SIB1 bit stream
// with the current HFN, bypassing full RRC re-encoding every TTI, per
// spec.md §4.C. It is kept as a narrow, explicit function rather than a
// general "patch arbitrary field" mechanism because, per
// spec.md Open Question 4, any SIB1 encoder change that alters this byte
// layout silently breaks the patch, so the patch site must stay a single
// auditable call, not a reusable abstraction.
func PatchSIB1HFN(sib1Bytes []byte, hfn uint16) {
	if len(sib1Bytes) < 3 {
		return
	}
	sib1Bytes[1] = byte(hfn >> 8)
	sib1Bytes[2] = byte(hfn)
}

// EncodeToGrid places pre-modulated NPDSCH symbols into grid, skipping
// NRS the way resourcegrid.PlaceNPDSCH already defines; exposed here too
// so callers that already have a Grid in hand needn't import
// internal/resourcegrid directly for the common case.
func EncodeToGrid(grid *ofdm.Grid, symbols []complex128, cellID int) {
	resourcegrid.PlaceNPDSCH(grid, symbols, cellID)
}
