// Package npdcch implements the NPDCCH control channel of spec.md §4.C:
// DCI CRC-16 attachment (RNTI-scrambled, as LTE PDCCH does), tail-biting
// convolutional coding via internal/convcode, rate matching to an
// aggregation level, cell-specific scrambling, and QPSK modulation.
package npdcch

import (
	"fmt"

	"github.com/sonica-nb/enb/internal/convcode"
	"github.com/sonica-nb/enb/internal/goldseq"
	"github.com/sonica-nb/enb/internal/ofdm"
	"github.com/sonica-nb/enb/internal/resourcegrid"
)

// AggregationLevel is L=1 or L=2 (spec.md §4.C: "rate-matched to one of
// two aggregation levels").
type AggregationLevel int

const (
	L1 AggregationLevel = 1
	L2 AggregationLevel = 2
)

// NCCEBits is the number of coded bits one CCE carries once rate-matched
// (6 subcarriers * 11 OFDM symbols * 2 bits/QPSK symbol), so that even
// L1 holds the whole 117-bit mother code of a 23-bit DCI plus its CRC-16.
const NCCEBits = 132

// ErrCRCMismatch is returned by Decode when the recovered CRC-16 does not
// match the RNTI-descrambled check bits.
var ErrCRCMismatch = fmt.Errorf("npdcch: crc mismatch")

// codedBitLen is how many bits the convolutional mother code produces for
// a given aggregation level once rate-matched to fill the level's REs.
func codedBitLen(level AggregationLevel) int {
	return int(level) * NCCEBits
}

// crc16DCI computes the 16-bit CRC LTE PDCCH uses to protect DCI payloads
// (same CCITT polynomial as the MIB's CRC, reused here since spec.md does
// not name a distinct DCI polynomial).
func crc16DCI(bits []int) uint32 {
	var reg uint32
	for _, b := range bits {
		top := (reg >> 15) & 1
		reg = (reg << 1) & 0xFFFF
		if top^uint32(b) != 0 {
			reg ^= 0x1021
		}
	}
	for i := 0; i < 16; i++ {
		top := (reg >> 15) & 1
		reg = (reg << 1) & 0xFFFF
		if top != 0 {
			reg ^= 0x1021
		}
	}
	return reg & 0xFFFF
}

// attachCRC appends a 16-bit CRC XORed with rnti, the standard LTE PDCCH
// "CRC scrambled by RNTI" construction that lets a UE implicitly validate
// the DCI is addressed to it.
func attachCRC(dciBits []int, rnti uint32) []int {
	crc := crc16DCI(dciBits)
	out := make([]int, len(dciBits), len(dciBits)+16)
	copy(out, dciBits)
	for i := 15; i >= 0; i-- {
		bit := int((crc >> uint(i)) & 1)
		mask := int((rnti >> uint(i)) & 1)
		out = append(out, bit^mask)
	}
	return out
}

// checkCRC reverses attachCRC, returning the payload and whether the
// RNTI-descrambled CRC matched.
func checkCRC(bits []int, rnti uint32) ([]int, bool) {
	if len(bits) < 16 {
		return nil, false
	}
	payload := bits[:len(bits)-16]
	tail := bits[len(bits)-16:]
	var got uint32
	for i, b := range tail {
		mask := int((rnti >> uint(15-i)) & 1)
		got = (got << 1) | uint32(b^mask)
	}
	return payload, got == crc16DCI(payload)
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

func qpskHardDemod(symbols []complex128) []int {
	out := make([]int, len(symbols)*2)
	for i, s := range symbols {
		if real(s) < 0 {
			out[2*i] = 1
		}
		if imag(s) < 0 {
			out[2*i+1] = 1
		}
	}
	return out
}

// rateMatchRepeat pads or truncates coded to exactly n bits by circular
// repetition, the simplest rate-matching rule that satisfies spec.md's
// "rate-matched to one of two aggregation levels" without needing the
// full LTE PDCCH sub-block interleaver convcode has no counterpart for.
func rateMatchRepeat(coded []int, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = coded[i%len(coded)]
	}
	return out
}

// Encode packs dciBits (from internal/dci's Pack methods) into a
// CRC-protected, convolutionally coded, rate-matched, scrambled QPSK
// symbol sequence at aggregation level level, ready for
// resourcegrid.PlaceNPDCCH.
func Encode(dciBits []int, rnti uint32, level AggregationLevel, cellID, frameNum int) []complex128 {
	withCRC := attachCRC(dciBits, rnti)
	coded := convcode.Encode(withCRC)
	matched := rateMatchRepeat(coded, codedBitLen(level))

	seq := goldseq.Generate(scramblingSeed(rnti, frameNum, cellID), len(matched))
	scrambled := make([]int, len(matched))
	for i, b := range matched {
		scrambled[i] = b ^ seq[i]
	}
	return qpskModulate(scrambled)
}

// scramblingSeed mirrors NPDSCH's c_init formula (spec.md §4.B/§4.C share
// the same cell/RNTI scrambling construction).
func scramblingSeed(rnti uint32, frameNum, cellID int) uint32 {
	return rnti<<14 + uint32(frameNum)<<9 + uint32(cellID)
}

// Decode reverses Encode given the known aggregation level, number of
// original DCI payload bits, and addressed RNTI, returning ErrCRCMismatch
// if the recovered DCI does not check out.
func Decode(symbols []complex128, rnti uint32, level AggregationLevel, cellID, frameNum, dciBits int) ([]int, error) {
	descrambled := qpskHardDemod(symbols)
	seq := goldseq.Generate(scramblingSeed(rnti, frameNum, cellID), len(descrambled))
	for i := range descrambled {
		descrambled[i] ^= seq[i]
	}
	decoded := convcode.Decode(descrambled, dciBits+16)
	payload, ok := checkCRC(decoded, rnti)
	if !ok {
		return nil, ErrCRCMismatch
	}
	return payload, nil
}

// EncodeToGrid places the modulated DCI symbols at the fixed search-space
// location of spec.md §4.C ({L=2, ncce=0} for this single-user eNB).
func EncodeToGrid(g *ofdm.Grid, symbols []complex128, cellID int) {
	resourcegrid.PlaceNPDCCH(g, symbols, cellID)
}
