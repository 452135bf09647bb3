// Package npusch implements the NPUSCH Format 1 uplink shared channel
// encoder/decoder of spec.md §4.B: transport-block CRC, turbo coding,
// rate matching, cell/RNTI-scrambling, QPSK modulation, DFT precoding,
// and RU-repetition with scrambling re-initialisation at RU group
// boundaries.
package npusch

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/sonica-nb/enb/internal/goldseq"
	"github.com/sonica-nb/enb/internal/ofdm"
	"github.com/sonica-nb/enb/internal/turbocode"
)

// ErrUnsupportedNRUsc is returned for any NRUsc other than 12, per
// spec.md §4.B step 5 ("the minimal implementation supports 12-subcarrier
// QPSK only, and must reject other NRUsc with an 'unsupported' error").
var ErrUnsupportedNRUsc = fmt.Errorf("npusch: unsupported NRUsc (only 12 supported)")

// ErrCRCMismatch / ErrTruncated are the decode-side failure kinds of
// spec.md §7's DecodeError enumeration.
var (
	ErrCRCMismatch = fmt.Errorf("npusch: crc mismatch after max HARQ iterations")
	ErrTruncated   = fmt.Errorf("npusch: truncated or malformed reception")
)

// Grant carries the fields of a UL scheduling grant (spec.md §3) that
// the codec needs; scheduling-only fields (start subframe, k0, RNTI
// bookkeeping) live in internal/mac.
type Grant struct {
	RNTI      uint32
	NRUsc     int
	Slots     int
	NofRU     int
	NofRep    int
	MCS       int
	ScAlloc0  int // starting subcarrier
	CellID    int
	FrameNum  int // n_f at the start of the current RU
	SlotStart int // n_slot_start at the start of the current RU
}

// cInit implements spec.md §4.B step 4's precise seed:
// c_init = n_rnti*2^14 + floor(n_f/2)*2^13 + n_slot_start*2^9 + cell_id.
func cInit(g Grant) uint32 {
	return uint32(g.RNTI)<<14 + uint32(g.FrameNum/2)<<13 + uint32(g.SlotStart)<<9 + uint32(g.CellID)
}

// RUGroupSize is "every min(4, nof_rep) repetitions", the RU-group
// boundary at which scrambling is re-initialised (spec.md §4.B step 8).
func RUGroupSize(nofRep int) int {
	if nofRep < 4 {
		return nofRep
	}
	return 4
}

// qpskModulate maps ratematched bits (pairs) onto QPSK symbols,
// normalised to unit energy.
func qpskModulate(bits []int) []complex128 {
	out := make([]complex128, len(bits)/2)
	const a = 1 / math.Sqrt2
	for i := range out {
		b0, b1 := bits[2*i], bits[2*i+1]
		re := a
		if b0 == 1 {
			re = -a
		}
		im := a
		if b1 == 1 {
			im = -a
		}
		out[i] = complex(re, im)
	}
	return out
}

func qpskDemodulateLLR(symbols []complex128, noiseVar float64) []float64 {
	if noiseVar <= 0 {
		noiseVar = 1
	}
	out := make([]float64, len(symbols)*2)
	scale := 2 * math.Sqrt2 / noiseVar
	for i, s := range symbols {
		out[2*i] = -real(s) * scale
		out[2*i+1] = -imag(s) * scale
	}
	return out
}

// dftPrecode applies a length-nrusc DFT to each consecutive block of
// nrusc modulated symbols, per spec.md §4.B step 6.
func dftPrecode(symbols []complex128, nrusc int) []complex128 {
	out := make([]complex128, len(symbols))
	for blk := 0; blk*nrusc < len(symbols); blk++ {
		block := symbols[blk*nrusc : blk*nrusc+nrusc]
		for k := 0; k < nrusc; k++ {
			var sum complex128
			for n := 0; n < nrusc; n++ {
				angle := -2 * math.Pi * float64(k) * float64(n) / float64(nrusc)
				sum += block[n] * cmplx.Exp(complex(0, angle))
			}
			out[blk*nrusc+k] = sum / complex(math.Sqrt(float64(nrusc)), 0)
		}
	}
	return out
}

func idftPrecode(symbols []complex128, nrusc int) []complex128 {
	out := make([]complex128, len(symbols))
	for blk := 0; blk*nrusc < len(symbols); blk++ {
		block := symbols[blk*nrusc : blk*nrusc+nrusc]
		for n := 0; n < nrusc; n++ {
			var sum complex128
			for k := 0; k < nrusc; k++ {
				angle := 2 * math.Pi * float64(k) * float64(n) / float64(nrusc)
				sum += block[k] * cmplx.Exp(complex(0, angle))
			}
			out[blk*nrusc+n] = sum / complex(math.Sqrt(float64(nrusc)), 0)
		}
	}
	return out
}

// symbolsPerSlotDMRSSkipped is 6: symbol index 3 carries DMRS, per
// spec.md §4.B step 7.
const symbolsPerSlotDMRSSkipped = 6

// EncodeRU encodes one resource unit's worth of coded bits (already
// turbo-encoded, rate-matched, and scrambled by the caller via
// EncodeTransportBlock/Scramble) onto a sequence of ofdm.Grid objects,
// one per subframe the RU spans (grant.Slots/2 subframes), skipping the
// DMRS symbol of each slot. Each non-DMRS symbol carries one DFT-precoded
// block across all NRUsc subcarriers of the allocation (ScAlloc0 is its
// first subcarrier), the 12-subcarrier single-RU layout spec.md §4.B
// step 6/7 describes.
func EncodeRU(grids []*ofdm.Grid, scrambledBits []int, g Grant) error {
	if g.NRUsc != 12 {
		return ErrUnsupportedNRUsc
	}
	symbols := qpskModulate(scrambledBits)
	precoded := dftPrecode(symbols, g.NRUsc)

	idx := 0
	for sfIdx := 0; sfIdx < len(grids); sfIdx++ {
		grid := grids[sfIdx]
		for slot := 0; slot < 2; slot++ {
			for s := 0; s < 7; s++ {
				if s == 3 {
					continue // DMRS
				}
				if idx+g.NRUsc > len(precoded) {
					return nil
				}
				for sc := 0; sc < g.NRUsc; sc++ {
					grid.Set(slot*7+s, (g.ScAlloc0+sc)%12, precoded[idx])
					idx++
				}
			}
		}
	}
	return nil
}

// Scramble XORs ratematched bits with the cell/RNTI gold sequence (spec.md
// §4.B steps 4 and 8), seeded once per call from g's FrameNum and
// SlotStart; re-initialising at an RU-group boundary is a separate call
// with that group's Grant values.
func Scramble(bits []int, g Grant) []int {
	seq := goldseq.Generate(cInit(g), len(bits))
	out := make([]int, len(bits))
	for i, b := range bits {
		out[i] = b ^ seq[i]
	}
	return out
}

// EncodeTransportBlock runs the CRC-24A + turbo-encode + rate-match
// pipeline shared by every repetition of a grant, returning the coded
// bit sequence ready for Scramble. numCodedBits is the target length for
// one RU's worth of bits (spec.md §4.B steps 1-3).
func EncodeTransportBlock(tb []byte, numCodedBits int, rv int) []int {
	withCRC := turbocode.AppendCRC24A(tb)
	dataBits := turbocode.BytesToBits(withCRC, len(withCRC)*8)
	block := turbocode.Encode(dataBits)
	return turbocode.RateMatch(block, numCodedBits, rv)
}

// DecodeAccumulator holds the per-grant soft-combining state across
// repeated RU receptions (spec.md §4.B: "repeated receptions accumulate
// into the same soft bit positions").
type DecodeAccumulator struct {
	k          int
	buffer     []float64
	isNull     []bool
	noiseVar   float64
}

// NewDecodeAccumulator allocates a pre-zeroed soft buffer sized for a
// transport block of tbBytes payload bytes (24-bit CRC included in k).
func NewDecodeAccumulator(tbBytes int, noiseVar float64) *DecodeAccumulator {
	k := (tbBytes+3)*8
	buf, null := turbocode.NewSoftBuffer(k)
	return &DecodeAccumulator{k: k, buffer: buf, isNull: null, noiseVar: noiseVar}
}

// AccumulateRU de-modulates one RU reception (already extracted from the
// resource grid and DFT-deprecoded/equalised by the caller using
// internal/chest) and soft-combines it into the accumulator.
func (a *DecodeAccumulator) AccumulateRU(equalisedSymbols []complex128, nrusc int, numCodedBits, rv int) {
	timeDomain := idftPrecode(equalisedSymbols, nrusc)
	llrs := qpskDemodulateLLR(timeDomain, a.noiseVar)
	if len(llrs) > numCodedBits {
		llrs = llrs[:numCodedBits]
	}
	turbocode.DeRateMatch(a.buffer, a.isNull, a.k, llrs, rv)
}

// Decode turbo-decodes the accumulated soft buffer and checks CRC-24A,
// implementing the DecodeError kinds of spec.md §7. a.k already counts
// the 24 CRC bits (NewDecodeAccumulator folds them into tbBytes+3), the
// same data+CRC length RateMatch/Encode used on the transmit side.
func (a *DecodeAccumulator) Decode() ([]byte, error) {
	sysLLR, par1LLR, par2LLR := turbocode.SplitSoftBuffer(a.buffer, a.k)
	result, err := turbocode.Decode(a.k, sysLLR, par1LLR, par2LLR)
	if err != nil {
		return nil, ErrTruncated
	}
	bytes := turbocode.BitsToBytes(result.Bits)
	payload, ok := turbocode.CheckCRC24A(bytes)
	if !ok {
		return nil, ErrCRCMismatch
	}
	return payload, nil
}
