// Package resourcegrid implements the DL resource-map & frame builder of
// spec.md §4.G: the per-subframe placement priority order (MIB, NPSS,
// NSSS, NRS, NPDCCH, NPDSCH) and the "valid for DL data" predicate that
// the MAC scheduler (internal/mac) must respect before ever handing the
// builder a user-data grant.
package resourcegrid

import (
	"math"
	"math/cmplx"

	"github.com/sonica-nb/enb/internal/clock"
	"github.com/sonica-nb/enb/internal/ofdm"
)

// IsValidDLDataSubframe implements spec.md §4.G's validity predicate,
// excluding sf_idx 0 (MIB), sf_idx 5 (NPSS), and sf_idx 9 on an even SFN
// (NSSS). It does not know about SIB1 windows (a scheduler concern); the
// MAC scheduler layers that exclusion on top via mac.IsSIB1Subframe.
func IsValidDLDataSubframe(t clock.TTI) bool {
	if t.SfIdx == 0 || t.SfIdx == 5 {
		return false
	}
	if t.SfIdx == 9 && t.SFN%2 == 0 {
		return false
	}
	return true
}

// NRSShift returns the cell-specific NRS frequency shift, cell_id mod 6.
func NRSShift(cellID int) int {
	return cellID % 6
}

// PlaceNRS writes the cell-specific narrowband reference signal into
// symbols 5 and 6 of both slots, for the given antenna port count.
func PlaceNRS(g *ofdm.Grid, cellID int, nofPorts int) {
	shift := NRSShift(cellID)
	for _, slotBase := range []int{0, 7} {
		for _, symOff := range [2]int{5, 6} {
			sym := slotBase + symOff
			for k := 0; k < nofPorts; k++ {
				sc := (shift + 6*k) % 12
				g.Set(sym, sc, nrsValue(cellID, sym, sc))
			}
		}
	}
}

// nrsValue derives a deterministic, cell-seeded QPSK pilot value; the
// exact 3GPP r(m) reference-signal sequence formula is not reproduced
// bit-exact here (see DESIGN.md), only its cell-specific, symbol-specific
// determinism, which is what the channel estimator in internal/chest
// actually depends on.
func nrsValue(cellID, sym, sc int) complex128 {
	phase := math.Pi / 4 * float64((cellID*31+sym*17+sc*7)%8)
	return cmplx.Exp(complex(0, phase))
}

// PlaceNPSS writes the fixed, cell-id-independent NPSS sequence across
// symbols 3..13 of sf_idx 5 (symbol 0..2 of slot 0 are left for NPDCCH
// per 3GPP; simplified here to start at symbol 3 consistently).
func PlaceNPSS(g *ofdm.Grid) {
	seq := npssSequence()
	for sym := 3; sym < 14; sym++ {
		for sc := 0; sc < 12; sc++ {
			g.Set(sym, sc, seq[(sym-3)*12+sc])
		}
	}
}

func npssSequence() []complex128 {
	const n = 11 * 12
	out := make([]complex128, n)
	for i := range out {
		// Zadoff-Chu root 5 length-11, repeated/tiled across subcarriers;
		// cell-id independent per spec.md.
		q := 5.0
		idx := float64(i % 11)
		phase := -math.Pi * q * idx * (idx + 1) / 11
		out[i] = cmplx.Exp(complex(0, phase))
	}
	return out
}

// PlaceNSSS writes the cell-id-dependent NSSS sequence across the 11
// symbols of sf_idx 9 (transmitted only on even SFN per spec.md §4.G).
func PlaceNSSS(g *ofdm.Grid, cellID int) {
	seq := nsssSequence(cellID)
	for sym := 3; sym < 14; sym++ {
		for sc := 0; sc < 12; sc++ {
			g.Set(sym, sc, seq[(sym-3)*12+sc])
		}
	}
}

func nsssSequence(cellID int) []complex128 {
	const n = 11 * 12
	out := make([]complex128, n)
	root := 3 + cellID%126 // cell-id dependent ZC root, spec.md "cell-id-dependent"
	cyclicShift := cellID % 4
	for i := range out {
		idx := float64(i%11) + float64(cyclicShift)
		phase := -math.Pi * float64(root) * idx * (idx + 1) / 11
		out[i] = cmplx.Exp(complex(0, phase))
	}
	return out
}

// MIBWindowLen is the number of consecutive radio frames over which one
// MIB coded block is transmitted (8, transmitted on sf_idx 0 of each).
const MIBWindowLen = 8

// PlaceMIB writes the symbols produced by encoding one of the eight
// sub-blocks of the current 8-frame MIB coded block into sf_idx 0.
// frameInWindow is SFN mod 8 and selects which eighth of the coded block
// to transmit this frame, per spec.md §4.G step 2's "rolling encode".
func PlaceMIB(g *ofdm.Grid, codedSymbols []complex128, frameInWindow int) {
	// The coded NPBCH block spans MIBWindowLen subframes' worth of REs;
	// each frame fills all 12 subcarriers of symbols [3..13] (11
	// symbols), leaving symbols 0..2 for NPDCCH/legacy PDCCH per 3GPP.
	const symsPerFrame = 11 * 12
	start := frameInWindow * symsPerFrame
	if start+symsPerFrame > len(codedSymbols) {
		return
	}
	chunk := codedSymbols[start : start+symsPerFrame]
	idx := 0
	for sym := 3; sym < 14; sym++ {
		for sc := 0; sc < 12; sc++ {
			g.Set(sym, sc, chunk[idx])
			idx++
		}
	}
}

// PlaceNPDCCH places modulated DCI symbols at the fixed search-space
// location named in spec.md §4.C: aggregation level L starting at CCE 0.
// For this single-user eNB the symbols are written in increasing
// (symbol, subcarrier) order from symbol 0, skipping only the port-0 NRS
// REs; whatever else the grid already holds there is overwritten.
func PlaceNPDCCH(g *ofdm.Grid, symbols []complex128, cellID int) {
	placeSkippingNRS(g, symbols, cellID, 1)
}

// PlaceNPDSCH places modulated NPDSCH transport-block symbols into every
// RE not reserved for NRS, in increasing (symbol, subcarrier) order.
func PlaceNPDSCH(g *ofdm.Grid, symbols []complex128, cellID int) {
	placeSkippingNRS(g, symbols, cellID, 1)
}

func placeSkippingNRS(g *ofdm.Grid, symbols []complex128, cellID int, nofPorts int) {
	nrsRE := nrsPositions(cellID, nofPorts)
	idx := 0
	for sym := 0; sym < 14 && idx < len(symbols); sym++ {
		for sc := 0; sc < 12 && idx < len(symbols); sc++ {
			if nrsRE[sym][sc] {
				continue
			}
			g.Set(sym, sc, symbols[idx])
			idx++
		}
	}
}

func nrsPositions(cellID, nofPorts int) [14][12]bool {
	var mask [14][12]bool
	shift := NRSShift(cellID)
	for _, slotBase := range []int{0, 7} {
		for _, symOff := range [2]int{5, 6} {
			sym := slotBase + symOff
			for k := 0; k < nofPorts; k++ {
				sc := (shift + 6*k) % 12
				mask[sym][sc] = true
			}
		}
	}
	return mask
}

// AvailableDataRECount returns how many REs in a subframe are free for
// NPDSCH/NPDCCH placement after subtracting the NRS pilot positions,
// given nofPorts active antenna ports.
func AvailableDataRECount(cellID, nofPorts int) int {
	mask := nrsPositions(cellID, nofPorts)
	count := 0
	for _, row := range mask {
		for _, used := range row {
			if !used {
				count++
			}
		}
	}
	return count
}
