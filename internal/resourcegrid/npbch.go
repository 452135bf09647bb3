package resourcegrid

import (
	"github.com/sonica-nb/enb/internal/convcode"
)

// mibCodedSymbolsPerWindow is the REs PlaceMIB expects across the whole
// MIBWindowLen-frame rolling encode (11 symbols * 12 subcarriers per
// frame).
const mibCodedSymbolsPerWindow = MIBWindowLen * 11 * 12

func qpskModulateMIB(bits []int) []complex128 {
	const a = 0.70710678
	out := make([]complex128, len(bits)/2)
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

// EncodeMIB tail-biting-convolutionally encodes m's packed bits (reusing
// the same code NPDCCH uses, standing in for NPBCH's dedicated rate-1/3
// code per spec.md §6) and rate-matches by circular repetition to fill
// exactly one MIBWindowLen-frame rolling-encode block, ready to be sliced
// frame-by-frame into PlaceMIB.
func EncodeMIB(mibBits []int) []complex128 {
	coded := convcode.Encode(mibBits)
	needed := mibCodedSymbolsPerWindow * 2 // QPSK: 2 bits/symbol
	matched := make([]int, needed)
	for i := range matched {
		matched[i] = coded[i%len(coded)]
	}
	return qpskModulateMIB(matched)
}
