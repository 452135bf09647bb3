// Package goldseq implements the 3GPP 36.211 §7.2 pseudo-random (Gold)
// sequence generator that seeds every cell-specific sequence in this
// repository: NPUSCH/NPDSCH scrambling (spec.md §4.B step 4, §4.C), the
// NRS/DMRS group-hopping pattern (§4.F), and NSSS (§4.G).
package goldseq

// Length is the standard LTE Gold sequence generator length (Nc) before
// useful output begins.
const Length = 1600

// Generate produces n pseudo-random bits (0/1) seeded by cInit, per
// 36.211 §7.2's two linear feedback shift registers x1 (fixed seed) and
// x2 (seeded by cInit).
func Generate(cInit uint32, n int) []int {
	total := Length + n
	x1 := make([]int, total)
	x2 := make([]int, total)

	x1[0] = 1
	for i := 1; i < 31; i++ {
		x1[i] = 0
	}
	for i := 0; i < 31; i++ {
		x2[i] = int((cInit >> uint(i)) & 1)
	}

	for n1 := 0; n1 < total-31; n1++ {
		x1[n1+31] = (x1[n1+3] + x1[n1]) % 2
		x2[n1+31] = (x2[n1+3] + x2[n1+2] + x2[n1+1] + x2[n1]) % 2
	}

	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = (x1[i+Length] + x2[i+Length]) % 2
	}
	return out
}
