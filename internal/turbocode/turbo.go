// Package turbocode implements the 3GPP 36.212 rate-1/3 turbo code used
// by both NPUSCH and NPDSCH (spec.md §4.B/§4.C), plus the CRC-24A
// transport-block check and the rate-matching circular buffer shared by
// both channels. NB-IoT transport blocks are always small enough
// (<= 680 bytes) to fit in a single code block, so the multi-segment
// machinery of full LTE turbo coding (36.212 §5.1.2's C>1 path) is
// intentionally not implemented; spec.md §4.B step 2 calls this out
// explicitly ("single code block only for NB-IoT").
package turbocode

import "fmt"

// EncodedBlock holds the three rate-1/3 constituent streams produced by
// Encode, before rate matching.
type EncodedBlock struct {
	K          int // number of systematic data bits (excludes tail)
	Systematic []int
	Parity1    []int
	Parity2    []int
}

// Encode turbo-encodes dataBits (already CRC-24A-appended by the caller)
// into the three constituent streams.
func Encode(dataBits []int) EncodedBlock {
	k := len(dataBits)
	parity1, tailSys1, tailPar1 := rscEncode(dataBits)

	perm := interleavePermutation(k)
	interleaved := applyPermutation(dataBits, perm)
	parity2, tailSys2, tailPar2 := rscEncode(interleaved)

	systematic := make([]int, 0, k+6)
	systematic = append(systematic, dataBits...)
	systematic = append(systematic, tailSys1[:]...)
	systematic = append(systematic, tailSys2[:]...)

	p1 := make([]int, 0, k+3)
	p1 = append(p1, parity1...)
	p1 = append(p1, tailPar1[:]...)

	p2 := make([]int, 0, k+3)
	p2 = append(p2, parity2...)
	p2 = append(p2, tailPar2[:]...)

	return EncodedBlock{K: k, Systematic: systematic, Parity1: p1, Parity2: p2}
}

// CodedBitLen returns the total number of coded bits Encode produces for
// a block of k data bits: 3k+12 (k systematic + 6 systematic tail bits,
// k+3 parity1, k+3 parity2).
func CodedBitLen(k int) int {
	return 3*k + 12
}

// DecodeResult is the outcome of turbo-decoding one NPUSCH/NPDSCH
// transport block.
type DecodeResult struct {
	Bits []int // hard-decided data bits, length K, tail stripped
	LLR  []float64
}

// MaxIterations is the default HARQ/turbo iteration bound named in
// spec.md §4.B ("maximum HARQ iterations (default 10)"); here it bounds
// the internal iterative SISO exchange rather than HARQ retransmissions,
// which are the caller's concern.
const MaxIterations = 10

// Decode runs the iterative max-log-MAP turbo decoder over the three
// streams of soft LLRs (already de-rate-matched by the caller, see
// ratematch.go), each already split back into systematic/parity1/parity2
// with their respective tails, and returns K hard-decided data bits.
func Decode(k int, sysLLR, par1LLR, par2LLR []float64) (DecodeResult, error) {
	if len(sysLLR) != k+6 || len(par1LLR) != k+3 || len(par2LLR) != k+3 {
		return DecodeResult{}, fmt.Errorf("turbocode: malformed LLR lengths for k=%d", k)
	}

	perm := interleavePermutation(k)
	inv := invertPermutation(perm)

	sys1LLR := make([]float64, k+3)
	copy(sys1LLR[:k], sysLLR[:k])
	copy(sys1LLR[k:], sysLLR[k:k+3])

	sys2Interleaved := make([]float64, k+3)
	extrinsic1ForSys2 := make([]float64, k)
	apriori1 := make([]float64, k+3)

	var dataLLR []float64
	for iter := 0; iter < MaxIterations; iter++ {
		ext1 := sisoDecode(sys1LLR, par1LLR, apriori1)
		copy(extrinsic1ForSys2, ext1[:k])

		for i, src := range perm {
			sys2Interleaved[i] = sysLLR[src] + extrinsic1ForSys2[src]
		}
		copy(sys2Interleaved[k:], sysLLR[k+3:k+6])
		apriori2 := make([]float64, k+3)

		ext2 := sisoDecode(sys2Interleaved, par2LLR, apriori2)

		deinterleavedExt2 := make([]float64, k)
		for i := range deinterleavedExt2 {
			deinterleavedExt2[i] = ext2[inv[i]]
		}
		for i := 0; i < k; i++ {
			apriori1[i] = deinterleavedExt2[i]
		}

		dataLLR = make([]float64, k)
		for i := 0; i < k; i++ {
			dataLLR[i] = sysLLR[i] + ext1[i] + deinterleavedExt2[i]
		}
	}

	bits := make([]int, k)
	for i, v := range dataLLR {
		if v > 0 {
			bits[i] = 1
		}
	}
	return DecodeResult{Bits: bits, LLR: dataLLR}, nil
}

// BitsToBytes packs a slice of 0/1 ints (MSB first) into bytes, padding
// the final byte with zero bits if necessary.
func BitsToBytes(bits []int) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// BytesToBits unpacks nbits MSB-first bits from data.
func BytesToBits(data []byte, nbits int) []int {
	out := make([]int, nbits)
	for i := 0; i < nbits; i++ {
		b := data[i/8]
		out[i] = int((b >> uint(7-i%8)) & 1)
	}
	return out
}
