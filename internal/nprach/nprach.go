// Package nprach implements the NPRACH Format 1 preamble detector of
// spec.md §4.E: a streaming FSM that ingests uplink anchor-carrier
// samples in arbitrary, non-sample-aligned chunks and declares a
// preamble "detected" once all four tone-hopping symbol groups have been
// observed and at least 19 of 20 symbol repetitions agree on a
// subcarrier.
package nprach

import (
	"math"
	"math/cmplx"
)

const (
	// FFTSize is the fixed per-symbol FFT length for Format 1.
	FFTSize = 512
	// CPLenFormat1 is the cyclic-prefix length for Format 1: 266.7 us,
	// one full 3.75 kHz NPRACH symbol, which at 512 samples per symbol
	// is a sample count equal to the FFT size.
	CPLenFormat1 = FFTSize // 266.7us / (1/3.75kHz / 512) = 512 samples
	// SymbolsPerGroup is the number of identical symbols in one
	// tone-hopping group.
	SymbolsPerGroup = 5
	// GroupsPerPreamble is the number of tone-hopping groups in one
	// preamble.
	GroupsPerPreamble = 4
	// TotalSymbols is the total number of symbols observed per preamble
	// attempt (used as the detection buffer's row count).
	TotalSymbols = SymbolsPerGroup * GroupsPerPreamble // 20
	// SubcarrierCount is the number of base subcarriers a detector
	// instance watches (one detector instance per configured NPRACH
	// resource, spanning 12 base subcarriers per spec.md §4.E).
	SubcarrierCount = 12
	// DefaultThreshold is the default magnitude a bin must exceed to
	// count as a "hit" for its row.
	DefaultThreshold = 5.0
	// MajorityRows is the minimum number of the 20 rows that must agree
	// for a column to be declared detected.
	MajorityRows = 19
)

// Result is returned by Detect when a preamble has been found.
type Result struct {
	Found         bool
	PreambleIndex int
	NeedSamples   int // hint: more samples required before the next call can progress
}

// Detector carries the streaming FSM state across calls to Detect,
// allowing samples to arrive in arbitrary, non-subframe-aligned chunks.
type Detector struct {
	threshold float64
	baseSubc  int

	curGroup      int
	nextSymInGrp  int
	pendingCP     int // cyclic-prefix samples still to skip before this symbol's FFT window
	symBuf        []complex128
	symBufSamples int

	// magnitudeBuf[symIndex][subcarrierOffset] is the observed FFT bin
	// magnitude for that symbol at subcarrier baseSubc+subcarrierOffset;
	// all 12 bins are recorded and evaluate picks the hopped one.
	magnitudeBuf [TotalSymbols][SubcarrierCount]float64
	hitBuf       [TotalSymbols][SubcarrierCount]bool
	symIndex     int
}

// NewDetector constructs a detector watching baseSubc..baseSubc+11 with
// the given detection threshold (0 selects DefaultThreshold).
func NewDetector(baseSubc int, threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	d := &Detector{threshold: threshold, baseSubc: baseSubc}
	d.resetState()
	return d
}

func (d *Detector) resetState() {
	d.curGroup = 0
	d.nextSymInGrp = 0
	d.pendingCP = CPLenFormat1
	d.symBuf = d.symBuf[:0]
	d.symBufSamples = 0
	d.symIndex = 0
	for i := range d.magnitudeBuf {
		for j := range d.magnitudeBuf[i] {
			d.magnitudeBuf[i][j] = 0
			d.hitBuf[i][j] = false
		}
	}
}

// Reset implements the NprachStreamError recovery path of spec.md §7 and
// testable property 8: after Reset, Detect returns "not found" until at
// least 20*(512+cp) fresh samples have been consumed.
func (d *Detector) Reset() {
	d.resetState()
}

// hopStart returns the per-group starting subcarrier offset per spec.md
// §4.E's f(sg) formula: {start, start^1, (start+/-6)^1, start+/-6}.
func hopStart(start, group int) int {
	switch group {
	case 0:
		return start
	case 1:
		return start ^ 1
	case 2:
		return ((start + 6) % 12) ^ 1
	default:
		return (start + 6) % 12
	}
}

// Detect consumes as many samples as needed from the front of samples to
// make progress and reports whether a full preamble was observed. It may
// be called repeatedly with arbitrary non-aligned chunks; unconsumed
// samples are expected to be represented in the next call by the caller
// (this detector does not retain unconsumed remainders beyond a partial
// symbol's worth, matching the "(cur_group, next_sym_in_group,
// buffered_samples)" state named in spec.md §4.E).
func (d *Detector) Detect(samples []complex128) Result {
	i := 0
	for i < len(samples) {
		if d.pendingCP > 0 {
			skip := d.pendingCP
			if skip > len(samples)-i {
				skip = len(samples) - i
			}
			d.pendingCP -= skip
			i += skip
			continue
		}

		need := FFTSize - d.symBufSamples
		avail := len(samples) - i
		take := need
		if take > avail {
			take = avail
		}
		d.symBuf = append(d.symBuf, samples[i:i+take]...)
		d.symBufSamples += take
		i += take

		if d.symBufSamples < FFTSize {
			return Result{NeedSamples: FFTSize - d.symBufSamples}
		}

		d.ingestSymbol()
		d.symBuf = d.symBuf[:0]
		d.symBufSamples = 0
		d.pendingCP = CPLenFormat1

		d.nextSymInGrp++
		if d.nextSymInGrp == SymbolsPerGroup {
			d.nextSymInGrp = 0
			d.curGroup++
		}

		if d.curGroup == GroupsPerPreamble {
			if res, ok := d.evaluate(); ok {
				d.resetState()
				return res
			}
			d.resetState()
		}
	}
	return Result{NeedSamples: d.pendingCP + (FFTSize - d.symBufSamples)}
}

func (d *Detector) ingestSymbol() {
	spectrum := dft512(d.symBuf, d.baseSubc)
	for sc := 0; sc < SubcarrierCount; sc++ {
		mag := cmplx.Abs(spectrum[sc])
		d.magnitudeBuf[d.symIndex][sc] = mag
		d.hitBuf[d.symIndex][sc] = mag > d.threshold
	}
	d.symIndex++
}

// evaluate tests each of the 12 possible preamble starting subcarriers as
// a hypothesis: candidate c's symbols hop to hopStart(c, group) in group
// group, so its 20 "votes" are read from the bin each row actually
// hopped to, not from a fixed column. The first candidate whose hopped
// bins exceed threshold on at least MajorityRows of the 20 rows wins.
func (d *Detector) evaluate() (Result, bool) {
	for c := 0; c < SubcarrierCount; c++ {
		hits := 0
		for row := 0; row < TotalSymbols; row++ {
			group := row / SymbolsPerGroup
			col := hopStart(c, group)
			if d.hitBuf[row][col] {
				hits++
			}
		}
		if hits >= MajorityRows {
			return Result{Found: true, PreambleIndex: c}, true
		}
	}
	return Result{}, false
}

func dft512(x []complex128, firstBin int) []complex128 {
	n := len(x)
	out := make([]complex128, SubcarrierCount)
	for k := 0; k < SubcarrierCount; k++ {
		var sum complex128
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * float64(firstBin+k) * float64(t) / float64(n)
			sum += x[t] * cmplx.Exp(complex(0, angle))
		}
		out[k] = sum
	}
	return out
}
