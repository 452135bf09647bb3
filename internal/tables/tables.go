// Package tables holds the fixed lookup tables from 3GPP 36.213 that the
// MAC scheduler and PHY codecs use to translate an (MCS, repetition/RU
// count) pair into a transport-block size. Zero entries mark "not a valid
// combination" per spec.md §4.J, and every lookup helper rejects them.
package tables

import "fmt"

// ErrInvalidTBS is returned when (mcs, idx) has no valid transport block
// size, i.e. the table entry is zero.
var ErrInvalidTBS = fmt.Errorf("tables: invalid mcs/index combination")

// dlTBS is 36.213 Table 16.4.1.5.1-1: NPDSCH transport block size in bytes
// indexed by [i_mcs][i_sf], i_sf in {1,2,3,4,5,6,8,10} mapped to columns
// 0..7 in that order.
var dlISFValues = [8]int{1, 2, 3, 4, 5, 6, 8, 10}

var dlTBS = [13][8]int{
	{16, 32, 56, 88, 120, 152, 208, 256},
	{20, 40, 72, 104, 144, 176, 224, 296},
	{24, 48, 88, 128, 168, 224, 256, 328},
	{28, 56, 100, 144, 192, 256, 328, 424},
	{32, 64, 120, 176, 224, 296, 392, 504},
	{40, 80, 144, 208, 272, 360, 456, 600},
	{48, 96, 176, 256, 328, 440, 568, 744},
	{56, 120, 208, 296, 392, 520, 680, 872},
	{64, 144, 240, 352, 456, 600, 776, 1000},
	{72, 168, 280, 424, 536, 680, 872, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0},
}

// ulRUValues are the number of resource units a UL TBS table column covers.
var ulRUValues = [8]int{1, 2, 3, 4, 5, 6, 8, 10}

// ulTBS is 36.213 Table 16.5.1.2-2: NPUSCH transport block size in bytes
// indexed by [i_mcs][i_ru].
var ulTBS = [14][8]int{
	{16, 32, 56, 88, 120, 152, 208, 256},
	{24, 56, 88, 144, 176, 208, 256, 344},
	{32, 72, 144, 176, 208, 256, 328, 424},
	{40, 104, 176, 208, 256, 328, 424, 536},
	{56, 120, 208, 256, 328, 408, 536, 680},
	{72, 144, 224, 328, 424, 520, 680, 872},
	{88, 176, 256, 392, 504, 600, 808, 1000},
	{104, 224, 328, 472, 584, 712, 936, 1224},
	{120, 256, 392, 536, 680, 808, 1096, 1384},
	{136, 296, 456, 616, 776, 936, 1256, 0},
	{144, 328, 504, 680, 872, 1032, 0, 0},
	{176, 376, 584, 776, 1000, 0, 0, 0},
	{208, 440, 680, 1000, 0, 0, 0, 0},
	{224, 488, 744, 0, 0, 0, 0, 0},
}

// columnForISF maps the repetition/RU-count enum values used by the rest
// of the PHY to the table's column index.
func columnForISF(isf int, values [8]int) (int, bool) {
	for i, v := range values {
		if v == isf {
			return i, true
		}
	}
	return 0, false
}

// DLTransportBlockBytes looks up the NPDSCH TBS for MCS mcs (0..12) and
// i_sf in {1,2,3,4,5,6,8,10}.
func DLTransportBlockBytes(mcs, iSF int) (int, error) {
	if mcs < 0 || mcs >= len(dlTBS) {
		return 0, ErrInvalidTBS
	}
	col, ok := columnForISF(iSF, dlISFValues)
	if !ok {
		return 0, ErrInvalidTBS
	}
	v := dlTBS[mcs][col]
	if v == 0 {
		return 0, ErrInvalidTBS
	}
	return v, nil
}

// ULTransportBlockBytes looks up the NPUSCH TBS for MCS mcs (0..13) and
// the allocation's RU-count-derived i_ru in {1,2,3,4,5,6,8,10}.
func ULTransportBlockBytes(mcs, iRU int) (int, error) {
	if mcs < 0 || mcs >= len(ulTBS) {
		return 0, ErrInvalidTBS
	}
	col, ok := columnForISF(iRU, ulRUValues)
	if !ok {
		return 0, ErrInvalidTBS
	}
	v := ulTBS[mcs][col]
	if v == 0 {
		return 0, ErrInvalidTBS
	}
	return v, nil
}

// Frame/TTI constants shared across the whole PHY/MAC pipeline.
const (
	HyperFrameMax  = 1024 // HFN wraps at this value
	SystemFrameMax = 1024 // SFN wraps at this value
	SubframesPerHF = 10240
	SubframesPerSF = 10

	// FddHarqDelayULMs is the fixed DL scheduling lookahead (4 ms).
	FddHarqDelayULMs = 4
	// FddDelayULNBMs + FddHarqDelayDLMs is the fixed UL scheduling
	// lookahead (8 + 5 ms per spec.md's worked examples; kept as two
	// named constants so call sites read the same way the spec does).
	FddDelayULNBMs    = 8
	FddHarqDelayDLMs  = 5
	TotalULLookahead  = FddDelayULNBMs + FddHarqDelayDLMs
	NRUscAnchorSingle = 12
)
