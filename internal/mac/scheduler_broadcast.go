package mac

import "github.com/sonica-nb/enb/internal/tables"

// SIB1Period is SIB1_NB_TTI, the 256-radio-frame (SFN) period; the
// SIB1MaxRep periods of one SFN cycle each carry the nrep repetitions of
// spec.md §4.J.
const SIB1Period = 256

// SIB1MaxRep is SIB1_NB_MAX_REP, the number of SIB1 periods per
// 1024-radio-frame SFN cycle.
const SIB1MaxRep = 4

// SIB1Grant describes one subframe's worth of SIB1 transmission.
type SIB1Grant struct {
	Raw      int
	IsFirst  bool // true only on the first subframe of each 8-subframe block
	NofSF    int
	NofRep   int
}

// sib1Schedule computes sib1_sfn[k*nrep+i] = k*SIB1Period + sib1_start +
// i*(SIB1Period/nrep) for k in [0, SIB1MaxRep) and i in [0, nrep), per
// spec.md §4.J's formula, given the configured sib1_start and nrep.
func sib1Schedule(sib1Start, nrep int) []int {
	out := make([]int, 0, SIB1MaxRep*nrep)
	for k := 0; k < SIB1MaxRep; k++ {
		for i := 0; i < nrep; i++ {
			out = append(out, k*SIB1Period+sib1Start+i*(SIB1Period/nrep))
		}
	}
	return out
}

// IsSIB1Subframe implements spec.md §4.J's SIB1 subframe predicate:
// sf_idx == 4, (sfn+sib1_start) mod 2 == 0, and sfn falls within one of
// the 16-radio-frame repetition windows.
func IsSIB1Subframe(sfn, sfIdx, sib1Start, nrep int) (isSIB1 bool, blockIndex int, isFirst bool) {
	if sfIdx != 4 {
		return false, 0, false
	}
	if (sfn+sib1Start)%2 != 0 {
		return false, 0, false
	}
	windows := sib1Schedule(sib1Start, nrep)
	for i, w := range windows {
		if sfn >= w && sfn < w+16 {
			return true, i, sfn == w
		}
	}
	return false, 0, false
}

// IsSIB2Subframe implements spec.md §4.J's SIB2 predicate: sf_idx==1,
// sfn mod 512 < 16, sfn mod 4 == 0.
func IsSIB2Subframe(sfn, sfIdx int) bool {
	return sfIdx == 1 && sfn%512 < 16 && sfn%4 == 0
}

// BroadcastScheduler drives SIB1/SIB2 placement decisions. It holds no
// transmit state of its own (the sf_worker's sib1_sf_idx walk lives in
// internal/sfworker); it only answers "is this subframe a broadcast
// subframe" and reserves the resource-map cell.
type BroadcastScheduler struct {
	SIB1Start int
	SIB1Nrep  int
	rmap      *ResourceMap
}

// NewBroadcastScheduler constructs a scheduler bound to rmap.
func NewBroadcastScheduler(rmap *ResourceMap, sib1Start, sib1Nrep int) *BroadcastScheduler {
	return &BroadcastScheduler{SIB1Start: sib1Start, SIB1Nrep: sib1Nrep, rmap: rmap}
}

// TryReserveSIB1 claims raw in the resource map as a broadcast subframe,
// always succeeding (broadcast wins every tie per spec.md §3).
func (b *BroadcastScheduler) TryReserveSIB1(raw int) {
	b.rmap.Alloc(raw, true)
}

// SIB1TBSBytes returns the fixed TBS used for SIB1 spread over nofSF
// subframes (nofSF follows the same {1,2,3,4,5,6,8,10} i_sf table as
// any other DL grant; SIB1 uses a fixed MCS of 2 per the reference
// configuration defaults).
func SIB1TBSBytes(nofSF int) (int, error) {
	return tables.DLTransportBlockBytes(2, nofSF)
}
