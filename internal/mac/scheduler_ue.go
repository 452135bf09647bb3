package mac

import "github.com/sonica-nb/enb/internal/tables"

// UECooldownSubframes is the 25-subframe cooldown of spec.md §4.J's user
// DL scheduler ("an internal cooldown of 25 subframes prevents rapid
// retrigger").
const UECooldownSubframes = 25

// ULPollWaitSubframes is the 30-subframe wait timer armed after every DL
// allocation's implicit UL poll.
const ULPollWaitSubframes = 30

// ULPollBytes is the size of the implicit UL poll spec.md §4.J arms after
// every DL allocation ("a 70-byte UL poll").
const ULPollBytes = 70

// UEState is the per-RNTI scheduling bookkeeping the user DL/UL
// sub-schedulers need; internal/mac does not own the full per-user RRC
// context of spec.md §3 (that lives with the external stack collaborator
// via internal/stack), only the fields the scheduler mutates each TTI.
type UEState struct {
	RNTI uint32

	// DL side.
	PendingDLBytes int
	DLActive       bool
	LastDLDCIRaw   int
	HasLastDLDCI   bool

	// UL side.
	PendingULBytes int
	MsgWaitTimer   int
}

// dlISF picks i_sf per spec.md §4.J: pending>20 bytes selects i_sf=3,
// otherwise i_sf=1.
func dlISF(pendingBytes int) int {
	if pendingBytes > 20 {
		return 3
	}
	return 1
}

// UEDLDecision is what the user-DL sub-scheduler decided for one RNTI.
type UEDLDecision struct {
	DCIRaw  int
	DataRaw int
	NofSF   int
	MCS     int
	TBSBytes int
}

// isUESearchSpaceDL implements spec.md §4.J: tti_tx_dl mod 8 < 2.
func isUESearchSpaceDL(ttiTxDL int) bool {
	return ttiTxDL%8 < 2
}

// TryScheduleDL attempts a DL grant for u at ttiTxDL, per spec.md §4.J's
// user DL scheduler: no allocation if one is already active, or if the
// cooldown since the last DCI has not elapsed, or if the search space /
// resource-map reservation fails. mcs is fixed at the caller's discretion
// (the reference eNB configuration uses a conservative default); this
// helper takes it as a parameter so the caller (internal/sfworker) can
// apply link-adaptation policy later without changing this contract.
func TryScheduleDL(u *UEState, ttiTxDL, mcs int, rmap *ResourceMap, isValidDL func(raw int) bool) (UEDLDecision, bool) {
	if u.PendingDLBytes == 0 || u.DLActive {
		return UEDLDecision{}, false
	}
	if u.HasLastDLDCI && ttiTxDL-u.LastDLDCIRaw < UECooldownSubframes {
		return UEDLDecision{}, false
	}
	if !isUESearchSpaceDL(ttiTxDL) || !isValidDL(ttiTxDL%10240) {
		return UEDLDecision{}, false
	}
	if !rmap.Alloc(ttiTxDL, false) {
		return UEDLDecision{}, false
	}

	nofSF := dlISF(u.PendingDLBytes)
	tbs, err := tables.DLTransportBlockBytes(mcs, nofSF)
	if err != nil {
		rmap.Free(ttiTxDL)
		return UEDLDecision{}, false
	}

	dataRaw := ttiTxDL + 5
	claimed := make([]int, 0, nofSF)
	for i := 0; i < nofSF; i++ {
		dataRaw = NextValidDL(dataRaw, isValidDL)
		if !rmap.Alloc(dataRaw, false) {
			// Roll back everything claimed so far for this grant.
			for _, r := range claimed {
				rmap.Free(r)
			}
			rmap.Free(ttiTxDL)
			return UEDLDecision{}, false
		}
		claimed = append(claimed, dataRaw)
		dataRaw++
	}

	u.LastDLDCIRaw = ttiTxDL
	u.HasLastDLDCI = true
	u.DLActive = true
	u.PendingULBytes += ULPollBytes
	u.MsgWaitTimer = ULPollWaitSubframes

	return UEDLDecision{DCIRaw: ttiTxDL, DataRaw: claimed[0], NofSF: nofSF, MCS: mcs, TBSBytes: tbs}, true
}

// ulMCSAndLen picks (mcs, len) per spec.md §4.J's user UL scheduler
// table: (9,4) for <=125 bytes pending, (10,6) otherwise.
func ulMCSAndLen(pendingBytes int) (mcs, nofRU int) {
	if pendingBytes <= 125 {
		return 9, 4
	}
	return 10, 6
}

// UEULDecision is what the user-UL sub-scheduler decided for one RNTI.
type UEULDecision struct {
	DCIRaw   int
	DataRaw  int
	MCS      int
	NofRU    int
	TBSBytes int
}

// TryScheduleUL attempts a UL grant for u at ttiTxUL, per spec.md §4.J:
// gated on the per-user msg_wait_timer reaching zero.
func TryScheduleUL(u *UEState, ttiTxUL int, rmap *ResourceMap, isValidDL func(raw int) bool) (UEULDecision, bool) {
	if u.PendingULBytes == 0 || u.MsgWaitTimer > 0 {
		return UEULDecision{}, false
	}
	if !isUESearchSpaceDL(ttiTxUL) || !isValidDL(ttiTxUL%10240) {
		return UEULDecision{}, false
	}
	if !rmap.Alloc(ttiTxUL, false) {
		return UEULDecision{}, false
	}

	mcs, nofRU := ulMCSAndLen(u.PendingULBytes)
	tbs, err := tables.ULTransportBlockBytes(mcs, nofRU)
	if err != nil {
		rmap.Free(ttiTxUL)
		return UEULDecision{}, false
	}

	u.PendingULBytes = 0
	u.MsgWaitTimer = ULPollWaitSubframes

	return UEULDecision{DCIRaw: ttiTxUL, DataRaw: ttiTxUL, MCS: mcs, NofRU: nofRU, TBSBytes: tbs}, true
}

// Tick decrements u's msg_wait_timer by one subframe, a no-op once it
// reaches zero; called once per TTI by the owning sf_worker.
func (u *UEState) Tick() {
	if u.MsgWaitTimer > 0 {
		u.MsgWaitTimer--
	}
}
