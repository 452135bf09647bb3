package mac

import (
	"github.com/sonica-nb/enb/internal/stack"
	"github.com/sonica-nb/enb/internal/tables"
)

// TBSource supplies the transport-block bytes for a DL grant; it stands
// in for the RLC/PDCP read path spec.md §1 puts out of scope. A nil
// TBSource yields zero-filled transport blocks of the requested size.
type TBSource func(rnti uint32, nbytes int) []byte

// IsValidDLFunc reports whether raw (already mod 10240) is a valid DL
// subframe, sourced from internal/resourcegrid.IsValidDLDataSubframe by
// the caller that wires a SchedulerAdapter together (kept as a function
// value here so internal/mac never imports internal/clock/ofdm itself).
type IsValidDLFunc func(raw int) bool

// SchedulerAdapter implements stack.Collaborator backed by a concrete
// Scheduler, the production wiring for the "stack.get_dl_sched /
// stack.get_ul_sched" calls spec.md §4.M names: logically part of the
// external stack surface, but for a single-cell eNB the scheduling
// decision itself is exactly what internal/mac already computes.
type SchedulerAdapter struct {
	Sched     *Scheduler
	IsValidDL IsValidDLFunc
	TBs       TBSource

	// Inner, when non-nil, receives RachDetected/CRCInfo/TTIClock calls
	// after this adapter's own bookkeeping, so a real RRC/S1AP layer can
	// still observe them.
	Inner stack.Collaborator
}

// RachDetected queues a RAR for the preamble, addressed to the RA-RNTI
// derived from the NPRACH TTI per 36.321 §5.1.3 (1 + tti mod 10) and
// carrying one Msg3 grant, and forwards to Inner if present. It creates no
// per-user scheduling state itself.
func (a *SchedulerAdapter) RachDetected(tti, preambleIdx, ta int) {
	raRNTI := uint32(1 + tti%10)
	a.Sched.RAR.Enqueue(RARPending{
		RARNTI:    raRNTI,
		NPRACHTTI: tti,
		Msg3Grants: []Msg3Grant{
			{RNTI: raRNTI, NRUsc: tables.NRUscAnchorSingle, MCS: 0},
		},
	})
	if a.Inner != nil {
		a.Inner.RachDetected(tti, preambleIdx, ta)
	}
}

// GetDLSched asks Sched for a decision at ttiTxDL and translates it into
// a stack.DLSchedResult, fetching transport-block bytes via TBs.
func (a *SchedulerAdapter) GetDLSched(hfn, ttiTxDL int) stack.DLSchedResult {
	sfn := (ttiTxDL / 10) % 1024
	sfIdx := ttiTxDL % 10
	dec := a.Sched.GetDLSched(sfn, sfIdx, ttiTxDL, a.IsValidDL)

	switch dec.Kind {
	case GrantSIB1:
		tbs, err := SIB1TBSBytes(8)
		if err != nil {
			return stack.DLSchedResult{}
		}
		return stack.DLSchedResult{HasGrant: true, RNTI: 0xFFFF, MCS: 2, NofSF: 8, IsSIB1: true, TB: a.tb(0xFFFF, tbs), DataRaw: ttiTxDL}
	case GrantUserDL:
		return stack.DLSchedResult{HasGrant: true, RNTI: dec.RNTI, MCS: dec.UE.MCS, NofSF: dec.UE.NofSF, TB: a.tb(dec.RNTI, dec.UE.TBSBytes), DataRaw: dec.UE.DataRaw}
	case GrantRAR:
		return stack.DLSchedResult{HasGrant: true, RNTI: 0x0002, MCS: 0, NofSF: 1, TB: a.tb(0x0002, 8), DataRaw: dec.RAR.DataRaw}
	default:
		return stack.DLSchedResult{}
	}
}

// GetULSched asks Sched for a UL decision at ttiTxUL.
func (a *SchedulerAdapter) GetULSched(hfn, ttiTxUL int) stack.ULSchedResult {
	dec := a.Sched.GetULSched(ttiTxUL, a.IsValidDL)
	if !dec.Valid {
		return stack.ULSchedResult{}
	}
	return stack.ULSchedResult{
		HasGrant: true,
		RNTI:     dec.RNTI,
		MCS:      dec.UE.MCS,
		NRUsc:    tables.NRUscAnchorSingle,
		NofRU:    dec.UE.NofRU,
		NofRep:   1,
	}
}

// CRCInfo records nothing further itself (HARQ buffer state lives with
// the per-user UEState, mutated by the sf_worker directly) and forwards
// to Inner.
func (a *SchedulerAdapter) CRCInfo(tti int, rnti uint32, nbytes int, crcOK bool) {
	if a.Inner != nil {
		a.Inner.CRCInfo(tti, rnti, nbytes, crcOK)
	}
}

// TTIClock advances every user's scheduler timers and forwards to Inner.
func (a *SchedulerAdapter) TTIClock() {
	a.Sched.Tick()
	if a.Inner != nil {
		a.Inner.TTIClock()
	}
}

func (a *SchedulerAdapter) tb(rnti uint32, nbytes int) []byte {
	if a.TBs != nil {
		return a.TBs(rnti, nbytes)
	}
	return make([]byte, nbytes)
}

var _ stack.Collaborator = (*SchedulerAdapter)(nil)
