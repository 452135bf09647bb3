// Package stack names the narrow external-collaborator surface of
// spec.md §4.M: the interfaces sf_worker, the NPRACH worker, and the
// TX/RX thread call into RRC/RLC/PDCP/S1AP, without implementing any of
// those layers (deliberately out of scope per spec.md §1).
package stack

// Collaborator is the synchronous, per-TTI surface sf_worker and the
// NPRACH worker call into. Implementations must not block for long: the
// PHY/MAC pipeline has no per-operation timeout (spec.md §5), so a slow
// collaborator stalls the radio.
type Collaborator interface {
	// RachDetected is called from the NPRACH worker thread on a
	// successful preamble detection.
	RachDetected(tti, preambleIdx int, ta int)

	// GetDLSched / GetULSched are called synchronously, per TTI, from
	// sf_worker to retrieve the scheduling decision for hfn/ttiTxDL or
	// ttiTxUL.
	GetDLSched(hfn, ttiTxDL int) DLSchedResult
	GetULSched(hfn, ttiTxUL int) ULSchedResult

	// CRCInfo is called from sf_worker on UL decode completion.
	CRCInfo(tti int, rnti uint32, nbytes int, crcOK bool)

	// TTIClock is called once per transmitted TTI from the TX path to
	// advance L2/L3 timers.
	TTIClock()
}

// RLC is the narrow subset of RLC this PHY/MAC core depends on.
type RLC interface {
	WritePDU(rnti uint32, lcid uint8, payload []byte)
	ReadPDU(rnti uint32, lcid uint8, maxBytes int) []byte
}

// PDCP is the narrow subset of PDCP this PHY/MAC core depends on.
type PDCP interface {
	WriteSDU(rnti uint32, lcid uint8, sdu []byte)
}

// RRC is the narrow subset of RRC this PHY/MAC core depends on.
type RRC interface {
	AddUser(rnti uint32)
	ReadPDUBCCHDLSCH(tti int) []byte
}

// S1AP is the narrow subset of S1AP this PHY/MAC core depends on.
type S1AP interface {
	InitialUE(rnti uint32, nasPDU []byte)
	WritePDU(rnti uint32, payload []byte)
}

// DLSchedResult is what GetDLSched returns: whether anything should be
// transmitted this TTI and, if so, the transport block and its framing.
// DataRaw is the raw subframe index (clock.TTI.Raw(), not yet reduced mod
// 10240) the transport block itself is actually placed on: for SIB1 that
// is this same subframe (no preceding grant), for RAR/user-data grants it
// is the first valid DL subframe at or after the subframe of the DCI this
// decision also carries plus 5, per spec.md §4.J.
type DLSchedResult struct {
	HasGrant bool
	RNTI     uint32
	MCS      int
	NofSF    int
	IsSIB1   bool
	TB       []byte
	DataRaw  int
}

// ULSchedResult is what GetULSched returns: whether a UL reception is
// expected this TTI and, if so, its grant parameters.
type ULSchedResult struct {
	HasGrant bool
	RNTI     uint32
	MCS      int
	NRUsc    int
	NofRU    int
	NofRep   int
}
