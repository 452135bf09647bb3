package mac

// RARPending is one queued random-access response, spec.md §3's "RAR
// pending queue" entry.
type RARPending struct {
	RARNTI      uint32
	NPRACHTTI   int
	Msg3Grants  []Msg3Grant
}

// Msg3Grant is one of up to four MSG3 uplink grant descriptors carried in
// a RAR.
type Msg3Grant struct {
	RNTI      uint32
	NRUsc     int
	MCS       int
}

// RARDecision is what the RAR sub-scheduler decided for one pending
// entry: which subframe carries its DCI, which carries the RAR payload,
// and which UL subframes are reserved for the resulting MSG3s.
type RARDecision struct {
	DCIRaw      int
	DataRaw     int
	Msg3ULRaws  []int
}

// RARScheduler drains the RAR FIFO per spec.md §4.J.
type RARScheduler struct {
	pending []RARPending
	rmap    *ResourceMap
	ulRmap  *ResourceMap
}

// NewRARScheduler constructs an empty scheduler bound to the DL and UL
// resource maps.
func NewRARScheduler(dlRmap, ulRmap *ResourceMap) *RARScheduler {
	return &RARScheduler{rmap: dlRmap, ulRmap: ulRmap}
}

// Enqueue appends p to the FIFO, to be drained in order.
func (s *RARScheduler) Enqueue(p RARPending) {
	s.pending = append(s.pending, p)
}

// Pending reports whether any RAR awaits scheduling.
func (s *RARScheduler) Pending() bool {
	return len(s.pending) > 0
}

// isUESearchSpaceRAR implements spec.md §4.J's RAR search-space rule:
// tti_tx_dl mod 16 < 8.
func isUESearchSpaceRAR(ttiTxDL int) bool {
	return ttiTxDL%16 < 8
}

// TryDrain attempts to schedule the head-of-queue RAR at ttiTxDL, given a
// predicate for DL subframe validity. On success it pops the queue entry,
// reserves the DCI subframe (ttiTxDL), the RAR data subframe at the next
// valid DL subframe at-or-after ttiTxDL+5, and the MSG3 UL subframes at
// rar_tx_tti+13+[0, len(msg3)).
func (s *RARScheduler) TryDrain(ttiTxDL int, isValidDL func(raw int) bool) (RARDecision, bool) {
	if len(s.pending) == 0 {
		return RARDecision{}, false
	}
	if !isUESearchSpaceRAR(ttiTxDL) || !isValidDL(ttiTxDL%10240) {
		return RARDecision{}, false
	}
	if !s.rmap.Alloc(ttiTxDL, false) {
		return RARDecision{}, false
	}

	dataRaw := NextValidDL(ttiTxDL+5, isValidDL)
	if !s.rmap.Alloc(dataRaw, false) {
		s.rmap.Free(ttiTxDL)
		return RARDecision{}, false
	}

	entry := s.pending[0]
	msg3Raws := make([]int, len(entry.Msg3Grants))
	for i := range entry.Msg3Grants {
		raw := dataRaw + 13 + i
		s.ulRmap.Alloc(raw, false)
		msg3Raws[i] = raw
	}
	s.pending = s.pending[1:]

	return RARDecision{DCIRaw: ttiTxDL, DataRaw: dataRaw, Msg3ULRaws: msg3Raws}, true
}
