// Package sfworker implements the per-TTI subframe worker of spec.md
// §4.H: the single-threaded state machine that ties the OFDM front-end,
// NPUSCH/NPDSCH/NPDCCH codecs, channel estimator, and resource-map
// builder together in the correct per-subframe order, gated only by the
// TTI-ordering semaphore (internal/clock.Semaphore) before transmission.
package sfworker

import (
	"math/cmplx"
	"sync"

	"github.com/sonica-nb/enb/internal/chest"
	"github.com/sonica-nb/enb/internal/clock"
	"github.com/sonica-nb/enb/internal/dci"
	"github.com/sonica-nb/enb/internal/npdcch"
	"github.com/sonica-nb/enb/internal/npdsch"
	"github.com/sonica-nb/enb/internal/npusch"
	"github.com/sonica-nb/enb/internal/ofdm"
	"github.com/sonica-nb/enb/internal/resourcegrid"
	"github.com/sonica-nb/enb/internal/stack"
	"github.com/sonica-nb/enb/internal/tables"
)

// Config is the fixed, start-up-immutable configuration a Worker needs
// (spec.md §3's "Cell configuration... immutable after start").
type Config struct {
	CellID           int
	NofPorts         int
	GroupHoppingOn   bool
	GroupAssignment  int
}

// armedULGrant is the record spec.md §4.H step 2 describes: "arm a
// record (tx_tti, rnti, data_ptr) so that when the subframe worker later
// sees tti_rx == tx_tti it applies NPUSCH configuration to the uplink
// decoder."
type armedULGrant struct {
	rnti          uint32
	startRaw      int
	mcs, nruSc    int
	scAlloc0      int
	nofRU, nofRep int
	tbBytes       int
	acc           *npusch.DecodeAccumulator
	receivedRU    int
}

// sib1State is the sub-state of spec.md §4.H step 5: "a counter
// sib1_sf_idx walks from 0 to nof_sf*nof_rep-1; only the first SIB1
// subframe in a block requests a fresh SIB1 payload." symbols holds the
// whole SIB1 transport block pre-encoded and rate-matched once across
// the full nof_sf*nof_rep window (spec.md §4.C); each subframe places
// the reAvail-sized slice belonging to its own position in that window
// instead of re-encoding the transport block from scratch every time.
type sib1State struct {
	active  bool
	sfIdx   int // next instance to place, 0..total-1
	total   int
	symbols []complex128
	reAvail int
}

func (s *sib1State) slice(i int) []complex128 {
	start := i * s.reAvail
	if start > len(s.symbols) {
		start = len(s.symbols)
	}
	end := start + s.reAvail
	if end > len(s.symbols) {
		end = len(s.symbols)
	}
	return s.symbols[start:end]
}

// npdschActive is the single in-flight user/RAR NPDSCH transmission
// gated by spec.md §4.H step 6's npdsch_active flag. Like sib1State, the
// whole transport block is rate-matched once across its nofSF-subframe
// span when the grant is armed, and each subframe places its own
// reAvail-sized slice of that single encoding.
type npdschActive struct {
	rnti    uint32
	symbols []complex128
	reAvail int
	nofSF   int
	sfIdx   int // next instance to place, 0..nofSF-1
}

func (a *npdschActive) slice(i int) []complex128 {
	start := i * a.reAvail
	if start > len(a.symbols) {
		start = len(a.symbols)
	}
	end := start + a.reAvail
	if end > len(a.symbols) {
		end = len(a.symbols)
	}
	return a.symbols[start:end]
}

// Worker is one sf_worker instance; a cell runs 1..4 of these round-robin
// (spec.md §5), each guarded by its own mutex.
type Worker struct {
	mu sync.Mutex

	cfg   Config
	stack stack.Collaborator

	armedUL map[int]*armedULGrant // keyed by first-expected-subframe raw index
	armedDL map[int]*npdschActive // keyed by scheduled data-start raw index (mod 10240)
	sib1    sib1State
	active  *npdschActive
	pending []*npdschActive // FIFO, spec.md §4.H step 6

	mibCache map[int][]complex128 // keyed by window index (SFN/8)
}

// New constructs a Worker for the given cell configuration and stack
// collaborator (in production, a *mac.SchedulerAdapter; in tests, a
// *stubstack.Stub).
func New(cfg Config, collaborator stack.Collaborator) *Worker {
	return &Worker{
		cfg:      cfg,
		stack:    collaborator,
		armedUL:  make(map[int]*armedULGrant),
		armedDL:  make(map[int]*npdschActive),
		mibCache: make(map[int][]complex128),
	}
}

// Result is what Process hands back to the TX/RX thread for one TTI.
type Result struct {
	TxIQ []complex128
}

// Process runs one full subframe worker iteration for rxTTI, per spec.md
// §4.H's seven steps. rxIQ is the received subframe's I/Q samples (may be
// nil on a DL-only carrier in this simplified single-carrier model).
func (w *Worker) Process(rxTTI clock.TTI, rxIQ []complex128) Result {
	w.mu.Lock()
	defer w.mu.Unlock()

	ttiTxDL := rxTTI.Add(4)
	ttiTxUL := rxTTI.Add(8)
	hfn := ttiTxDL.HFN

	// Step 3: if a UL grant is armed and expected now, decode it.
	w.handleArmedUL(rxTTI, rxIQ)

	// Step 1/2: ask MAC for the DL grant at ttiTxDL and the UL grant to
	// announce (DCI) now, arming it for later reception.
	dlResp := w.stack.GetDLSched(hfn, ttiTxDL.Raw())
	ulResp := w.stack.GetULSched(hfn, ttiTxUL.Raw())

	grid := ofdm.Grid{}
	grid.Clear()

	// Step 4 / spec.md §4.G's priority order.
	w.placeSyncAndBroadcast(&grid, ttiTxDL)

	var dlDCIBits []int
	var dlRNTI uint32
	var haveDLDCI bool

	// Step 5/6: a fresh DL grant's DCI is sent the subframe MAC hands it
	// out; its NPDSCH data is armed to begin on the first valid DL
	// subframe at or after DCI+5
	// (SIB1 carries no separate grant and starts on this same subframe),
	// per spec.md §4.J. resolveNPDSCHGrant both arms new grants and
	// advances whatever transmission (SIB1 or user/RAR) is already due.
	if dlResp.HasGrant {
		d := dci.FormatN1{ResourceAssignment: uint32(dlResp.NofSF), MCS: uint32(dlResp.MCS)}
		if dlResp.IsSIB1 {
			d.IsSIB1 = true
		}
		dlDCIBits = d.Pack()
		dlRNTI = dlResp.RNTI
		haveDLDCI = true
	}

	if symbols, ok := w.resolveNPDSCHGrant(ttiTxDL, dlResp); ok {
		resourcegrid.PlaceNPDSCH(&grid, symbols, w.cfg.CellID)
	}

	if ulResp.HasGrant {
		u := dci.FormatN0{
			ResourceAssignment: uint32(ulResp.NofRU),
			MCS:                uint32(ulResp.MCS),
			RepetitionNumber:   uint32(ulResp.NofRep),
		}
		bits := u.Pack()
		w.armUL(ttiTxUL.Raw(), ulResp)
		if !haveDLDCI {
			dlDCIBits = bits
			dlRNTI = ulResp.RNTI
			haveDLDCI = true
		}
	}

	if haveDLDCI {
		dciSymbols := npdcch.Encode(dlDCIBits, dlRNTI, npdcch.L2, w.cfg.CellID, int(ttiTxDL.SFN))
		resourcegrid.PlaceNPDCCH(&grid, dciSymbols, w.cfg.CellID)
	}

	// Step 7: OFDM-IFFT.
	txIQ := ofdm.Inverse(&grid)
	w.stack.TTIClock()
	return Result{TxIQ: txIQ}
}

// placeSyncAndBroadcast implements spec.md §4.G steps 1-5 (grid is
// already zeroed by ofdm.Grid's zero value / Clear).
func (w *Worker) placeSyncAndBroadcast(grid *ofdm.Grid, ttiTxDL clock.TTI) {
	switch {
	case ttiTxDL.SfIdx == 0:
		window := ttiTxDL.SFN / resourcegrid.MIBWindowLen
		coded, ok := w.mibCache[window]
		if !ok {
			mib := resourcegrid.MIB{HFN: uint32(ttiTxDL.HFN)}
			coded = resourcegrid.EncodeMIB(mib.Pack())
			w.mibCache[window] = coded
			for k := range w.mibCache {
				if k != window {
					delete(w.mibCache, k)
				}
			}
		}
		resourcegrid.PlaceMIB(grid, coded, ttiTxDL.SFN%resourcegrid.MIBWindowLen)
	case ttiTxDL.SfIdx == 5:
		resourcegrid.PlaceNPSS(grid)
	case ttiTxDL.SfIdx == 9 && ttiTxDL.SFN%2 == 0:
		resourcegrid.PlaceNSSS(grid, w.cfg.CellID)
	default:
		resourcegrid.PlaceNRS(grid, w.cfg.CellID, w.cfg.NofPorts)
	}
}

// startSIB1 rate-matches the SIB1 transport block once across its whole
// dlResp.NofSF-subframe block (spec.md §4.C), to be sliced one
// reAvail-sized piece per subframe by resolveNPDSCHGrant. SIB1 has no
// preceding DCI of its own, so it starts on this same subframe.
func (w *Worker) startSIB1(ttiTxDL clock.TTI, dlResp stack.DLSchedResult) {
	reAvail := resourcegrid.AvailableDataRECount(w.cfg.CellID, w.cfg.NofPorts)
	const nofRep = 1
	codedLen := npdsch.CodedBitLen(dlResp.NofSF, nofRep, w.cfg.CellID, w.cfg.NofPorts)
	symbols := npdsch.Encode(dlResp.TB, codedLen, 0, 0xFFFF, int(ttiTxDL.SFN), w.cfg.CellID)
	w.sib1 = sib1State{active: true, total: dlResp.NofSF, symbols: symbols, reAvail: reAvail}
}

// armDLData rate-matches a user/RAR transport block once across its whole
// dlResp.NofSF-subframe span and files it under dlResp.DataRaw, the
// subframe spec.md §4.J schedules it to start on: the first valid DL
// subframe at or after the subframe of this decision's DCI plus 5.
func (w *Worker) armDLData(ttiTxDL clock.TTI, dlResp stack.DLSchedResult) {
	reAvail := resourcegrid.AvailableDataRECount(w.cfg.CellID, w.cfg.NofPorts)
	const nofRep = 1 // DL repetition is not modelled by the scheduler; NofRep fixed at 1
	codedLen := npdsch.CodedBitLen(dlResp.NofSF, nofRep, w.cfg.CellID, w.cfg.NofPorts)
	symbols := npdsch.Encode(dlResp.TB, codedLen, 0, dlResp.RNTI, int(ttiTxDL.SFN), w.cfg.CellID)
	w.armedDL[dlResp.DataRaw%10240] = &npdschActive{
		rnti: dlResp.RNTI, symbols: symbols, reAvail: reAvail, nofSF: dlResp.NofSF,
	}
}

// resolveNPDSCHGrant implements spec.md §4.H steps 5-6 together with the
// §4.J DCI-to-data gap: a fresh grant is rate-matched and filed under its
// scheduled data-start subframe (same subframe for SIB1, dlResp.DataRaw
// for user/RAR grants) rather than placed immediately; SIB1 takes
// priority over any due user/RAR transmission, which queues behind
// whatever is already active.
func (w *Worker) resolveNPDSCHGrant(ttiTxDL clock.TTI, dlResp stack.DLSchedResult) (symbols []complex128, ok bool) {
	if dlResp.HasGrant && dlResp.IsSIB1 {
		w.startSIB1(ttiTxDL, dlResp)
	} else if dlResp.HasGrant {
		w.armDLData(ttiTxDL, dlResp)
	}

	if w.sib1.active {
		sym := w.sib1.slice(w.sib1.sfIdx)
		w.sib1.sfIdx++
		if w.sib1.sfIdx >= w.sib1.total {
			w.sib1.active = false
		}
		return sym, true
	}

	if due, found := w.armedDL[ttiTxDL.Raw()]; found {
		delete(w.armedDL, ttiTxDL.Raw())
		if w.active == nil {
			w.active = due
		} else {
			w.pending = append(w.pending, due)
		}
	}

	if w.active != nil {
		a := w.active
		sym := a.slice(a.sfIdx)
		a.sfIdx++
		if a.sfIdx >= a.nofSF {
			w.active = nil
			if len(w.pending) > 0 {
				w.active = w.pending[0]
				w.pending = w.pending[1:]
			}
		}
		return sym, true
	}

	return nil, false
}

// armUL arms a record per spec.md §4.H step 2. tbBytes comes from the
// same 36.213 UL TBS table the scheduler used to pick (mcs, nofRU); a
// lookup failure here would mean the scheduler itself offered an invalid
// combination, so it falls back to a conservative 12-byte guess rather
// than dropping the grant.
func (w *Worker) armUL(startRaw int, ulResp stack.ULSchedResult) {
	tbBytes, err := tables.ULTransportBlockBytes(ulResp.MCS, ulResp.NofRU)
	if err != nil {
		tbBytes = 12
	}
	acc := npusch.NewDecodeAccumulator(tbBytes, 1.0)
	w.armedUL[startRaw%10240] = &armedULGrant{
		rnti:     ulResp.RNTI,
		startRaw: startRaw,
		mcs:      ulResp.MCS,
		nruSc:    ulResp.NRUsc,
		scAlloc0: 0, // this eNB only ever schedules the single anchor RU at subcarrier 0
		nofRU:    ulResp.NofRU,
		nofRep:   ulResp.NofRep,
		tbBytes:  tbBytes,
		acc:      acc,
	}
}

// handleArmedUL implements spec.md §4.H step 3: if a UL grant is armed
// and its first expected subframe matches rxTTI, decode the RU via the
// channel estimator and NPUSCH decoder, accumulating soft bits across
// repetitions.
func (w *Worker) handleArmedUL(rxTTI clock.TTI, rxIQ []complex128) {
	raw := rxTTI.Raw()
	grant, ok := w.armedUL[raw]
	if !ok || rxIQ == nil {
		return
	}

	g, err := ofdm.Forward(rxIQ)
	if err != nil {
		return
	}
	var grid2D [14][12]complex128
	for sym := 0; sym < 14; sym++ {
		for sc := 0; sc < 12; sc++ {
			grid2D[sym][sc] = g.At(sym, sc)
		}
	}
	est := chest.EstimateUL(grid2D, w.cfg.CellID, w.cfg.GroupAssignment, w.cfg.GroupHoppingOn)

	equalised := make([]complex128, 0, grant.nruSc*12)
	for slot := 0; slot < 2; slot++ {
		for s := 0; s < 7; s++ {
			if s == 3 {
				continue // DMRS
			}
			sym := slot*7 + s
			for sc := 0; sc < grant.nruSc; sc++ {
				scIdx := (grant.scAlloc0 + sc) % 12
				h := est.H[sym][scIdx]
				rxSample := grid2D[sym][scIdx]
				if cmplx.Abs(h) > 1e-6 {
					equalised = append(equalised, rxSample/h)
				} else {
					equalised = append(equalised, rxSample)
				}
			}
		}
	}
	codedLen := len(equalised) * 2
	grant.acc.AccumulateRU(equalised, grant.nruSc, codedLen, 0)
	grant.receivedRU++

	if grant.receivedRU >= grant.nofRU*grant.nofRep {
		payload, decErr := grant.acc.Decode()
		ok := decErr == nil
		w.stack.CRCInfo(raw, grant.rnti, len(payload), ok)
		delete(w.armedUL, raw)
	}
}
