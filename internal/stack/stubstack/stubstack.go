// Package stubstack is a test double for internal/stack.Collaborator,
// recording every call instead of driving real RRC/S1AP logic; used by
// internal/sfworker and internal/txrx tests to assert scenario-level
// behaviour (spec.md §8's S1..S6) without a real core network stack.
package stubstack

import (
	"sync"

	"github.com/sonica-nb/enb/internal/stack"
)

// RachCall records one RachDetected invocation.
type RachCall struct {
	TTI         int
	PreambleIdx int
	TA          int
}

// CRCCall records one CRCInfo invocation.
type CRCCall struct {
	TTI   int
	RNTI  uint32
	Bytes int
	OK    bool
}

// Stub implements stack.Collaborator, queuing canned DL/UL schedule
// responses and recording every call for later assertion.
type Stub struct {
	mu sync.Mutex

	RachCalls []RachCall
	CRCCalls  []CRCCall
	TickCount int

	DLResponses map[int]stack.DLSchedResult // keyed by ttiTxDL
	ULResponses map[int]stack.ULSchedResult // keyed by ttiTxUL
}

// New returns an empty stub.
func New() *Stub {
	return &Stub{
		DLResponses: make(map[int]stack.DLSchedResult),
		ULResponses: make(map[int]stack.ULSchedResult),
	}
}

func (s *Stub) RachDetected(tti, preambleIdx, ta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RachCalls = append(s.RachCalls, RachCall{TTI: tti, PreambleIdx: preambleIdx, TA: ta})
}

func (s *Stub) GetDLSched(hfn, ttiTxDL int) stack.DLSchedResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DLResponses[ttiTxDL]
}

func (s *Stub) GetULSched(hfn, ttiTxUL int) stack.ULSchedResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ULResponses[ttiTxUL]
}

func (s *Stub) CRCInfo(tti int, rnti uint32, nbytes int, crcOK bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CRCCalls = append(s.CRCCalls, CRCCall{TTI: tti, RNTI: rnti, Bytes: nbytes, OK: crcOK})
}

func (s *Stub) TTIClock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TickCount++
}

// ScheduleDL registers a canned response for a future GetDLSched(ttiTxDL).
func (s *Stub) ScheduleDL(ttiTxDL int, r stack.DLSchedResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DLResponses[ttiTxDL] = r
}

// ScheduleUL registers a canned response for a future GetULSched(ttiTxUL).
func (s *Stub) ScheduleUL(ttiTxUL int, r stack.ULSchedResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ULResponses[ttiTxUL] = r
}

var _ stack.Collaborator = (*Stub)(nil)
