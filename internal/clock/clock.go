// Package clock carries the eNB's single shared notion of time: the
// (HFN, SFN, sf_idx) tuple advanced exactly once per transmitted subframe,
// and the TTI-ordering semaphore described in spec.md §4.L / §5 that keeps
// concurrent subframe workers from handing the radio samples out of order.
//
// Grounded on the teacher's tq.go wake-up-condition pattern (one
// sync.Cond per channel, a mutex-guarded "whose turn is it" flag) adapted
// from "which channel may transmit next" to "which TTI may transmit next".
package clock

import (
	"sync"

	"github.com/sonica-nb/enb/internal/tables"
)

// TTI is a single (HFN, SFN, sf_idx) tuple. SFN and sf_idx alone identify
// a subframe within one hyperframe; HFN disambiguates across SFN wraps,
// so the full cycle is 1024 hyperframes of 10240 subframes each.
type TTI struct {
	HFN   int
	SFN   int
	SfIdx int
}

// Raw returns the flattened 0..SubframesPerHF-1 index used by resource-map
// tables, ignoring HFN (which only matters for MIB/NPRACH scheduling that
// spans multiple hyperframes and is handled separately).
func (t TTI) Raw() int {
	return t.SFN*tables.SubframesPerSF + t.SfIdx
}

// Add returns the TTI n subframes in the future, wrapping SFN/HFN as
// needed, mirroring the TX/RX thread's own wrap arithmetic in spec.md §4.I.
func (t TTI) Add(n int) TTI {
	raw := t.HFN*tables.SubframesPerHF + t.Raw() + n
	total := tables.HyperFrameMax * tables.SubframesPerHF
	raw = ((raw % total) + total) % total
	return TTI{
		HFN:   raw / (tables.HyperFrameMax * tables.SubframesPerSF) % tables.HyperFrameMax,
		SFN:   (raw / tables.SubframesPerSF) % tables.SystemFrameMax,
		SfIdx: raw % tables.SubframesPerSF,
	}
}

// Sub reports, mod the full HFN cycle, how many subframes separate b from
// a (a earlier than b => positive), as required by TESTABLE PROPERTY 1.
func Sub(a, b TTI) int {
	flatten := func(t TTI) int {
		return t.HFN*tables.HyperFrameMax*tables.SubframesPerSF + t.Raw()
	}
	total := tables.HyperFrameMax * tables.HyperFrameMax * tables.SubframesPerSF
	d := (flatten(b) - flatten(a)) % total
	if d < 0 {
		d += total
	}
	return d
}

// Semaphore enforces spec.md §4.L: workers call Wait(id) before
// transmitting; only the worker whose TTI is at the head of a FIFO
// populated in TTI order is released, so radio transmissions are emitted
// strictly in TTI order even when several sf_workers run in parallel.
type Semaphore struct {
	mu      sync.Mutex
	cond    *sync.Cond
	nextUp  int64 // monotonically increasing ticket counter, not a TTI
	ticket  int64
	closed  bool
}

// NewSemaphore constructs an empty TTI semaphore.
func NewSemaphore() *Semaphore {
	s := &Semaphore{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Reserve returns a ticket that identifies this subframe's place in the
// transmission order. The TX/RX thread calls Reserve once per TTI, in
// TTI order, handing the ticket to whichever worker will process it.
func (s *Semaphore) Reserve() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.ticket
	s.ticket++
	return t
}

// Wait blocks until ticket is at the head of the queue, then releases it.
// The caller must have finished all of its encoding work before calling
// Wait, so the "end of burst" timestamp handed to the radio never regresses.
func (s *Semaphore) Wait(ticket int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.closed && ticket != s.nextUp {
		s.cond.Wait()
	}
	if s.closed {
		return
	}
	s.nextUp++
	s.cond.Broadcast()
}

// Close releases every blocked Wait call; used on cooperative shutdown.
func (s *Semaphore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
}
