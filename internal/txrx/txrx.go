// Package txrx implements the TX/RX thread of spec.md §4.I: the single
// loop that owns the radio, advances the cell clock one subframe at a
// time, dispatches each subframe to a pool of sf_worker instances behind
// the TTI-ordering semaphore, and feeds a raw copy of every received
// subframe to the NPRACH detector. Grounded on the teacher's main loop in
// cmd/direwolf/main.go (a single audio-read loop dispatching decoded
// frames to channel-specific goroutines) generalised from "read one audio
// block, decode AX.25 frames" to "read one subframe, run one sf_worker".
package txrx

import (
	"github.com/sonica-nb/enb/internal/clock"
	"github.com/sonica-nb/enb/internal/logging"
	"github.com/sonica-nb/enb/internal/nprach"
	"github.com/sonica-nb/enb/internal/radio"
	"github.com/sonica-nb/enb/internal/sfworker"
	"github.com/sonica-nb/enb/internal/stack"
)

var log = logging.For("txrx")

// startupTTI and startupHFN implement spec.md §4.I's startup rule:
// "set tti = 10240-5, HFN = 1023 so that the first emitted TX subframe
// has tti_tx_dl == 0 and HFN == 0".
const (
	startupTTI = 10240 - 5
	startupHFN = 1023
)

// Config parametrises a Loop: the number of subframe worker threads
// (spec.md §5: "default 1, max 4") and the per-worker cell configuration.
type Config struct {
	NofWorkers int
	CellCfg    sfworker.Config
}

// Loop is one running TX/RX thread.
type Loop struct {
	cfg   Config
	radio radio.Device
	nprachDetector *nprach.Detector
	stackColl stack.Collaborator

	workers []*sfworker.Worker
	sem     *clock.Semaphore

	tti int // raw 0..10239, the rx tti advance last returned (startupTTI before the first call)
	hfn int

	running chan struct{}
	stopped chan struct{}
}

// New constructs a Loop at its spec.md §4.I startup state, one sf_worker
// per cfg.NofWorkers (clamped to [1,4]).
func New(cfg Config, dev radio.Device, collaborator stack.Collaborator) *Loop {
	n := cfg.NofWorkers
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}

	workers := make([]*sfworker.Worker, n)
	for i := range workers {
		workers[i] = sfworker.New(cfg.CellCfg, collaborator)
	}

	return &Loop{
		cfg:            cfg,
		radio:          dev,
		nprachDetector: nprach.NewDetector(0, 0),
		stackColl:      collaborator,
		workers:        workers,
		sem:            clock.NewSemaphore(),
		tti:            startupTTI,
		hfn:            startupHFN,
		running:        make(chan struct{}),
		stopped:        make(chan struct{}),
	}
}

// Run executes the TX/RX loop until Stop is called or the radio reports
// RadioLost, dispatching successive subframes round-robin across the
// worker pool. It blocks the calling goroutine; callers typically run it
// in its own goroutine.
func (l *Loop) Run() {
	defer close(l.stopped)

	var wi int
	for {
		select {
		case <-l.running:
			l.sem.Close()
			return
		default:
		}

		rxTTI, rxHFN := l.advance()

		rxIQ := make([]complex128, radio.SamplesPerSubframe)
		if err := l.radio.Rx(rxIQ); err != nil {
			log.Error("radio lost, terminating TX/RX loop", "err", err)
			l.sem.Close()
			return
		}

		ticket := l.sem.Reserve()
		w := l.workers[wi]
		wi = (wi + 1) % len(l.workers)

		go l.runWorker(w, clock.TTI{HFN: rxHFN, SFN: rxTTI / 10, SfIdx: rxTTI % 10}, rxIQ, ticket)

		l.dispatchNPRACH(rxTTI, rxIQ)
	}
}

// runWorker runs one sf_worker.Process call, waits its turn on the TTI
// semaphore, then transmits, per spec.md §5's "workers block only on the
// TTI-ordering semaphore immediately before transmitting".
func (l *Loop) runWorker(w *sfworker.Worker, rxTTI clock.TTI, rxIQ []complex128, ticket int64) {
	result := w.Process(rxTTI, rxIQ)
	l.sem.Wait(ticket)
	if err := l.radio.Tx(result.TxIQ); err != nil {
		log.Error("radio tx failed", "err", err)
	}
}

// dispatchNPRACH feeds rxIQ to the NPRACH detector (spec.md §4.I: "pass
// the RX buffer copy to the NPRACH worker") and reports a detection via
// stack.rach_detected, clearing detector state for the next attempt.
func (l *Loop) dispatchNPRACH(rxTTI int, rxIQ []complex128) {
	res := l.nprachDetector.Detect(rxIQ)
	if res.Found {
		l.stackColl.RachDetected(rxTTI, res.PreambleIndex, 0)
		l.nprachDetector.Reset()
	}
}

// advance computes the next (tti, HFN) pair and updates l's internal
// clock state, mirroring spec.md §4.I's "Compute next tti = (tti+1) mod
// 10240; wrap HFN on the boundary."
func (l *Loop) advance() (tti, hfn int) {
	l.tti = (l.tti + 1) % 10240
	if l.tti == 0 {
		l.hfn = (l.hfn + 1) % 1024
	}
	return l.tti, l.hfn
}

// Stop cooperatively halts the loop (spec.md §5: "a running flag is
// cleared; the TX/RX thread exits its loop on the next iteration") and
// blocks until Run has returned.
func (l *Loop) Stop() {
	close(l.running)
	<-l.stopped
}
