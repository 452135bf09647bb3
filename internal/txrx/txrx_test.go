package txrx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sonica-nb/enb/internal/radio"
	"github.com/sonica-nb/enb/internal/sfworker"
	"github.com/sonica-nb/enb/internal/stack/stubstack"
)

// fakeDevice is an in-memory radio.Device that never blocks, letting the
// loop run a handful of iterations quickly in a test.
type fakeDevice struct {
	rxN, txN int
}

func (f *fakeDevice) Rx(buf []complex128) error {
	f.rxN++
	return nil
}

func (f *fakeDevice) Tx(buf []complex128) error {
	f.txN++
	return nil
}

func (f *fakeDevice) Close() error { return nil }

var _ radio.Device = (*fakeDevice)(nil)

// TestStartupTTIWrap exercises spec.md §4.I's startup rule: the raw tti
// counter starts at 10240-5 and HFN at 1023 so the first advance lands at
// tti 10236, the second at 10237, etc.
func TestStartupTTIWrap(t *testing.T) {
	stub := stubstack.New()
	dev := &fakeDevice{}
	l := New(Config{NofWorkers: 1, CellCfg: sfworker.Config{CellID: 1, NofPorts: 1}}, dev, stub)

	tti, hfn := l.advance()
	require.Equal(t, 10240-4, tti)
	require.Equal(t, 1023, hfn)
}

// TestRunStopTerminates starts the loop, lets it run briefly, then stops
// it cooperatively and checks Stop returns promptly.
func TestRunStopTerminates(t *testing.T) {
	stub := stubstack.New()
	dev := &fakeDevice{}
	l := New(Config{NofWorkers: 2, CellCfg: sfworker.Config{CellID: 1, NofPorts: 1}}, dev, stub)

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	l.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
