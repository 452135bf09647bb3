// Package radio abstracts the sample source/sink the TX/RX thread reads
// and writes, the role the teacher's audio.go / udp.go pair plays for
// Dire Wolf (many interchangeable "radio channels" behind one interface).
// Two backends are provided: a portaudio soundcard loopback useful for
// bench testing without attached SDR hardware, and a udev-monitored USB
// SDR device that reports RadioLost (spec.md §7) on hot-unplug.
package radio

import (
	"errors"

	"github.com/sonica-nb/enb/internal/logging"
)

var log = logging.For("radio")

// ErrRadioLost is returned by Rx/Tx once the underlying device has gone
// away (short read, USB unplug, soundcard stream error), per spec.md §7's
// RadioLost error kind.
var ErrRadioLost = errors.New("radio: device lost")

// SampleRate is the fixed baseband sample rate this front end runs at,
// matching internal/ofdm's 128-point FFT at the NB-IoT 1.92 MHz rate.
const SampleRate = 1920000

// SamplesPerSubframe is one 1ms LTE/NB-IoT subframe's worth of samples
// at SampleRate.
const SamplesPerSubframe = SampleRate / 1000

// Device is the sample source/sink the TX/RX thread drives. Implementations
// must be safe for one concurrent Rx call and one concurrent Tx call (the
// TX/RX thread is single-threaded per spec.md §5, but Rx/Tx may overlap on
// full-duplex hardware).
type Device interface {
	// Rx blocks until one subframe's worth of complex baseband samples
	// has been captured, or returns ErrRadioLost on device failure.
	Rx(buf []complex128) error
	// Tx transmits one subframe's worth of complex baseband samples.
	Tx(buf []complex128) error
	// Close releases the underlying hardware/stream.
	Close() error
}

// Config selects and parametrises a Device, sourced from the `rf` section
// of the eNB config file (spec.md §6).
type Config struct {
	DeviceName string // "soundcard" or a USB SDR identifier, e.g. "usb:0"
	DeviceArgs string
	DLFreqHz   float64
	ULFreqHz   float64
	RxGainDB   float64
	TxGainDB   float64
}

// Open constructs the Device named by cfg.DeviceName, mirroring the
// teacher's "more than one way to get samples in and out" dispatch in
// audio.go's audio_open.
func Open(cfg Config) (Device, error) {
	switch cfg.DeviceName {
	case "", "soundcard":
		return newSoundcardDevice(cfg)
	default:
		return newUSBSDRDevice(cfg)
	}
}
