package radio

import (
	"github.com/gordonklaus/portaudio"
)

// soundcardDevice treats the default system audio device as an I/Q radio,
// the way an RTL-SDR-era "Funcube Dongle" or "SoftRock" front end presents
// its downconverted baseband on the left/right stereo channels. The
// teacher has no literal portaudio usage (its only audio path is cgo/ALSA
// via audio.go), so this backend is newly authored, grounded only on the
// concept of "the sound card is the radio" that the teacher's audio
// abstraction embodies; see DESIGN.md.
type soundcardDevice struct {
	stream  *portaudio.Stream
	inBuf   []float32
	outBuf  []float32
	closed  bool
}

func newSoundcardDevice(cfg Config) (Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	d := &soundcardDevice{
		inBuf:  make([]float32, 2*SamplesPerSubframe),
		outBuf: make([]float32, 2*SamplesPerSubframe),
	}

	stream, err := portaudio.OpenDefaultStream(2, 2, float64(SampleRate), SamplesPerSubframe, d.inBuf, d.outBuf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	d.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, err
	}

	log.Info("soundcard radio opened", "device", cfg.DeviceName, "rate", SampleRate)
	return d, nil
}

// Rx reads one subframe's worth of I/Q, left channel as I and right as Q,
// matching the stereo-dongle convention documented on soundcardDevice.
func (d *soundcardDevice) Rx(buf []complex128) error {
	if d.closed {
		return ErrRadioLost
	}
	if err := d.stream.Read(); err != nil {
		return ErrRadioLost
	}
	n := len(buf)
	if n > SamplesPerSubframe {
		n = SamplesPerSubframe
	}
	for i := 0; i < n; i++ {
		buf[i] = complex(float64(d.inBuf[2*i]), float64(d.inBuf[2*i+1]))
	}
	return nil
}

// Tx writes one subframe's worth of I/Q out to the stereo output.
func (d *soundcardDevice) Tx(buf []complex128) error {
	if d.closed {
		return ErrRadioLost
	}
	n := len(buf)
	if n > SamplesPerSubframe {
		n = SamplesPerSubframe
	}
	for i := 0; i < n; i++ {
		d.outBuf[2*i] = float32(real(buf[i]))
		d.outBuf[2*i+1] = float32(imag(buf[i]))
	}
	for i := n; i < SamplesPerSubframe; i++ {
		d.outBuf[2*i] = 0
		d.outBuf[2*i+1] = 0
	}
	if err := d.stream.Write(); err != nil {
		return ErrRadioLost
	}
	return nil
}

func (d *soundcardDevice) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.stream.Stop()
	if cerr := d.stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
