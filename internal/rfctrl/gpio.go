package rfctrl

import (
	"github.com/warthog618/go-gpiocdev"
)

// paLine drives the power-amplifier enable / TX-inhibit GPIO line around
// a downlink burst, the cellular analogue of the teacher's GPIO PTT
// backend in ptt.go (which bit-bangs /sys/class/gpio directly; here the
// modern gpiocdev character-device API replaces that).
type paLine struct {
	line *gpiocdev.Line
}

func openPALine(chip string, offset int) (*paLine, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &paLine{line: line}, nil
}

// Set raises (1) or lowers (0) the PA enable line.
func (p *paLine) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return p.line.SetValue(v)
}

func (p *paLine) Close() error {
	return p.line.Close()
}
