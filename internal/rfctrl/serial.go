package rfctrl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/term"
)

// openSerialPort opens devicename at baud, mirroring the teacher's
// serial_port.go serial_port_open(devicename string, baud int) *term.Term:
// a fixed set of recognised bauds falls straight through to SetSpeed,
// anything else is rejected rather than silently defaulting (the
// teacher's C heritage quietly falls back to 4800; we surface the error
// instead so a bad `rf.device_args` string fails at ConfigInvalid time,
// not at first PTT).
func openSerialPort(devicename string, baud int) (*term.Term, error) {
	t, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, fmt.Errorf("rfctrl: opening serial port %s: %w", devicename, err)
	}

	switch baud {
	case 0: // leave it alone
	case 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200:
		if err := t.SetSpeed(baud); err != nil {
			_ = t.Close()
			return nil, fmt.Errorf("rfctrl: setting speed %d on %s: %w", baud, devicename, err)
		}
	default:
		_ = t.Close()
		return nil, fmt.Errorf("rfctrl: unsupported baud rate %d for %s", baud, devicename)
	}

	return t, nil
}

// parseSerialDeviceArgs splits a "/dev/ttyUSB0,9600" style device_args
// string into its path and baud rate, the same two fields
// serial_port_open takes as separate parameters.
func parseSerialDeviceArgs(args string) (path string, baud int, err error) {
	parts := strings.SplitN(args, ",", 2)
	path = parts[0]
	baud = 9600
	if len(parts) == 2 {
		baud, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return "", 0, fmt.Errorf("rfctrl: bad baud in device_args %q: %w", args, err)
		}
	}
	return path, baud, nil
}
