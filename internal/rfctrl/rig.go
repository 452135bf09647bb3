package rfctrl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xylo04/goHamlib"
)

// rig is the narrow rig-control surface rfctrl needs; goHamlib's own
// *goHamlib.Rig satisfies it directly. Kept as an interface so a
// no-op/dummy rig can stand in when no physical radio is configured,
// the same shape the teacher's ptt.go gives its hamlib codepath
// ("Hamlib support currently disabled due to mid-stage porting
// complexity" -- here it is finished rather than stubbed out).
type rig interface {
	SetFreq(hz float64) error
	SetLevel(name string, value float64) error
	SetPTT(on bool) error
	Close() error
}

// openRig dispatches on cfg.DeviceName the way the teacher's config.go
// dispatches PTT method strings ("GPIO", "SERIAL", "CM108", ...) onto a
// ptt_method_e: "hamlib:<model-number>" selects a goHamlib-backed rig over
// cfg.DeviceArgs (a serial or network port string); a bare serial device
// path with no hamlib model selects RTS-line PTT only (no frequency/gain
// control, the teacher's plain "SERIAL" PTT method); anything else is a
// no-op rig so a bench setup without an attached transceiver still runs.
func openRig(cfg Config) (rig, error) {
	if strings.HasPrefix(cfg.DeviceName, "hamlib:") {
		modelStr := strings.TrimPrefix(cfg.DeviceName, "hamlib:")
		model, err := strconv.Atoi(modelStr)
		if err != nil {
			return nil, fmt.Errorf("rfctrl: bad hamlib model %q: %w", modelStr, err)
		}
		return newHamlibRig(model, cfg.DeviceArgs)
	}

	if looksLikeSerialDevice(cfg.DeviceName) {
		return newSerialOnlyRig(cfg.DeviceName, cfg.DeviceArgs)
	}

	return &noopRig{}, nil
}

// serialOnlyRig drives PTT by toggling RTS on a bare serial line, for
// transceivers with no CAT/hamlib support at all; frequency and gain are
// set manually on the radio and SetFreq/SetLevel are no-ops here.
type serialOnlyRig struct {
	ptt *serialPTT
}

// newSerialOnlyRig opens devicePath (cfg.DeviceName, e.g. "/dev/ttyUSB0")
// at the baud rate carried in deviceArgs (cfg.DeviceArgs, e.g. "9600"; a
// bare or empty string leaves the line at its current speed).
func newSerialOnlyRig(devicePath, deviceArgs string) (rig, error) {
	baud := 0
	if s := strings.TrimSpace(deviceArgs); s != "" {
		b, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("rfctrl: bad baud in device_args %q: %w", deviceArgs, err)
		}
		baud = b
	}
	t, err := openSerialPort(devicePath, baud)
	if err != nil {
		return nil, err
	}
	return &serialOnlyRig{ptt: openSerialPTT(t)}, nil
}

func (s *serialOnlyRig) SetFreq(float64) error          { return nil }
func (s *serialOnlyRig) SetLevel(string, float64) error { return nil }
func (s *serialOnlyRig) SetPTT(on bool) error           { return s.ptt.Set(on) }
func (s *serialOnlyRig) Close() error                   { return s.ptt.Close() }

// hamlibRig wires goHamlib.Rig against the Controller's rig interface,
// grounded on the rig model/port parsing the teacher's config.go performs
// for its own (cgo, disabled) hamlib path.
type hamlibRig struct {
	r *goHamlib.Rig
}

func newHamlibRig(model int, port string) (rig, error) {
	r := goHamlib.NewRig(goHamlib.RigModel(model))

	path := port
	if looksLikeSerialDevice(port) {
		devPath, baud, err := parseSerialDeviceArgs(port)
		if err != nil {
			return nil, err
		}
		// Open and immediately close: this validates the line (and its
		// baud rate) the way serial_port_open did for the teacher's PTT
		// transport, before handing the bare path to goHamlib, which
		// owns the fd for the lifetime of the rig.
		probe, err := openSerialPort(devPath, baud)
		if err != nil {
			return nil, err
		}
		_ = probe.Close()
		path = devPath
	}

	r.SetConf("rig_pathname", path)

	if err := r.Open(); err != nil {
		return nil, fmt.Errorf("rfctrl: rig.Open: %w", err)
	}

	return &hamlibRig{r: r}, nil
}

// looksLikeSerialDevice reports whether port names a serial device rather
// than a network or USB endpoint, per spec.md §6's rf.device_args.
func looksLikeSerialDevice(port string) bool {
	return strings.HasPrefix(port, "/dev/tty") || strings.HasPrefix(port, "COM")
}

func (h *hamlibRig) SetFreq(hz float64) error {
	return h.r.SetFreq(goHamlib.VFOCurrent, hz)
}

func (h *hamlibRig) SetLevel(name string, value float64) error {
	lvl, ok := goHamlib.LevelFromName(name)
	if !ok {
		return fmt.Errorf("rfctrl: unknown hamlib level %q", name)
	}
	return h.r.SetLevel(goHamlib.VFOCurrent, lvl, value)
}

func (h *hamlibRig) SetPTT(on bool) error {
	return h.r.SetPTT(goHamlib.VFOCurrent, on)
}

func (h *hamlibRig) Close() error {
	return h.r.Close()
}

// noopRig satisfies rig when no physical transceiver is configured (e.g.
// a soundcard-loopback bench test), recording nothing and always
// succeeding.
type noopRig struct{}

func (noopRig) SetFreq(float64) error         { return nil }
func (noopRig) SetLevel(string, float64) error { return nil }
func (noopRig) SetPTT(bool) error             { return nil }
func (noopRig) Close() error                  { return nil }
