// Package rfctrl drives the RF front-end's control plane: rig tuning via
// hamlib, the power-amplifier enable / TX-inhibit GPIO line, and the
// serial transport underneath either of those when the configured rig is
// reached over a serial link rather than network/USB. It is the cellular
// analogue of the teacher's ptt.go (PTT line control across serial/GPIO/
// CM108/hamlib backends) and serial_port.go.
package rfctrl

import (
	"fmt"

	"github.com/sonica-nb/enb/internal/logging"
)

var log = logging.For("rfctrl")

// Config mirrors the `rf` section of the eNB config file (spec.md §6).
type Config struct {
	DLFreqHz   float64
	ULFreqHz   float64
	RxGainDB   float64
	TxGainDB   float64
	DeviceName string // "" = no rig control; "hamlib:<model>" for CAT control; a bare "/dev/ttyUSB0"/"COMn" path for RTS-only PTT
	DeviceArgs string // hamlib: rig_pathname, e.g. "192.168.1.50:4532" or "/dev/ttyUSB0,9600"; bare serial: just the baud rate, e.g. "9600"
	PAGpioChip string // e.g. "gpiochip0"; "" disables PA control
	PAGpioLine int
}

// Controller owns the rig and PA GPIO line for the lifetime of the eNB
// process, the role the teacher's global ptt state plays for one radio
// channel.
type Controller struct {
	cfg Config
	rig rig
	pa  *paLine
}

// Open tunes the configured rig to cfg's DL frequency, sets its TX/RX
// gains and opens the PA GPIO line if one is configured, per spec.md §6's
// `rf.*` keywords. The UL frequency is only logged, not sent to the rig.
func Open(cfg Config) (*Controller, error) {
	c := &Controller{cfg: cfg}

	r, err := openRig(cfg)
	if err != nil {
		return nil, fmt.Errorf("rfctrl: opening rig: %w", err)
	}
	c.rig = r

	if err := c.rig.SetFreq(cfg.DLFreqHz); err != nil {
		return nil, fmt.Errorf("rfctrl: set_freq dl: %w", err)
	}
	if err := c.rig.SetLevel("RF_GAIN", cfg.TxGainDB); err != nil {
		return nil, fmt.Errorf("rfctrl: set tx gain: %w", err)
	}
	if err := c.rig.SetLevel("AF_GAIN", cfg.RxGainDB); err != nil {
		return nil, fmt.Errorf("rfctrl: set rx gain: %w", err)
	}

	if cfg.PAGpioChip != "" {
		pa, err := openPALine(cfg.PAGpioChip, cfg.PAGpioLine)
		if err != nil {
			return nil, fmt.Errorf("rfctrl: opening PA gpio line: %w", err)
		}
		c.pa = pa
	}

	log.Info("rig control opened", "dl_freq", cfg.DLFreqHz, "ul_freq", cfg.ULFreqHz)
	return c, nil
}

// PAEnable raises or lowers the PA enable line around a downlink burst,
// the cellular analogue of the teacher's ptt_set(true/false). It drives
// both the GPIO PA line (if configured) and the rig's own PTT control
// (hamlib CAT command or serial RTS), since a given front end may key
// through either, both, or neither depending on cfg.
func (c *Controller) PAEnable(on bool) error {
	if err := c.rig.SetPTT(on); err != nil {
		return fmt.Errorf("rfctrl: set_ptt: %w", err)
	}
	if c.pa == nil {
		return nil
	}
	return c.pa.Set(on)
}

// Retune stores cfg and re-applies its DL frequency (the UL frequency is
// not sent to the rig), used when the config is reloaded without a full
// process restart.
func (c *Controller) Retune(cfg Config) error {
	c.cfg = cfg
	return c.rig.SetFreq(cfg.DLFreqHz)
}

// Close releases the rig and PA GPIO line.
func (c *Controller) Close() error {
	var err error
	if c.pa != nil {
		if e := c.pa.Close(); e != nil {
			err = e
		}
	}
	if c.rig != nil {
		if e := c.rig.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
