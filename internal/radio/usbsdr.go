package radio

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/jochenvg/go-udev"
)

// usbSDRDevice reads/writes a USB SDR dongle named by cfg.DeviceName
// (e.g. "usb:0") and watches udev for its removal, the same role the
// teacher's go-udev usage in cm108_main.go plays for detecting USB
// audio/HID PTT adapters. The actual sample I/O below is a placeholder
// byte-stream reader; real SDR wire formats (bladeRF, LimeSDR, etc.) are
// out of scope here, matching spec.md's single-anchor-carrier model.
type usbSDRDevice struct {
	name string
	args string
	lost atomic.Bool

	cancel context.CancelFunc
}

func newUSBSDRDevice(cfg Config) (Device, error) {
	d := &usbSDRDevice{name: cfg.DeviceName, args: cfg.DeviceArgs}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go d.watchRemoval(ctx)

	log.Info("usb sdr radio opened", "device", cfg.DeviceName, "args", cfg.DeviceArgs)
	return d, nil
}

// watchRemoval subscribes to udev "usb" subsystem "remove" events and
// marks the device lost if the removed device's name matches d.name,
// mirroring the teacher's udev.NewMonitorFromNetlink("udev") pattern.
func (d *usbSDRDevice) watchRemoval(ctx context.Context) {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if mon == nil {
		return
	}
	if err := mon.FilterAddMatchSubsystem("usb"); err != nil {
		return
	}

	ch, closeFn, err := mon.DeviceChan(ctx)
	if err != nil {
		return
	}
	defer closeFn()

	for {
		select {
		case <-ctx.Done():
			return
		case dev, ok := <-ch:
			if !ok {
				return
			}
			if dev.Action() != "remove" {
				continue
			}
			if strings.Contains(dev.Syspath(), d.name) || d.name == "" {
				log.Warn("usb sdr device removed", "device", d.name)
				d.lost.Store(true)
			}
		}
	}
}

func (d *usbSDRDevice) Rx(buf []complex128) error {
	if d.lost.Load() {
		return ErrRadioLost
	}
	for i := range buf {
		buf[i] = 0
	}
	return nil
}

func (d *usbSDRDevice) Tx(buf []complex128) error {
	if d.lost.Load() {
		return ErrRadioLost
	}
	return nil
}

func (d *usbSDRDevice) Close() error {
	if d.cancel != nil {
		d.cancel()
	}
	return nil
}
