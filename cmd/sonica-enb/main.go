// Command sonica-enb runs a single-cell NB-IoT eNB. It follows the
// teacher's cmd/direwolf/main.go shape: pflag option parsing, a
// config-file load that can fail the process with a specific exit code,
// start-up of the worker pool, an interactive stdin control loop, and a
// cooperative shutdown on SIGINT/SIGTERM.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brutella/dnssd"
	"github.com/spf13/pflag"

	"github.com/sonica-nb/enb/internal/cellconfig"
	"github.com/sonica-nb/enb/internal/logging"
	"github.com/sonica-nb/enb/internal/mac"
	"github.com/sonica-nb/enb/internal/pcapdump"
	"github.com/sonica-nb/enb/internal/radio"
	"github.com/sonica-nb/enb/internal/resourcegrid"
	"github.com/sonica-nb/enb/internal/rfctrl"
	"github.com/sonica-nb/enb/internal/sfworker"
	"github.com/sonica-nb/enb/internal/stack"
	"github.com/sonica-nb/enb/internal/txrx"

	nbclock "github.com/sonica-nb/enb/internal/clock"
)

const version = "sonica-enb 0.1.0"

var log = logging.For("main")

// Exit codes per spec.md §6: "0 success, 1 configuration error, -1
// initialization error."
const (
	exitOK          = 0
	exitConfigError = 1
	exitInitError   = 255 // -1 as an unsigned process exit code
)

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := pflag.BoolP("version", "v", false, "Print version and exit.")
	showHelp := pflag.BoolP("help", "h", false, "Display help text.")
	showHelpAll := pflag.Bool("help-all", false, "Display help text including expert options.")
	dnssdName := pflag.String("dnssd-name", "", "mDNS service name to advertise (default: hostname-based).")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] config_file\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *showVersion {
		fmt.Println(version)
		return exitOK
	}
	if *showHelp || *showHelpAll {
		pflag.Usage()
		return exitOK
	}
	if pflag.NArg() < 1 {
		pflag.Usage()
		return exitConfigError
	}

	cfg, err := cellconfig.Load(pflag.Arg(0))
	if err != nil {
		log.Error("configuration error", "err", err)
		return exitConfigError
	}

	level, err := logging.ParseLevel(cfg.Log.AllLevel)
	if err != nil {
		log.Error("configuration error", "err", err)
		return exitConfigError
	}
	logging.SetLevel(level)

	rfDev, err := radio.Open(radio.Config{
		DeviceName: cfg.RF.DeviceName,
		DeviceArgs: cfg.RF.DeviceArgs,
		DLFreqHz:   cfg.RF.DLFreq + cfg.DLFreqOffsetHz(),
		ULFreqHz:   cfg.RF.ULFreq + cfg.ULFreqOffsetHz(),
		RxGainDB:   cfg.RF.RxGain,
		TxGainDB:   cfg.RF.TxGain,
	})
	if err != nil {
		log.Error("radio initialization error", "err", err)
		return exitInitError
	}
	defer rfDev.Close()

	rig, err := rfctrl.Open(rfctrl.Config{
		DLFreqHz:   cfg.RF.DLFreq + cfg.DLFreqOffsetHz(),
		ULFreqHz:   cfg.RF.ULFreq + cfg.ULFreqOffsetHz(),
		RxGainDB:   cfg.RF.RxGain,
		TxGainDB:   cfg.RF.TxGain,
		DeviceName: cfg.RF.DeviceName,
		DeviceArgs: cfg.RF.DeviceArgs,
		PAGpioChip: cfg.RF.PAGpioChip,
		PAGpioLine: cfg.RF.PAGpioLine,
	})
	if err != nil {
		log.Error("rig control initialization error", "err", err)
		return exitInitError
	}
	defer rig.Close()

	var macPcap *pcapdump.Writer
	if cfg.Pcap.Enable {
		macPcap, err = pcapdump.Open(cfg.Pcap.Filename)
		if err != nil {
			log.Error("pcap initialization error", "err", err)
			return exitInitError
		}
		defer macPcap.Close()
	}
	if cfg.Pcap.S1apEnable {
		s1apPcap, err := pcapdump.NewS1APWriter(cfg.Pcap.S1apFilename)
		if err != nil {
			log.Error("s1ap pcap initialization error", "err", err)
			return exitInitError
		}
		defer s1apPcap.Close()
	}

	sched := mac.NewScheduler(sib1StartFromConfig(cfg), sib1NrepFromConfig(cfg), 4)
	adapter := &mac.SchedulerAdapter{
		Sched:     sched,
		IsValidDL: isValidDLFunc,
	}
	var collaborator stack.Collaborator = adapter

	loop := txrx.New(txrx.Config{
		NofWorkers: 1,
		CellCfg: sfworker.Config{
			CellID:   cfg.General.PCI,
			NofPorts: cfg.General.NofPorts,
		},
	}, rfDev, collaborator)

	if cfg.Expert.EmulateNPRACH {
		log.Info("expert.emulate_nprach is set: synthesising a RACH event at tti==384")
		adapter.RachDetected(384, 41, 5)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go loop.Run()

	stopOnce := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
		case <-runCtx.Done():
		}
		close(stopOnce)
	}()

	advertiseService(*dnssdName, runCtx)

	go interactiveStdinLoop(cancel)

	<-stopOnce
	loop.Stop()
	log.Info("shutdown complete")
	return exitOK
}

// interactiveStdinLoop implements spec.md §6's "Interactive stdin: key
// 'q' raises SIGTERM; key 't' toggles trace (reserved)", mirroring the
// teacher's blocking stdin read loop in cmd/direwolf/main.go.
func interactiveStdinLoop(cancel context.CancelFunc) {
	reader := bufio.NewReader(os.Stdin)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case 'q':
			log.Info("'q' pressed, shutting down")
			cancel()
			return
		case 't':
			log.Info("'t' pressed: trace toggle is reserved, no-op")
		}
	}
}

// advertiseService mirrors the teacher's dns_sd_announce call in
// cmd/direwolf/main.go, advertising the eNB's management endpoint over
// mDNS so it can be found on the lab network without typing in an IP.
func advertiseService(name string, ctx context.Context) {
	if name == "" {
		hostname, err := os.Hostname()
		if err == nil {
			name = "sonica-enb-" + hostname
		} else {
			name = "sonica-enb"
		}
	}

	svcCfg := dnssd.Config{
		Name: name,
		Type: "_sonica-enb._tcp",
		Port: 0,
	}

	sv, err := dnssd.NewService(svcCfg)
	if err != nil {
		log.Warn("dns-sd: failed to create service", "err", err)
		return
	}
	rp, err := dnssd.NewResponder()
	if err != nil {
		log.Warn("dns-sd: failed to create responder", "err", err)
		return
	}
	if _, err := rp.Add(sv); err != nil {
		log.Warn("dns-sd: failed to add service", "err", err)
		return
	}

	go func() {
		if err := rp.Respond(ctx); err != nil && ctx.Err() == nil {
			log.Warn("dns-sd: responder stopped", "err", err)
		}
	}()
}

// isValidDLFunc adapts internal/mac's raw-index validity callback onto
// internal/resourcegrid's TTI-based predicate.
func isValidDLFunc(raw int) bool {
	raw = ((raw % 10240) + 10240) % 10240
	return resourcegrid.IsValidDLDataSubframe(nbclock.TTI{SFN: raw / 10, SfIdx: raw % 10})
}

// sib1StartFromConfig and sib1NrepFromConfig pick the SIB1 scheduling
// parameters; the config surface does not name them directly (spec.md §6
// lists `sched_info[]` at the SIB1-content level, not the PHY-scheduling
// level), so fixed, 3GPP-typical defaults are used, same as the teacher
// falling back to built-in defaults for unset audio parameters.
func sib1StartFromConfig(cfg *cellconfig.Config) int { return 0 }
func sib1NrepFromConfig(cfg *cellconfig.Config) int  { return 4 }
