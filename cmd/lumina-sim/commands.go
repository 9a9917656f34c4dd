package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kim1ni/lumina-firmware/internal/config"
	"github.com/Kim1ni/lumina-firmware/internal/device"
	"github.com/Kim1ni/lumina-firmware/internal/hal"
	"github.com/Kim1ni/lumina-firmware/internal/logging"
	"github.com/Kim1ni/lumina-firmware/internal/monitor"
	"github.com/Kim1ni/lumina-firmware/internal/sim"
)

// tickInterval is the cooperative loop cadence. Fast enough for the
// 20ms strategy refresh to land on time.
const tickInterval = 5 * time.Millisecond

// Run command flags
var (
	configPath   string
	logLevel     string
	monitorAddr  string
	storePath    string
	headless     bool
	batteryVolts float64
	failUpdate   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the simulated device",
	Long: `Start the firmware core with simulated hardware.

The device boots into Searching mode. Without stored credentials it
moves straight to Provisioning and waits for a provision command on its
UDP port; use 'lumina-ctl provision' to supply one.

The --fail-update flag scripts an OTA failure for exercising the
rollback path. Valid points: auth, begin, connect, receive, end.`,
	Example: `  # Boot with defaults, ring rendered in the terminal
  lumina-sim run

  # Verbose logs, no ring rendering
  lumina-sim run --headless --log-level debug

  # Expose live telemetry on ws://localhost:8080/ws
  lumina-sim run --monitor :8080

  # Exercise the update rollback path
  lumina-sim run --fail-update receive`,
	RunE: runSim,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config overrides (optional)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&monitorAddr, "monitor", "", "Telemetry monitor listen address (disabled if not specified)")
	runCmd.Flags().StringVar(&storePath, "store", "lumina-creds.bin", "Credential store file")
	runCmd.Flags().BoolVar(&headless, "headless", false, "Disable terminal ring rendering")
	runCmd.Flags().Float64Var(&batteryVolts, "battery", 4.1, "Initial battery voltage")
	runCmd.Flags().StringVar(&failUpdate, "fail-update", "", "Script an OTA failure at the given point")
}

func runSim(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	store, err := sim.NewFileStore(storePath)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	var ringOut io.Writer
	if !headless {
		ringOut = os.Stdout
	}

	updater := sim.NewScriptedUpdater()
	updater.Passphrase = cfg.OTAPassword
	if failUpdate != "" {
		cause, err := updateFailure(failUpdate)
		if err != nil {
			return err
		}
		if failUpdate == "auth" {
			// Auth failures happen at arm time, not mid-transfer.
			updater.Passphrase = cfg.OTAPassword + "-mismatch"
		} else {
			updater.FailAfter = updater.TotalBytes / 2
			updater.FailWith = cause
		}
	}

	transport := sim.NewTransport(cfg.DeviceName, cfg.UDPPort, 2*time.Second)
	clock := sim.NewClock()

	mgr := device.NewManager(cfg, device.Deps{
		Ring:      sim.NewRing(cfg.LEDCount, ringOut),
		Transport: transport,
		Store:     store,
		Clock:     clock,
		Battery:   sim.NewBattery(batteryVolts, 0.02),
		System:    sim.NewSystem(),
		Updater:   updater,
	})

	var mon *monitor.Server
	if monitorAddr != "" {
		mon = monitor.New(monitor.FormatAddr(monitorAddr))
		if err := mon.Start(); err != nil {
			return fmt.Errorf("failed to start monitor: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = mon.Shutdown(ctx)
		}()
	}

	if err := mgr.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize device: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			if !headless {
				fmt.Println()
			}
			logging.Info("shutdown signal received")
			return nil
		case <-ticker.C:
			mgr.Tick()
			if mon != nil {
				snap := mgr.Telemetry()
				mon.SetSnapshot(monitor.Snapshot{
					Device:         cfg.DeviceName,
					Mode:           mgr.Mode().String(),
					Strategy:       mgr.StrategyName(),
					BatteryVolts:   snap.Voltage,
					BatteryPercent: snap.BatteryPercent,
					FreeHeap:       snap.FreeHeap,
					RSSI:           transport.SignalStrength(),
					UptimeMillis:   clock.Millis(),
				})
			}
		}
	}
}

// updateFailure maps a --fail-update flag value onto the corresponding
// update error.
func updateFailure(point string) (error, error) {
	switch point {
	case "auth":
		return hal.ErrUpdateAuth, nil
	case "begin":
		return hal.ErrUpdateBegin, nil
	case "connect":
		return hal.ErrUpdateConnect, nil
	case "receive":
		return hal.ErrUpdateReceive, nil
	case "end":
		return hal.ErrUpdateEnd, nil
	default:
		return nil, fmt.Errorf("unknown --fail-update point %q (want auth, begin, connect, receive or end)", point)
	}
}
