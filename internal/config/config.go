package config

import "time"

// Config is the compiled-in device configuration. Real devices ship the
// defaults; the simulator may override individual values from a YAML
// file (see Load).
type Config struct {
	// DeviceName is broadcast in provisioning presence packets and used
	// as the OTA hostname.
	DeviceName string
	// LEDCount is the number of pixels on the ring.
	LEDCount int
	// UDPPort is the single datagram port for commands and status.
	UDPPort int

	// Access point identity while provisioning.
	APSSID     string
	APPassword string

	// OTAPassword guards the firmware update mechanism.
	OTAPassword string

	Battery    BatteryConfig
	Brightness BrightnessConfig
	Memory     MemoryConfig
	Timing     TimingConfig
}

// BatteryConfig maps cell voltage to reported percent. The map is
// linear between Empty and Full, clamped to [0,100].
type BatteryConfig struct {
	FullVolts    float64
	EmptyVolts   float64
	WarningVolts float64
}

// BrightnessConfig bounds the indicator pulse animations.
type BrightnessConfig struct {
	Max uint8
	Min uint8
	// PulseStep is the per-frame amplitude change of pulse animations.
	PulseStep uint8
}

// MemoryConfig tunes the heap observability checks.
type MemoryConfig struct {
	// ShrinkThreshold is the free-heap drop, in bytes, across one
	// sampling window that triggers a diagnostic.
	ShrinkThreshold uint32
	// MinFreeHeap is the floor below which a low-memory diagnostic is
	// emitted.
	MinFreeHeap uint32
}

// TimingConfig holds every cadence and deadline of the state machine.
// All timers are wall-clock comparisons against saved timestamps.
type TimingConfig struct {
	BatterySample   time.Duration // telemetry resample cadence
	HeapCheck       time.Duration // heap-shrink sampling window
	Heartbeat       time.Duration // connected status broadcast cadence
	ConnectionCheck time.Duration // connected link verification cadence
	ConnectRetry    time.Duration // searching re-join cadence
	Presence        time.Duration // provisioning discovery broadcast cadence
	Pulse           time.Duration // pulse animation frame interval
	ProvisionSpin   time.Duration // provisioning rotation frame interval
	StrategyRefresh time.Duration // connected strategy re-render cadence
	LowBatteryWarn  time.Duration // minimum gap between low-battery diagnostics

	SearchTimeout    time.Duration // searching deadline before provisioning
	ProvisionTimeout time.Duration // provisioning deadline before searching
	UpdateTimeout    time.Duration // updating idle deadline before rollback
}

// Default returns the stock Lumina configuration.
func Default() Config {
	return Config{
		DeviceName:  "Lumina",
		LEDCount:    16,
		UDPPort:     4210,
		APSSID:      "Lumina-Setup",
		APPassword:  "lumina2026",
		OTAPassword: "lumina-ota-2026",
		Battery: BatteryConfig{
			FullVolts:    4.2,
			EmptyVolts:   3.0,
			WarningVolts: 3.3,
		},
		Brightness: BrightnessConfig{
			Max:       200,
			Min:       10,
			PulseStep: 5,
		},
		Memory: MemoryConfig{
			ShrinkThreshold: 1024,
			MinFreeHeap:     8192,
		},
		Timing: TimingConfig{
			BatterySample:   10 * time.Second,
			HeapCheck:       30 * time.Second,
			Heartbeat:       5 * time.Second,
			ConnectionCheck: 5 * time.Second,
			ConnectRetry:    5 * time.Second,
			Presence:        2 * time.Second,
			Pulse:           50 * time.Millisecond,
			ProvisionSpin:   100 * time.Millisecond,
			StrategyRefresh: 20 * time.Millisecond,
			LowBatteryWarn:  30 * time.Second,

			SearchTimeout:    30 * time.Second,
			ProvisionTimeout: 5 * time.Minute,
			UpdateTimeout:    10 * time.Minute,
		},
	}
}
