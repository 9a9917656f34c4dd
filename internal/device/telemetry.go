package device

import "github.com/Kim1ni/lumina-firmware/internal/config"

// batterySamples is the rolling-average window for voltage readings.
const batterySamples = 4

// telemetry holds the manager's last hardware samples. States read
// snapshots; only the manager writes.
type telemetry struct {
	readings [batterySamples]float64
	idx      int

	voltage  float64
	percent  uint8
	freeHeap uint32
}

// TelemetrySnapshot is a read-only copy of the last telemetry sample.
type TelemetrySnapshot struct {
	Voltage        float64
	BatteryPercent uint8
	FreeHeap       uint32
}

// seed fills the whole window with the first reading so early averages
// are not dragged toward zero.
func (t *telemetry) seed(voltage float64, cfg config.BatteryConfig) {
	for i := range t.readings {
		t.readings[i] = voltage
	}
	t.recompute(cfg)
}

// push records one voltage reading and recomputes the average.
func (t *telemetry) push(voltage float64, cfg config.BatteryConfig) {
	t.readings[t.idx] = voltage
	t.idx = (t.idx + 1) % batterySamples
	t.recompute(cfg)
}

func (t *telemetry) recompute(cfg config.BatteryConfig) {
	var sum float64
	for _, r := range t.readings {
		sum += r
	}
	t.voltage = sum / batterySamples
	t.percent = voltageToPercent(t.voltage, cfg)
}

// voltageToPercent maps voltage linearly onto [0,100], clamped at the
// configured empty and full points.
func voltageToPercent(voltage float64, cfg config.BatteryConfig) uint8 {
	if voltage >= cfg.FullVolts {
		return 100
	}
	if voltage <= cfg.EmptyVolts {
		return 0
	}
	return uint8((voltage - cfg.EmptyVolts) / (cfg.FullVolts - cfg.EmptyVolts) * 100)
}
