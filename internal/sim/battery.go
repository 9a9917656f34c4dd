package sim

import (
	"math/rand"
	"time"
)

// Battery models a discharging 18650 cell with sampling noise.
type Battery struct {
	startVolts float64
	dischargeV float64 // volts lost per hour
	noiseV     float64
	start      time.Time
}

// NewBattery returns a battery starting at startVolts that loses
// dischargePerHour volts per hour.
func NewBattery(startVolts, dischargePerHour float64) *Battery {
	return &Battery{
		startVolts: startVolts,
		dischargeV: dischargePerHour,
		noiseV:     0.01,
		start:      time.Now(),
	}
}

// ReadVoltage returns one noisy voltage sample. The core's rolling
// average smooths the noise, like the real ADC path.
func (b *Battery) ReadVoltage() float64 {
	hours := time.Since(b.start).Hours()
	v := b.startVolts - b.dischargeV*hours
	v += (rand.Float64()*2 - 1) * b.noiseV
	if v < 0 {
		v = 0
	}
	return v
}
