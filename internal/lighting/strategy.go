package lighting

import (
	"math"

	"github.com/Kim1ni/lumina-firmware/internal/hal"
)

// Strategy is a pluggable lighting animation. Apply renders one frame as
// a pure function of the wall-clock millisecond counter and the
// strategy's fixed parameters; strategies hold no animation-progress
// state, so they can be swapped at any tick without a phase glitch.
type Strategy interface {
	// Apply renders one frame onto the ring. now is the monotonic
	// millisecond counter, not time since the strategy was installed.
	Apply(ring hal.LEDRing, now int64)
	// Name returns the short strategy name carried in heartbeats.
	Name() string
}

// Animation periods in milliseconds.
const (
	calmPeriod     = 4000
	focusPeriod    = 8000
	partyStepMilli = 50
)

// Solid fills the ring with one constant color.
type Solid struct {
	Color Color
}

// NewSolid returns a solid-color strategy.
func NewSolid(c Color) *Solid {
	return &Solid{Color: c}
}

func (s *Solid) Apply(ring hal.LEDRing, now int64) {
	for i := 0; i < ring.Len(); i++ {
		ring.SetPixel(i, s.Color.R, s.Color.G, s.Color.B)
	}
	ring.Show()
}

func (s *Solid) Name() string { return "Solid" }

// Calm breathes the base color with a slow full-range sine envelope
// (4-second cycle, 0.0 to 1.0).
type Calm struct {
	Color Color
}

// NewCalm returns a calm breathing strategy.
func NewCalm(c Color) *Calm {
	return &Calm{Color: c}
}

func (s *Calm) Apply(ring hal.LEDRing, now int64) {
	phase := float64(now%calmPeriod) / calmPeriod * 2 * math.Pi
	envelope := (math.Sin(phase) + 1) / 2
	c := s.Color.Scale(envelope)
	for i := 0; i < ring.Len(); i++ {
		ring.SetPixel(i, c.R, c.G, c.B)
	}
	ring.Show()
}

func (s *Calm) Name() string { return "Calm" }

// Focus holds a steady light with a subtle pulse (8-second cycle,
// envelope 0.7 to 1.0).
type Focus struct {
	Color Color
}

// NewFocus returns a focus strategy.
func NewFocus(c Color) *Focus {
	return &Focus{Color: c}
}

func (s *Focus) Apply(ring hal.LEDRing, now int64) {
	phase := float64(now%focusPeriod) / focusPeriod * 2 * math.Pi
	envelope := 0.7 + 0.3*((math.Sin(phase)+1)/2)
	c := s.Color.Scale(envelope)
	for i := 0; i < ring.Len(); i++ {
		ring.SetPixel(i, c.R, c.G, c.B)
	}
	ring.Show()
}

func (s *Focus) Name() string { return "Focus" }

// Party divides the ring into three equal color bands and rotates them
// one pixel every 50 ms.
type Party struct {
	Colors [3]Color
}

// NewParty returns a party strategy over three colors.
func NewParty(c1, c2, c3 Color) *Party {
	return &Party{Colors: [3]Color{c1, c2, c3}}
}

func (s *Party) Apply(ring hal.LEDRing, now int64) {
	n := ring.Len()
	if n == 0 {
		return
	}
	offset := int(now/partyStepMilli) % n
	for i := 0; i < n; i++ {
		pos := (i + offset) % n
		var c Color
		switch {
		case pos < n/3:
			c = s.Colors[0]
		case pos < 2*n/3:
			c = s.Colors[1]
		default:
			c = s.Colors[2]
		}
		ring.SetPixel(i, c.R, c.G, c.B)
	}
	ring.Show()
}

func (s *Party) Name() string { return "Party" }
