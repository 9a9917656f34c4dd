package device

import (
	"time"

	"github.com/Kim1ni/lumina-firmware/internal/hal"
	"github.com/Kim1ni/lumina-firmware/internal/lighting"
)

// The original firmware played its transition animations as blocking
// delays. Here they are explicit multi-tick sequences: each frame paints
// once and then holds for its duration while the tick loop keeps
// running.

type frame struct {
	hold  time.Duration
	paint func()
}

type sequence struct {
	frames  []frame
	idx     int
	nextAt  int64
	started bool
}

func newSequence(frames ...frame) *sequence {
	return &sequence{frames: frames}
}

// tick advances the sequence. It returns true exactly once, when the
// last frame's hold has elapsed.
func (s *sequence) tick(now int64) bool {
	if !s.started {
		s.started = true
		s.frames[0].paint()
		s.nextAt = now + s.frames[0].hold.Milliseconds()
		return false
	}
	if now < s.nextAt {
		return false
	}
	s.idx++
	if s.idx >= len(s.frames) {
		return true
	}
	s.frames[s.idx].paint()
	s.nextAt = now + s.frames[s.idx].hold.Milliseconds()
	return false
}

func fillRing(ring hal.LEDRing, c lighting.Color) {
	for i := 0; i < ring.Len(); i++ {
		ring.SetPixel(i, c.R, c.G, c.B)
	}
	ring.Show()
}

func blankRing(ring hal.LEDRing) {
	ring.Clear()
	ring.Show()
}

// confirmationFlash is the brief full-ring flash played on entering
// Connected.
func confirmationFlash(ring hal.LEDRing) *sequence {
	return newSequence(frame{
		hold:  500 * time.Millisecond,
		paint: func() { fillRing(ring, lighting.ColorConnected) },
	})
}

// successSweep is the provisioning success animation held before the
// reboot.
func successSweep(ring hal.LEDRing) *sequence {
	return newSequence(frame{
		hold:  2 * time.Second,
		paint: func() { fillRing(ring, lighting.ColorConnected) },
	})
}

// errorFlash is the triple red flash played on an update failure.
func errorFlash(ring hal.LEDRing) *sequence {
	frames := make([]frame, 0, 6)
	for i := 0; i < 3; i++ {
		frames = append(frames,
			frame{hold: 200 * time.Millisecond, paint: func() { fillRing(ring, lighting.ColorError) }},
			frame{hold: 200 * time.Millisecond, paint: func() { blankRing(ring) }},
		)
	}
	return newSequence(frames...)
}

// completionSweep lights the ring pixel by pixel after a finished
// update. The restart that follows comes from the update mechanism.
func completionSweep(ring hal.LEDRing) *sequence {
	n := ring.Len()
	frames := make([]frame, 0, n)
	for i := 0; i < n; i++ {
		count := i + 1
		frames = append(frames, frame{
			hold: 50 * time.Millisecond,
			paint: func() {
				for j := 0; j < count; j++ {
					c := lighting.ColorConnected
					ring.SetPixel(j, c.R, c.G, c.B)
				}
				ring.Show()
			},
		})
	}
	return newSequence(frames...)
}
