package device

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Kim1ni/lumina-firmware/internal/hal"
)

func TestClassifyUpdateError(t *testing.T) {
	tests := []struct {
		err  error
		want UpdateFailure
	}{
		{hal.ErrUpdateAuth, UpdateFailureAuth},
		{hal.ErrUpdateBegin, UpdateFailureBegin},
		{hal.ErrUpdateConnect, UpdateFailureConnect},
		{hal.ErrUpdateReceive, UpdateFailureReceive},
		{hal.ErrUpdateEnd, UpdateFailureEnd},
		{errors.New("something else"), UpdateFailureUnknown},
		{nil, UpdateFailureUnknown},
		// Wrapped causes classify the same as bare ones.
		{fmt.Errorf("arm lamp: %w", hal.ErrUpdateAuth), UpdateFailureAuth},
	}

	for _, tt := range tests {
		if got := ClassifyUpdateError(tt.err); got != tt.want {
			t.Errorf("ClassifyUpdateError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestErrorFlashDuration(t *testing.T) {
	ring := newFakeRing(8)
	seq := errorFlash(ring)

	// Three on/off cycles at 200ms per frame: with the loop running
	// every 50ms the sequence must hold for all six frames before
	// reporting completion.
	now := int64(10_000)
	ticks := 0
	for !seq.tick(now) {
		now += 50
		ticks++
		if ticks > 200 {
			t.Fatal("error flash never completed")
		}
	}
	if elapsed := int64(ticks) * 50; elapsed < 6*200 {
		t.Errorf("error flash completed after %dms, want at least 1200ms", elapsed)
	}
}
