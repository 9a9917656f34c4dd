package sim

import (
	"fmt"
	"time"

	"github.com/Kim1ni/lumina-firmware/internal/hal"
)

// ScriptedUpdater plays back a canned OTA transfer. Once armed it waits
// a beat, announces the start, then delivers progress in fixed chunks
// until the image is complete or the scripted failure point is reached.
type ScriptedUpdater struct {
	// TotalBytes is the size of the simulated firmware image.
	TotalBytes uint32
	// ChunkBytes is how much arrives per delivery.
	ChunkBytes uint32
	// ChunkEvery is the pause between deliveries.
	ChunkEvery time.Duration
	// StartAfter is the delay between arming and the transfer starting.
	StartAfter time.Duration

	// FailAfter, when nonzero, aborts the transfer with FailWith once
	// that many bytes have been delivered.
	FailAfter uint32
	// FailWith is the failure to report; one of the hal update errors.
	FailWith error

	// Passphrase, when set, must match the one supplied at arm time.
	Passphrase string

	armed    bool
	started  bool
	finished bool
	cb       hal.UpdateCallbacks
	armedAt  time.Time
	lastSend time.Time
	sent     uint32
}

// NewScriptedUpdater returns an updater that completes a 1 MiB image in
// roughly six seconds.
func NewScriptedUpdater() *ScriptedUpdater {
	return &ScriptedUpdater{
		TotalBytes: 1 << 20,
		ChunkBytes: 32 * 1024,
		ChunkEvery: 200 * time.Millisecond,
		StartAfter: time.Second,
	}
}

func (u *ScriptedUpdater) Arm(hostname, passphrase string, cb hal.UpdateCallbacks) error {
	if u.Passphrase != "" && passphrase != u.Passphrase {
		return fmt.Errorf("arm %s: %w", hostname, hal.ErrUpdateAuth)
	}
	u.armed = true
	u.started = false
	u.finished = false
	u.cb = cb
	u.armedAt = time.Now()
	u.sent = 0
	return nil
}

func (u *ScriptedUpdater) Poll() {
	if !u.armed || u.finished {
		return
	}
	now := time.Now()

	if !u.started {
		if now.Sub(u.armedAt) < u.StartAfter {
			return
		}
		u.started = true
		u.lastSend = now
		if u.cb.OnStart != nil {
			u.cb.OnStart()
		}
		return
	}

	if now.Sub(u.lastSend) < u.ChunkEvery {
		return
	}
	u.lastSend = now

	u.sent += u.ChunkBytes
	if u.sent > u.TotalBytes {
		u.sent = u.TotalBytes
	}

	if u.FailAfter > 0 && u.sent >= u.FailAfter && u.FailWith != nil {
		u.finished = true
		if u.cb.OnError != nil {
			u.cb.OnError(u.FailWith)
		}
		return
	}

	if u.cb.OnProgress != nil {
		u.cb.OnProgress(u.sent, u.TotalBytes)
	}
	if u.sent >= u.TotalBytes {
		u.finished = true
		if u.cb.OnEnd != nil {
			u.cb.OnEnd()
		}
	}
}

func (u *ScriptedUpdater) Disarm() {
	u.armed = false
	u.cb = hal.UpdateCallbacks{}
}
