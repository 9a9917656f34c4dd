package device

import (
	"time"

	"go.uber.org/zap"

	"github.com/Kim1ni/lumina-firmware/internal/hal"
	"github.com/Kim1ni/lumina-firmware/internal/lighting"
	"github.com/Kim1ni/lumina-firmware/internal/logging"
	"github.com/Kim1ni/lumina-firmware/internal/protocol"
)

// Busy-pulse parameters while no progress has been reported. Faster and
// wider than the searching pulse on purpose.
const (
	updatePulseInterval = 30 * time.Millisecond
	updatePulseStep     = 10
	updatePulseMin      = 20
	updatePulseMax      = 200
)

// updateSession tracks one armed firmware update. It exists only while
// the Updating state is active.
type updateSession struct {
	armed       bool
	lastPercent uint8
	progressed  bool
}

// updatingState owns a firmware update session. While active, every
// command except get-status is ignored: nothing may mutate the device
// mid-flash. Failures roll back to Connected, always, regardless of
// which mode preceded the update.
type updatingState struct {
	m *Manager

	session *updateSession

	pulseLevel  uint8
	pulseRising bool
	lastPulse   int64

	// failure holds the error flash; rollback follows it.
	failure *sequence
	// completion holds the success sweep; the mechanism restarts the
	// device afterwards.
	completion *sequence
}

// NewUpdating returns the Updating state bound to the manager.
func NewUpdating(m *Manager) State {
	return &updatingState{m: m}
}

func (s *updatingState) Enter() {
	m := s.m

	if !m.transport.Connected() {
		// An update cannot proceed offline.
		logging.Warn("no network, aborting update")
		_ = m.Transition(NewSearching(m))
		return
	}

	logging.Info("update mode armed, device locked")
	if err := m.transport.Listen(); err != nil {
		logging.Warn("listener failed to start", zap.Error(err))
	}

	s.session = &updateSession{}
	s.pulseLevel = updatePulseMin
	s.pulseRising = true
	s.lastPulse = m.clock.Millis()
	s.failure = nil
	s.completion = nil

	cb := hal.UpdateCallbacks{
		OnStart:    s.onStart,
		OnProgress: s.onProgress,
		OnError:    s.onError,
		OnEnd:      s.onEnd,
	}
	if err := m.updater.Arm(m.cfg.DeviceName, m.cfg.OTAPassword, cb); err != nil {
		s.onError(err)
		return
	}
	s.session.armed = true
}

func (s *updatingState) Exit() {
	s.m.updater.Disarm()
	s.session = nil
	s.m.transport.Stop()
	blankRing(s.m.ring)
}

func (s *updatingState) Update(now int64) {
	if s.failure != nil {
		if s.failure.tick(now) {
			s.failure = nil
			logging.Info("rolling back to connected after update failure")
			_ = s.m.Transition(NewConnected(s.m))
		}
		return
	}
	if s.completion != nil {
		if s.completion.tick(now) {
			s.completion = nil
		}
		// The mechanism restarts the device; nothing left to drive.
		return
	}

	if s.session != nil && s.session.armed {
		s.m.updater.Poll()
	}
	// Poll callbacks may have started a sequence or transitioned.
	if s.failure != nil || s.completion != nil || s.m.current != State(s) {
		return
	}

	if s.session != nil && !s.session.progressed {
		s.busyPulse(now)
	}

	if cmd, from, ok := s.m.pollCommand(); ok {
		s.HandleCommand(cmd, from)
	}
}

func (s *updatingState) busyPulse(now int64) {
	if now-s.lastPulse < updatePulseInterval.Milliseconds() {
		return
	}
	s.lastPulse = now

	if s.pulseRising {
		if s.pulseLevel >= updatePulseMax-updatePulseStep {
			s.pulseLevel = updatePulseMax
			s.pulseRising = false
		} else {
			s.pulseLevel += updatePulseStep
		}
	} else {
		if s.pulseLevel <= updatePulseMin+updatePulseStep {
			s.pulseLevel = updatePulseMin
			s.pulseRising = true
		} else {
			s.pulseLevel -= updatePulseStep
		}
	}

	// Yellow pulse: equal red and green channels.
	fillRing(s.m.ring, lighting.Color{R: s.pulseLevel, G: s.pulseLevel, B: 0})
}

func (s *updatingState) onStart() {
	logging.Info("update transfer starting")
	blankRing(s.m.ring)
}

// onProgress redraws the ring progress bar when the percent changes.
func (s *updatingState) onProgress(done, total uint32) {
	if s.session == nil || total == 0 {
		return
	}
	s.session.progressed = true

	percent := uint8(done * 100 / total)
	if percent == s.session.lastPercent {
		return
	}
	s.session.lastPercent = percent

	ring := s.m.ring
	ring.Clear()
	lit := int(percent) * ring.Len() / 100
	c := lighting.ColorUpdating
	for i := 0; i < lit; i++ {
		ring.SetPixel(i, c.R, c.G, c.B)
	}
	ring.Show()

	logging.Info("update progress", zap.Uint8("percent", percent))
}

func (s *updatingState) onError(cause error) {
	failure := ClassifyUpdateError(cause)
	logging.Error("update failed",
		zap.String("class", failure.String()),
		zap.Error(cause),
	)
	s.failure = errorFlash(s.m.ring)
}

func (s *updatingState) onEnd() {
	logging.Info("update complete")
	s.completion = completionSweep(s.m.ring)
}

func (s *updatingState) HandleCommand(cmd protocol.Command, from string) {
	switch cmd.(type) {
	case *protocol.GetStatusCommand:
		var percent uint8
		if s.session != nil {
			percent = s.session.lastPercent
		}
		if err := s.m.transport.Reply(from, protocol.EncodeUpdateProgress(percent)); err != nil {
			logging.Warn("progress reply failed", zap.Error(err))
		}
	default:
		// No mutation mid-flash.
		logging.Debug("command ignored during update", zap.String("command", cmd.String()))
	}
}

func (s *updatingState) HandleTimeout() {
	logging.Info("update idle timeout, returning to connected")
	_ = s.m.Transition(NewConnected(s.m))
}

func (s *updatingState) Deadline() time.Duration { return s.m.cfg.Timing.UpdateTimeout }

func (s *updatingState) Mode() Mode { return ModeUpdating }

func (s *updatingState) Name() string { return "Updating" }
