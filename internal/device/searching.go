package device

import (
	"time"

	"go.uber.org/zap"

	"github.com/Kim1ni/lumina-firmware/internal/creds"
	"github.com/Kim1ni/lumina-firmware/internal/lighting"
	"github.com/Kim1ni/lumina-firmware/internal/logging"
	"github.com/Kim1ni/lumina-firmware/internal/protocol"
)

// searchingState tries to join the stored network while pulsing the
// indicator. No stored credentials or a timeout hands off to
// Provisioning; a successful join hands off to Connected.
type searchingState struct {
	m *Manager

	stored creds.Credentials

	pulseLevel  uint8
	pulseRising bool
	lastPulse   int64
	lastAttempt int64
}

// NewSearching returns the Searching state bound to the manager.
func NewSearching(m *Manager) State {
	return &searchingState{m: m}
}

func (s *searchingState) Enter() {
	m := s.m

	stored, ok := m.creds.Load()
	if !ok {
		logging.Info("no stored credentials, entering provisioning")
		// Requested from inside Enter: lands in the deferred slot and
		// applies before the first tick.
		_ = m.Transition(NewProvisioning(m))
		return
	}
	s.stored = stored
	logging.Info("found stored credentials", zap.String("ssid", stored.SSID))

	if err := m.transport.Join(stored.SSID, stored.Password); err != nil {
		logging.Warn("join attempt failed", zap.Error(err))
	}
	if err := m.transport.Listen(); err != nil {
		logging.Warn("listener failed to start", zap.Error(err))
	}

	now := m.clock.Millis()
	s.pulseLevel = m.cfg.Brightness.Min
	s.pulseRising = true
	s.lastPulse = now
	s.lastAttempt = now
}

func (s *searchingState) Exit() {
	s.m.transport.Stop()
	blankRing(s.m.ring)
}

func (s *searchingState) Update(now int64) {
	s.pulse(now)
	s.attempt(now)

	if cmd, from, ok := s.m.pollCommand(); ok {
		s.HandleCommand(cmd, from)
	}
}

// pulse ramps the indicator amplitude up and down one step per frame.
func (s *searchingState) pulse(now int64) {
	m := s.m
	if now-s.lastPulse < m.cfg.Timing.Pulse.Milliseconds() {
		return
	}
	s.lastPulse = now

	step := m.cfg.Brightness.PulseStep
	if s.pulseRising {
		if s.pulseLevel >= m.cfg.Brightness.Max-step {
			s.pulseLevel = m.cfg.Brightness.Max
			s.pulseRising = false
		} else {
			s.pulseLevel += step
		}
	} else {
		if s.pulseLevel <= m.cfg.Brightness.Min+step {
			s.pulseLevel = m.cfg.Brightness.Min
			s.pulseRising = true
		} else {
			s.pulseLevel -= step
		}
	}

	c := lighting.ColorSearching.Scale(float64(s.pulseLevel) / 255)
	fillRing(m.ring, c)
}

// attempt checks the link on the retry cadence and re-joins while it is
// still down.
func (s *searchingState) attempt(now int64) {
	m := s.m
	if now-s.lastAttempt < m.cfg.Timing.ConnectRetry.Milliseconds() {
		return
	}
	s.lastAttempt = now

	if m.transport.Connected() {
		logging.Info("network joined", zap.String("addr", m.transport.LocalAddr()))
		_ = m.Transition(NewConnected(m))
		return
	}

	logging.Debug("still searching, retrying join", zap.String("ssid", s.stored.SSID))
	if err := m.transport.Join(s.stored.SSID, s.stored.Password); err != nil {
		logging.Warn("join attempt failed", zap.Error(err))
	}
}

func (s *searchingState) HandleCommand(cmd protocol.Command, from string) {
	m := s.m

	switch cmd := cmd.(type) {
	case *protocol.ProvisionCommand:
		logging.Info("provision command while searching", zap.String("ssid", cmd.SSID))
		if err := m.creds.Save(cmd.SSID, cmd.Password); err != nil {
			logging.Error("credential save failed", zap.Error(err))
			return
		}
		// New credentials take effect through a clean reboot, not an
		// in-place reconnect.
		m.reboot()

	case *protocol.FactoryResetCommand:
		logging.Info("factory reset while searching")
		if err := m.creds.Clear(); err != nil {
			logging.Error("credential clear failed", zap.Error(err))
		}
		m.reboot()

	default:
		logging.Debug("command ignored while searching", zap.String("command", cmd.String()))
	}
}

func (s *searchingState) HandleTimeout() {
	logging.Info("search timed out, entering provisioning")
	_ = s.m.Transition(NewProvisioning(s.m))
}

func (s *searchingState) Deadline() time.Duration { return s.m.cfg.Timing.SearchTimeout }

func (s *searchingState) Mode() Mode { return ModeSearching }

func (s *searchingState) Name() string { return "Searching" }
