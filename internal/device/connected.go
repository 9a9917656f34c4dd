package device

import (
	"time"

	"go.uber.org/zap"

	"github.com/Kim1ni/lumina-firmware/internal/lighting"
	"github.com/Kim1ni/lumina-firmware/internal/logging"
	"github.com/Kim1ni/lumina-firmware/internal/protocol"
)

// connectedState is normal operation: render the active lighting
// strategy, broadcast heartbeats, and serve inbound commands. It
// exclusively owns the strategy; replacement releases the prior one.
type connectedState struct {
	m *Manager

	strategy lighting.Strategy

	lastHeartbeat int64
	lastCheck     int64
	lastRender    int64
	lastLowWarn   int64

	// flash is the brief enter confirmation; normal rendering resumes
	// after it completes.
	flash *sequence
}

// NewConnected returns the Connected state bound to the manager. The
// default strategy is calm breathing in the connected green.
func NewConnected(m *Manager) State {
	return &connectedState{
		m:        m,
		strategy: lighting.NewCalm(lighting.ColorConnected),
	}
}

func (s *connectedState) Enter() {
	m := s.m

	logging.Info("connected", zap.String("addr", m.transport.LocalAddr()))
	if err := m.transport.Listen(); err != nil {
		logging.Warn("listener failed to start", zap.Error(err))
	}

	now := m.clock.Millis()
	// First heartbeat goes out on the first tick after the flash.
	s.lastHeartbeat = now - m.cfg.Timing.Heartbeat.Milliseconds()
	s.lastCheck = now
	s.lastRender = now
	s.lastLowWarn = 0
	s.flash = confirmationFlash(m.ring)
}

func (s *connectedState) Exit() {
	s.m.transport.Stop()
	s.strategy = nil
	blankRing(s.m.ring)
}

func (s *connectedState) Update(now int64) {
	if s.flash != nil {
		if s.flash.tick(now) {
			s.flash = nil
		}
		return
	}

	if s.checkConnection(now) {
		return
	}
	s.sendHeartbeat(now, false)
	s.render(now)

	if cmd, from, ok := s.m.pollCommand(); ok {
		s.HandleCommand(cmd, from)
	}

	s.checkBattery(now)
}

// checkConnection verifies the link on its cadence and falls back to
// Searching when it is lost. Returns true if a transition happened.
func (s *connectedState) checkConnection(now int64) bool {
	m := s.m
	if now-s.lastCheck < m.cfg.Timing.ConnectionCheck.Milliseconds() {
		return false
	}
	s.lastCheck = now

	if !m.transport.Connected() {
		logging.Warn("network lost, returning to search")
		_ = m.Transition(NewSearching(m))
		return true
	}
	return false
}

func (s *connectedState) sendHeartbeat(now int64, force bool) {
	m := s.m
	if !force && now-s.lastHeartbeat < m.cfg.Timing.Heartbeat.Milliseconds() {
		return
	}
	s.lastHeartbeat = now

	hb := protocol.Heartbeat{
		Mode:       ModeConnected.Code(),
		BatteryPct: m.telemetry.percent,
		RSSI:       m.transport.SignalStrength(),
		Voltage:    float32(m.telemetry.voltage),
		FreeHeap:   m.telemetry.freeHeap,
		Strategy:   s.strategy.Name(),
	}
	if err := m.transport.SendBroadcast(protocol.EncodeHeartbeat(hb)); err != nil {
		logging.Warn("heartbeat broadcast failed", zap.Error(err))
		return
	}
	logging.Debug("heartbeat sent",
		zap.Uint8("battery_pct", hb.BatteryPct),
		zap.Uint32("free_heap", hb.FreeHeap),
		zap.Int("rssi", hb.RSSI),
		zap.String("strategy", hb.Strategy),
	)
}

func (s *connectedState) render(now int64) {
	if now-s.lastRender < s.m.cfg.Timing.StrategyRefresh.Milliseconds() {
		return
	}
	s.lastRender = now
	s.strategy.Apply(s.m.ring, now)
}

// checkBattery emits a rate-limited diagnostic when the voltage sits
// between empty and the warning threshold. No corrective action.
func (s *connectedState) checkBattery(now int64) {
	m := s.m
	v := m.telemetry.voltage
	if v >= m.cfg.Battery.WarningVolts || v <= m.cfg.Battery.EmptyVolts {
		return
	}
	if s.lastLowWarn != 0 && now-s.lastLowWarn < m.cfg.Timing.LowBatteryWarn.Milliseconds() {
		return
	}
	s.lastLowWarn = now
	logging.Warn("low battery", zap.Float64("volts", v), zap.Uint8("percent", m.telemetry.percent))
}

func (s *connectedState) HandleCommand(cmd protocol.Command, from string) {
	m := s.m

	switch cmd := cmd.(type) {
	case *protocol.SetColorCommand:
		s.strategy = lighting.NewSolid(cmd.Color)
		logging.Info("strategy set", zap.String("strategy", "Solid"), zap.String("color", cmd.Color.String()))

	case *protocol.SetMoodCommand:
		s.strategy = moodStrategy(cmd)
		logging.Info("strategy set", zap.String("strategy", s.strategy.Name()))

	case *protocol.SetBrightnessCommand:
		m.ring.SetBrightness(cmd.Level)
		m.ring.Show()
		logging.Info("brightness set", zap.Uint8("level", cmd.Level))

	case *protocol.GetStatusCommand:
		s.sendHeartbeat(m.clock.Millis(), true)

	case *protocol.StartUpdateCommand:
		logging.Info("firmware update requested")
		_ = m.Transition(NewUpdating(m))

	case *protocol.FactoryResetCommand:
		logging.Info("factory reset while connected")
		if err := m.creds.Clear(); err != nil {
			logging.Error("credential clear failed", zap.Error(err))
		}
		m.reboot()

	default:
		logging.Warn("unknown command ignored", zap.String("command", cmd.String()))
	}
}

// moodStrategy maps a set-mood command onto a strategy. Unknown mood
// types fall back to a solid fill; party with a single color borrows
// the fixed palette for its other bands.
func moodStrategy(cmd *protocol.SetMoodCommand) lighting.Strategy {
	base := cmd.Colors[0]
	switch cmd.Mood {
	case protocol.MoodCalm:
		return lighting.NewCalm(base)
	case protocol.MoodFocus:
		return lighting.NewFocus(base)
	case protocol.MoodParty:
		if len(cmd.Colors) >= 3 {
			return lighting.NewParty(cmd.Colors[0], cmd.Colors[1], cmd.Colors[2])
		}
		return lighting.NewParty(base, lighting.ColorConnected, lighting.ColorSearching)
	default:
		return lighting.NewSolid(base)
	}
}

func (s *connectedState) HandleTimeout() {}

func (s *connectedState) Deadline() time.Duration { return 0 }

func (s *connectedState) Mode() Mode { return ModeConnected }

func (s *connectedState) Name() string { return "Connected" }
