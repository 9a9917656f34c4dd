package device

import (
	"time"

	"go.uber.org/zap"

	"github.com/Kim1ni/lumina-firmware/internal/lighting"
	"github.com/Kim1ni/lumina-firmware/internal/logging"
	"github.com/Kim1ni/lumina-firmware/internal/protocol"
	"github.com/Kim1ni/lumina-firmware/internal/version"
)

// provisioningSegments is the number of lit pixels in the rotating
// indicator.
const provisioningSegments = 4

// provisioningState runs the device as a local access point so a
// companion app can deliver credentials, and broadcasts presence so the
// device is discoverable without a prior connection.
type provisioningState struct {
	m *Manager

	phase         int
	lastSpin      int64
	lastBroadcast int64

	// success holds the post-save animation; the reboot follows it.
	success *sequence
}

// NewProvisioning returns the Provisioning state bound to the manager.
func NewProvisioning(m *Manager) State {
	return &provisioningState{m: m}
}

func (s *provisioningState) Enter() {
	m := s.m

	logging.Info("starting access point", zap.String("ssid", m.cfg.APSSID))
	if err := m.transport.StartAccessPoint(m.cfg.APSSID, m.cfg.APPassword); err != nil {
		logging.Error("access point failed to start", zap.Error(err))
	}
	if err := m.transport.Listen(); err != nil {
		logging.Error("listener failed to start", zap.Error(err))
	}

	now := m.clock.Millis()
	s.phase = 0
	s.lastSpin = now
	s.lastBroadcast = 0
	s.success = nil
}

func (s *provisioningState) Exit() {
	s.m.transport.Stop()
	blankRing(s.m.ring)
}

func (s *provisioningState) Update(now int64) {
	if s.success != nil {
		if s.success.tick(now) {
			s.success = nil
			logging.Info("credentials accepted, rebooting")
			s.m.reboot()
		}
		return
	}

	s.spin(now)
	s.broadcastPresence(now)

	if cmd, from, ok := s.m.pollCommand(); ok {
		s.HandleCommand(cmd, from)
	}
}

// spin rotates evenly spaced indicator segments around the ring.
func (s *provisioningState) spin(now int64) {
	m := s.m
	if now-s.lastSpin < m.cfg.Timing.ProvisionSpin.Milliseconds() {
		return
	}
	s.lastSpin = now

	n := m.ring.Len()
	if n == 0 {
		return
	}
	m.ring.Clear()
	spacing := n / provisioningSegments
	if spacing == 0 {
		spacing = 1
	}
	c := lighting.ColorProvisioning
	for i := 0; i < provisioningSegments; i++ {
		pos := (s.phase + i*spacing) % n
		m.ring.SetPixel(pos, c.R, c.G, c.B)
	}
	m.ring.Show()
	s.phase = (s.phase + 1) % n
}

func (s *provisioningState) broadcastPresence(now int64) {
	m := s.m
	if s.lastBroadcast != 0 && now-s.lastBroadcast < m.cfg.Timing.Presence.Milliseconds() {
		return
	}
	s.lastBroadcast = now

	packet := protocol.EncodePresence(ModeProvisioning.Code(), m.cfg.DeviceName)
	if err := m.transport.SendBroadcast(packet); err != nil {
		logging.Warn("presence broadcast failed", zap.Error(err))
	} else {
		logging.Debug("presence broadcast sent", zap.String("device", m.cfg.DeviceName))
	}
}

func (s *provisioningState) HandleCommand(cmd protocol.Command, from string) {
	m := s.m

	switch cmd := cmd.(type) {
	case *protocol.ProvisionCommand:
		logging.Info("credentials received", zap.String("ssid", cmd.SSID))
		if err := m.creds.Save(cmd.SSID, cmd.Password); err != nil {
			logging.Error("credential save failed", zap.Error(err))
			return
		}
		// Acknowledge the requester directly; the device reboots into
		// Searching once the success animation finishes.
		ack := protocol.EncodeAck(ModeSearching.Code())
		if err := m.transport.Reply(from, ack); err != nil {
			logging.Warn("provision acknowledgment failed", zap.Error(err))
		}
		s.success = successSweep(m.ring)

	case *protocol.GetStatusCommand:
		reply := protocol.EncodeDeviceInfo(ModeProvisioning.Code(), m.telemetry.percent, version.Version)
		if err := m.transport.Reply(from, reply); err != nil {
			logging.Warn("status reply failed", zap.Error(err))
		}

	case *protocol.FactoryResetCommand:
		logging.Info("factory reset while provisioning")
		if err := m.creds.Clear(); err != nil {
			logging.Error("credential clear failed", zap.Error(err))
		}
		if err := m.transport.Reply(from, protocol.EncodeResetAck()); err != nil {
			logging.Warn("reset acknowledgment failed", zap.Error(err))
		}
		m.reboot()

	default:
		logging.Debug("command ignored while provisioning", zap.String("command", cmd.String()))
	}
}

func (s *provisioningState) HandleTimeout() {
	logging.Info("provisioning timed out, returning to search")
	_ = s.m.Transition(NewSearching(s.m))
}

func (s *provisioningState) Deadline() time.Duration { return s.m.cfg.Timing.ProvisionTimeout }

func (s *provisioningState) Mode() Mode { return ModeProvisioning }

func (s *provisioningState) Name() string { return "Provisioning" }
