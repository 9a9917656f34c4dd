package device

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Kim1ni/lumina-firmware/internal/config"
	"github.com/Kim1ni/lumina-firmware/internal/creds"
	"github.com/Kim1ni/lumina-firmware/internal/hal"
	"github.com/Kim1ni/lumina-firmware/internal/logging"
	"github.com/Kim1ni/lumina-firmware/internal/protocol"
)

// Deps are the hardware collaborators the manager exposes to states.
// They are shared by reference but mutated only from the tick goroutine.
type Deps struct {
	Ring      hal.LEDRing
	Transport hal.Transport
	Store     hal.ByteStore
	Clock     hal.Clock
	Battery   hal.Battery
	System    hal.System
	Updater   hal.Updater
}

// Manager owns the single active state and drives the cooperative
// control loop. It is the explicit context passed into state
// constructors; there is no global instance.
type Manager struct {
	cfg config.Config

	ring      hal.LEDRing
	transport hal.Transport
	clock     hal.Clock
	battery   hal.Battery
	system    hal.System
	updater   hal.Updater
	creds     *creds.Store

	current      State
	enteredAt    int64
	timeoutFired bool

	// Transition bookkeeping. A transition requested while one is in
	// flight is captured in the one-deep deferred slot and applied
	// after the in-flight transition completes, never nested.
	inTransition bool
	deferred     State

	telemetry     telemetry
	lastBattery   int64
	lastHeapCheck int64
	lastHeap      uint32
}

// NewManager builds a manager over the given collaborators.
func NewManager(cfg config.Config, deps Deps) *Manager {
	return &Manager{
		cfg:       cfg,
		ring:      deps.Ring,
		transport: deps.Transport,
		clock:     deps.Clock,
		battery:   deps.Battery,
		system:    deps.System,
		updater:   deps.Updater,
		creds:     creds.NewStore(deps.Store),
	}
}

// Initialize takes the first telemetry sample and transitions into
// Searching.
func (m *Manager) Initialize() error {
	m.ring.SetBrightness(m.cfg.Brightness.Max)
	m.ring.Clear()
	m.ring.Show()

	now := m.clock.Millis()
	m.telemetry.seed(m.battery.ReadVoltage(), m.cfg.Battery)
	m.telemetry.freeHeap = m.system.FreeMemory()
	m.lastBattery = now
	m.lastHeapCheck = now
	m.lastHeap = m.telemetry.freeHeap

	logging.Info("firmware core starting",
		zap.String("device", m.cfg.DeviceName),
		zap.Float64("battery_volts", m.telemetry.voltage),
		zap.Uint8("battery_pct", m.telemetry.percent),
		zap.Uint32("free_heap", m.telemetry.freeHeap),
	)

	return m.Transition(NewSearching(m))
}

// Tick runs one control-loop iteration: telemetry refresh on its
// cadences, the mode deadline check, and the active state's update.
func (m *Manager) Tick() {
	now := m.clock.Millis()

	if now-m.lastBattery >= m.cfg.Timing.BatterySample.Milliseconds() {
		m.lastBattery = now
		m.telemetry.push(m.battery.ReadVoltage(), m.cfg.Battery)
		m.telemetry.freeHeap = m.system.FreeMemory()
	}

	m.checkHeap(now)

	if m.current == nil {
		return
	}

	if d := m.current.Deadline(); d > 0 && !m.timeoutFired && now-m.enteredAt > d.Milliseconds() {
		m.timeoutFired = true
		m.current.HandleTimeout()
	}

	if m.current != nil {
		m.current.Update(now)
	}
}

// checkHeap compares free memory against the previous sampling window
// and emits a diagnostic if it shrank past the threshold. Observability
// only; nothing corrective happens here.
func (m *Manager) checkHeap(now int64) {
	if now-m.lastHeapCheck < m.cfg.Timing.HeapCheck.Milliseconds() {
		return
	}
	m.lastHeapCheck = now

	current := m.system.FreeMemory()
	if m.lastHeap > current && m.lastHeap-current > m.cfg.Memory.ShrinkThreshold {
		logging.Warn("free heap shrank past threshold",
			zap.Uint32("previous", m.lastHeap),
			zap.Uint32("current", current),
			zap.Uint32("lost", m.lastHeap-current),
		)
	}
	if current < m.cfg.Memory.MinFreeHeap {
		logging.Warn("free heap below minimum",
			zap.Uint32("free_heap", current),
			zap.Uint32("minimum", m.cfg.Memory.MinFreeHeap),
		)
	}
	m.lastHeap = current
}

// Transition replaces the active state: exit on the old state before
// release, enter on the new one after installation. A nil target is
// refused and the current state stays active. A request made while a
// transition is already in flight is deferred and applied once the
// in-flight transition completes.
func (m *Manager) Transition(next State) error {
	if next == nil {
		logging.Error("refused transition to nil state")
		return fmt.Errorf("transition to nil state")
	}

	if m.inTransition {
		if m.deferred != nil {
			logging.Warn("deferred transition overwritten",
				zap.String("dropped", m.deferred.Name()),
				zap.String("next", next.Name()),
			)
		}
		m.deferred = next
		return nil
	}

	m.replace(next)

	// Apply deferred requests one at a time. Each replace may defer
	// again (Searching with no credentials defers Provisioning from
	// its own Enter), so loop until the slot stays empty.
	for m.deferred != nil {
		d := m.deferred
		m.deferred = nil
		m.replace(d)
	}
	return nil
}

// replace runs the exit-release-install-enter protocol for one state.
func (m *Manager) replace(next State) {
	m.inTransition = true

	if m.current != nil {
		logging.Info("state transition",
			zap.String("from", m.current.Name()),
			zap.String("to", next.Name()),
		)
		m.current.Exit()
	} else {
		logging.Info("initial state", zap.String("state", next.Name()))
	}

	m.current = next
	m.enteredAt = m.clock.Millis()
	m.timeoutFired = false
	m.current.Enter()

	m.inTransition = false
}

// Mode returns the active mode.
func (m *Manager) Mode() Mode {
	if m.current == nil {
		return 0
	}
	return m.current.Mode()
}

// StateName returns the active state's name, or empty before
// initialization.
func (m *Manager) StateName() string {
	if m.current == nil {
		return ""
	}
	return m.current.Name()
}

// Telemetry returns a read-only copy of the last telemetry sample.
func (m *Manager) Telemetry() TelemetrySnapshot {
	return TelemetrySnapshot{
		Voltage:        m.telemetry.voltage,
		BatteryPercent: m.telemetry.percent,
		FreeHeap:       m.telemetry.freeHeap,
	}
}

// StrategyName returns the active lighting strategy's name while
// Connected, or empty otherwise.
func (m *Manager) StrategyName() string {
	if s, ok := m.current.(*connectedState); ok {
		return s.strategy.Name()
	}
	return ""
}

// pollCommand drains one pending inbound datagram and decodes it.
// Malformed packets are dropped with a diagnostic, never a fault.
func (m *Manager) pollCommand() (protocol.Command, string, bool) {
	dg, ok := m.transport.ReceivePending()
	if !ok {
		return nil, "", false
	}

	cmd, err := protocol.ParseCommand(dg.Data)
	if err != nil {
		logging.Warn("dropping malformed command",
			zap.String("from", dg.From),
			zap.Error(err),
		)
		logging.LogRawBytes("dropped datagram", dg.Data)
		return nil, "", false
	}
	return cmd, dg.From, true
}

// reboot blanks the ring and restarts the device.
func (m *Manager) reboot() {
	logging.Info("rebooting")
	m.ring.Clear()
	m.ring.Show()
	m.system.Reboot()
}
