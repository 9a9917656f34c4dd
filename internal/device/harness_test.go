package device

import (
	"testing"

	"github.com/Kim1ni/lumina-firmware/internal/config"
	"github.com/Kim1ni/lumina-firmware/internal/creds"
	"github.com/Kim1ni/lumina-firmware/internal/hal"
)

// Test doubles for the hardware surfaces. Everything records enough to
// assert on; nothing touches the host network or filesystem.

type fakeRing struct {
	pixels     [][3]uint8
	brightness uint8
	shows      int
}

func newFakeRing(n int) *fakeRing {
	return &fakeRing{pixels: make([][3]uint8, n)}
}

func (r *fakeRing) Len() int { return len(r.pixels) }

func (r *fakeRing) SetPixel(i int, red, green, blue uint8) {
	if i < 0 || i >= len(r.pixels) {
		return
	}
	r.pixels[i] = [3]uint8{red, green, blue}
}

func (r *fakeRing) Clear() {
	for i := range r.pixels {
		r.pixels[i] = [3]uint8{}
	}
}

func (r *fakeRing) Show() { r.shows++ }

func (r *fakeRing) SetBrightness(level uint8) { r.brightness = level }

type sentReply struct {
	to   string
	data []byte
}

type fakeTransport struct {
	connected bool
	listening bool
	apActive  bool

	joins      int
	stops      int
	inbox      []hal.Datagram
	broadcasts [][]byte
	replies    []sentReply
}

func (t *fakeTransport) Join(ssid, password string) error {
	t.joins++
	t.apActive = false
	return nil
}

func (t *fakeTransport) StartAccessPoint(name, passphrase string) error {
	t.apActive = true
	t.connected = false
	return nil
}

func (t *fakeTransport) Listen() error {
	t.listening = true
	return nil
}

func (t *fakeTransport) Stop() {
	t.listening = false
	t.stops++
}

func (t *fakeTransport) SendBroadcast(data []byte) error {
	packet := make([]byte, len(data))
	copy(packet, data)
	t.broadcasts = append(t.broadcasts, packet)
	return nil
}

func (t *fakeTransport) Reply(to string, data []byte) error {
	packet := make([]byte, len(data))
	copy(packet, data)
	t.replies = append(t.replies, sentReply{to: to, data: packet})
	return nil
}

func (t *fakeTransport) ReceivePending() (hal.Datagram, bool) {
	if len(t.inbox) == 0 {
		return hal.Datagram{}, false
	}
	dg := t.inbox[0]
	t.inbox = t.inbox[1:]
	return dg, true
}

func (t *fakeTransport) Connected() bool { return t.connected }

func (t *fakeTransport) LocalAddr() string { return "192.168.1.50" }

func (t *fakeTransport) SignalStrength() int { return -52 }

// queue stages one inbound datagram for the next poll.
func (t *fakeTransport) queue(from string, data []byte) {
	t.inbox = append(t.inbox, hal.Datagram{From: from, Data: data})
}

type fakeStore struct {
	data [creds.RecordSize]byte
}

func (s *fakeStore) ReadByte(addr int) byte { return s.data[addr] }

func (s *fakeStore) WriteByte(addr int, b byte) { s.data[addr] = b }

func (s *fakeStore) Commit() error { return nil }

type fakeClock struct {
	now int64
}

func (c *fakeClock) Millis() int64 { return c.now }

func (c *fakeClock) advance(ms int64) { c.now += ms }

type fakeBattery struct {
	volts float64
}

func (b *fakeBattery) ReadVoltage() float64 { return b.volts }

type fakeSystem struct {
	freeHeap uint32
	rebooted bool
}

func (s *fakeSystem) FreeMemory() uint32 { return s.freeHeap }

func (s *fakeSystem) Reboot() { s.rebooted = true }

// fakeUpdater runs one scripted action per Poll call.
type fakeUpdater struct {
	armErr     error
	armed      bool
	hostname   string
	passphrase string
	cb         hal.UpdateCallbacks
	disarms    int
	script     []func(cb hal.UpdateCallbacks)
}

func (u *fakeUpdater) Arm(hostname, passphrase string, cb hal.UpdateCallbacks) error {
	if u.armErr != nil {
		return u.armErr
	}
	u.armed = true
	u.hostname = hostname
	u.passphrase = passphrase
	u.cb = cb
	return nil
}

func (u *fakeUpdater) Poll() {
	if len(u.script) == 0 {
		return
	}
	action := u.script[0]
	u.script = u.script[1:]
	action(u.cb)
}

func (u *fakeUpdater) Disarm() {
	u.armed = false
	u.disarms++
}

// fixture bundles a manager with its fakes.
type fixture struct {
	cfg       config.Config
	mgr       *Manager
	ring      *fakeRing
	transport *fakeTransport
	store     *fakeStore
	clock     *fakeClock
	battery   *fakeBattery
	system    *fakeSystem
	updater   *fakeUpdater
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	f := &fixture{
		cfg:       cfg,
		ring:      newFakeRing(cfg.LEDCount),
		transport: &fakeTransport{},
		store:     &fakeStore{},
		clock:     &fakeClock{now: 1_000_000},
		battery:   &fakeBattery{volts: 4.0},
		system:    &fakeSystem{freeHeap: 40_000},
		updater:   &fakeUpdater{},
	}
	f.mgr = NewManager(cfg, Deps{
		Ring:      f.ring,
		Transport: f.transport,
		Store:     f.store,
		Clock:     f.clock,
		Battery:   f.battery,
		System:    f.system,
		Updater:   f.updater,
	})
	return f
}

// saveCredentials seeds the store with a valid record.
func (f *fixture) saveCredentials(t *testing.T, ssid, password string) {
	t.Helper()
	if err := creds.NewStore(f.store).Save(ssid, password); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}
}

// tick advances the clock and runs one loop iteration.
func (f *fixture) tick(t *testing.T, ms int64) {
	t.Helper()
	f.clock.advance(ms)
	f.mgr.Tick()
}

// bootConnected drives the manager from a cold start into Connected
// with the enter flash already finished.
func (f *fixture) bootConnected(t *testing.T) {
	t.Helper()
	f.saveCredentials(t, "HomeNet", "pw123456")
	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if f.mgr.StateName() != "Searching" {
		t.Fatalf("state after boot = %q, want Searching", f.mgr.StateName())
	}

	f.transport.connected = true
	f.tick(t, f.cfg.Timing.ConnectRetry.Milliseconds()+1)
	if f.mgr.StateName() != "Connected" {
		t.Fatalf("state after link up = %q, want Connected", f.mgr.StateName())
	}

	// Play out the confirmation flash.
	f.tick(t, 1)
	f.tick(t, 501)
}
