package device

import (
	"testing"

	"github.com/Kim1ni/lumina-firmware/internal/creds"
	"github.com/Kim1ni/lumina-firmware/internal/hal"
	"github.com/Kim1ni/lumina-firmware/internal/protocol"
)

func TestConnectedHeartbeatBroadcast(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)

	// First heartbeat goes out on the first tick after the flash.
	f.tick(t, 25)

	var packet []byte
	for _, b := range f.transport.broadcasts {
		if len(b) > 0 && b[0] == protocol.StatusHeartbeat {
			packet = b
		}
	}
	if packet == nil {
		t.Fatal("no heartbeat broadcast")
	}

	hb, err := protocol.ParseHeartbeat(packet)
	if err != nil {
		t.Fatalf("ParseHeartbeat: %v", err)
	}
	if hb.Mode != protocol.ModeCodeConnected {
		t.Errorf("mode = 0x%02x, want 0x%02x", hb.Mode, protocol.ModeCodeConnected)
	}
	if hb.Strategy != "Calm" {
		t.Errorf("strategy = %q, want Calm", hb.Strategy)
	}
	if hb.RSSI != -52 {
		t.Errorf("rssi = %d, want -52", hb.RSSI)
	}
}

func TestConnectedSetMoodReplacesStrategy(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)

	// Focus mood with base RGB(10,20,30).
	f.transport.queue("10.0.0.2:400", []byte{0x02, 0x01, 10, 20, 30})
	f.tick(t, 25)

	if got := f.mgr.StrategyName(); got != "Focus" {
		t.Fatalf("strategy = %q, want Focus", got)
	}

	// Party with a single color borrows palette colors for its bands.
	f.transport.queue("10.0.0.2:400", []byte{0x02, 0x02, 200, 0, 0})
	f.tick(t, 25)

	if got := f.mgr.StrategyName(); got != "Party" {
		t.Fatalf("strategy = %q, want Party", got)
	}
}

func TestConnectedSetColorAndBrightness(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)

	f.transport.queue("10.0.0.2:400", []byte{0x01, 10, 20, 30})
	f.tick(t, 25)
	if got := f.mgr.StrategyName(); got != "Solid" {
		t.Fatalf("strategy = %q, want Solid", got)
	}

	f.transport.queue("10.0.0.2:400", []byte{0x03, 90})
	f.tick(t, 25)
	if f.ring.brightness != 90 {
		t.Errorf("brightness = %d, want 90", f.ring.brightness)
	}
}

func TestConnectedLinkLossReturnsToSearching(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)

	f.transport.connected = false
	f.tick(t, f.cfg.Timing.ConnectionCheck.Milliseconds()+1)

	if got := f.mgr.StateName(); got != "Searching" {
		t.Fatalf("state after link loss = %q, want Searching", got)
	}
}

func TestConnectedFactoryReset(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)

	f.transport.queue("10.0.0.2:400", []byte{0xFF})
	f.tick(t, 25)

	if !f.system.rebooted {
		t.Error("factory reset did not reboot")
	}
	if _, ok := creds.NewStore(f.store).Load(); ok {
		t.Error("credentials survived factory reset")
	}
}

func TestProvisioningAcceptsCredentials(t *testing.T) {
	f := newFixture(t)
	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if f.mgr.StateName() != "Provisioning" {
		t.Fatalf("state = %q, want Provisioning", f.mgr.StateName())
	}

	packet, err := protocol.BuildProvision("MyNet", "secret123")
	if err != nil {
		t.Fatalf("BuildProvision: %v", err)
	}
	f.transport.queue("192.168.4.2:500", packet)
	f.tick(t, 25)

	// The requester gets a direct acknowledgment naming the next mode.
	if len(f.transport.replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(f.transport.replies))
	}
	reply := f.transport.replies[0]
	if reply.to != "192.168.4.2:500" {
		t.Errorf("reply target = %q, want the requester", reply.to)
	}
	notice, err := protocol.ParseStateNotice(reply.data)
	if err != nil {
		t.Fatalf("ParseStateNotice: %v", err)
	}
	if notice.Mode != protocol.ModeCodeSearching {
		t.Errorf("ack mode = 0x%02x, want searching", notice.Mode)
	}

	// Credentials persist before the reboot.
	stored, ok := creds.NewStore(f.store).Load()
	if !ok || stored.SSID != "MyNet" || stored.Password != "secret123" {
		t.Fatalf("stored credentials = %+v (ok=%v)", stored, ok)
	}

	// The success animation plays out, then the device reboots.
	f.tick(t, 25)
	if f.system.rebooted {
		t.Fatal("rebooted before the success animation finished")
	}
	f.tick(t, 2_001)
	if !f.system.rebooted {
		t.Error("no reboot after the success animation")
	}
}

func TestProvisioningPresenceBroadcast(t *testing.T) {
	f := newFixture(t)
	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	f.tick(t, 25)

	var packet []byte
	for _, b := range f.transport.broadcasts {
		if len(b) > 0 && b[0] == protocol.StatusState {
			packet = b
		}
	}
	if packet == nil {
		t.Fatal("no presence broadcast")
	}
	notice, err := protocol.ParseStateNotice(packet)
	if err != nil {
		t.Fatalf("ParseStateNotice: %v", err)
	}
	if notice.Mode != protocol.ModeCodeProvisioning {
		t.Errorf("mode = 0x%02x, want provisioning", notice.Mode)
	}
	if notice.DeviceName != f.cfg.DeviceName {
		t.Errorf("device name = %q, want %q", notice.DeviceName, f.cfg.DeviceName)
	}
}

func TestProvisioningStatusReply(t *testing.T) {
	f := newFixture(t)
	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	f.transport.queue("192.168.4.2:500", []byte{0x04})
	f.tick(t, 25)

	if len(f.transport.replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(f.transport.replies))
	}
	info, err := protocol.ParseDeviceInfo(f.transport.replies[0].data)
	if err != nil {
		t.Fatalf("ParseDeviceInfo: %v", err)
	}
	if info.Mode != protocol.ModeCodeProvisioning {
		t.Errorf("mode = 0x%02x, want provisioning", info.Mode)
	}
	if info.Version == "" {
		t.Error("device info carries no firmware version")
	}
}

func TestProvisioningTimeoutReturnsToSearching(t *testing.T) {
	f := newFixture(t)
	// Credentials exist but the network stays down: the search deadline
	// hands off to Provisioning, and the provisioning deadline hands
	// back.
	f.saveCredentials(t, "HomeNet", "pw123456")
	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	f.tick(t, f.cfg.Timing.SearchTimeout.Milliseconds()+1)
	if got := f.mgr.StateName(); got != "Provisioning" {
		t.Fatalf("state after search timeout = %q, want Provisioning", got)
	}

	f.tick(t, f.cfg.Timing.ProvisionTimeout.Milliseconds()+1)
	if got := f.mgr.StateName(); got != "Searching" {
		t.Fatalf("state after provisioning timeout = %q, want Searching", got)
	}
}

// enterUpdating drives a connected fixture into Updating via the wire
// command.
func enterUpdating(t *testing.T, f *fixture) {
	t.Helper()
	f.transport.queue("10.0.0.2:400", []byte{0x06})
	f.tick(t, 25)
	if got := f.mgr.StateName(); got != "Updating" {
		t.Fatalf("state = %q, want Updating", got)
	}
	if !f.updater.armed {
		t.Fatal("updater not armed")
	}
	if f.updater.passphrase != f.cfg.OTAPassword {
		t.Errorf("updater passphrase = %q, want the configured one", f.updater.passphrase)
	}
}

func TestUpdateFailureRollsBackToConnected(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)
	enterUpdating(t, f)

	f.updater.script = []func(cb hal.UpdateCallbacks){
		func(cb hal.UpdateCallbacks) { cb.OnStart() },
		func(cb hal.UpdateCallbacks) { cb.OnProgress(100, 1000) },
		func(cb hal.UpdateCallbacks) { cb.OnError(hal.ErrUpdateBegin) },
	}

	// Drive through the scripted failure and the error flash. The
	// rollback target is Connected regardless of the failure point.
	for i := 0; i < 12; i++ {
		f.tick(t, 250)
		if mode := f.mgr.Mode(); mode == ModeSearching || mode == ModeProvisioning {
			t.Fatalf("rollback passed through %v", mode)
		}
	}

	if got := f.mgr.StateName(); got != "Connected" {
		t.Fatalf("state after update failure = %q, want Connected", got)
	}
	if f.updater.disarms == 0 {
		t.Error("updater never disarmed")
	}
}

func TestUpdatingIgnoresMutationCommands(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)
	enterUpdating(t, f)

	// Lighting and reset commands must not take effect mid-flash.
	f.transport.queue("10.0.0.2:400", []byte{0x01, 9, 9, 9})
	f.tick(t, 25)
	f.transport.queue("10.0.0.2:400", []byte{0xFF})
	f.tick(t, 25)

	if got := f.mgr.StateName(); got != "Updating" {
		t.Fatalf("state = %q, want Updating", got)
	}
	if f.system.rebooted {
		t.Error("factory reset executed during update")
	}
	if _, ok := creds.NewStore(f.store).Load(); !ok {
		t.Error("credentials lost during update")
	}
}

func TestUpdatingAnswersStatusWithProgress(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)
	enterUpdating(t, f)

	f.updater.script = []func(cb hal.UpdateCallbacks){
		func(cb hal.UpdateCallbacks) { cb.OnStart() },
		func(cb hal.UpdateCallbacks) { cb.OnProgress(420, 1000) },
	}
	f.tick(t, 25)
	f.tick(t, 25)

	f.transport.queue("10.0.0.2:400", []byte{0x04})
	f.tick(t, 25)

	if len(f.transport.replies) == 0 {
		t.Fatal("no progress reply")
	}
	notice, err := protocol.ParseStateNotice(f.transport.replies[len(f.transport.replies)-1].data)
	if err != nil {
		t.Fatalf("ParseStateNotice: %v", err)
	}
	if notice.Mode != protocol.ModeCodeUpdating || notice.Progress != 42 {
		t.Errorf("progress reply = %+v, want updating at 42%%", notice)
	}
}

func TestUpdateIdleTimeoutReturnsToConnected(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)
	enterUpdating(t, f)

	f.tick(t, f.cfg.Timing.UpdateTimeout.Milliseconds()+1)

	if got := f.mgr.StateName(); got != "Connected" {
		t.Fatalf("state after update timeout = %q, want Connected", got)
	}
}

func TestUpdateArmFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)

	f.updater.armErr = hal.ErrUpdateAuth
	f.transport.queue("10.0.0.2:400", []byte{0x06})
	f.tick(t, 25)

	// The error flash plays, then the device is back in Connected.
	for i := 0; i < 8; i++ {
		f.tick(t, 250)
	}
	if got := f.mgr.StateName(); got != "Connected" {
		t.Fatalf("state after arm failure = %q, want Connected", got)
	}
}
