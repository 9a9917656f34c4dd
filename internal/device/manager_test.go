package device

import (
	"math"
	"testing"
)

func TestBootWithoutCredentialsEntersProvisioning(t *testing.T) {
	f := newFixture(t)

	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// The handoff happens during initialization, before any tick runs.
	if got := f.mgr.StateName(); got != "Provisioning" {
		t.Fatalf("state = %q, want Provisioning", got)
	}
	if f.mgr.Mode() != ModeProvisioning {
		t.Errorf("mode = %v, want %v", f.mgr.Mode(), ModeProvisioning)
	}
	if !f.transport.apActive {
		t.Error("access point not started")
	}
}

func TestBootWithCredentialsEntersSearching(t *testing.T) {
	f := newFixture(t)
	f.saveCredentials(t, "HomeNet", "pw123456")

	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if got := f.mgr.StateName(); got != "Searching" {
		t.Fatalf("state = %q, want Searching", got)
	}
	if f.transport.joins == 0 {
		t.Error("no join attempt on boot")
	}
	if f.ring.brightness != f.cfg.Brightness.Max {
		t.Errorf("brightness = %d, want %d", f.ring.brightness, f.cfg.Brightness.Max)
	}
}

func TestTransitionNilRefused(t *testing.T) {
	f := newFixture(t)
	f.saveCredentials(t, "HomeNet", "pw123456")
	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	before := f.mgr.StateName()
	if err := f.mgr.Transition(nil); err == nil {
		t.Fatal("Transition(nil) accepted")
	}
	if got := f.mgr.StateName(); got != before {
		t.Errorf("state after refused transition = %q, want %q", got, before)
	}
}

func TestSearchingJoinsWhenLinkComesUp(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)

	if f.mgr.Mode() != ModeConnected {
		t.Errorf("mode = %v, want %v", f.mgr.Mode(), ModeConnected)
	}
	if got := f.mgr.StrategyName(); got != "Calm" {
		t.Errorf("default strategy = %q, want Calm", got)
	}
}

func TestSearchingTimeoutEntersProvisioning(t *testing.T) {
	f := newFixture(t)
	f.saveCredentials(t, "HomeNet", "pw123456")
	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// The link never comes up; the deadline hands off to provisioning.
	f.tick(t, f.cfg.Timing.SearchTimeout.Milliseconds()+1)

	if got := f.mgr.StateName(); got != "Provisioning" {
		t.Fatalf("state after timeout = %q, want Provisioning", got)
	}
}

func TestTelemetrySeededAtBoot(t *testing.T) {
	f := newFixture(t)
	f.battery.volts = 3.6
	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	snap := f.mgr.Telemetry()
	// The rolling window is pre-filled with the first sample, so the
	// average equals it.
	if math.Abs(snap.Voltage-3.6) > 1e-9 {
		t.Errorf("voltage = %v, want 3.6", snap.Voltage)
	}
	// 3.6V sits at the midpoint of the 3.0-4.2 range.
	if snap.BatteryPercent < 49 || snap.BatteryPercent > 50 {
		t.Errorf("percent = %d, want ~50", snap.BatteryPercent)
	}
	if snap.FreeHeap != 40_000 {
		t.Errorf("free heap = %d, want 40000", snap.FreeHeap)
	}
}

func TestBatteryRollingAverage(t *testing.T) {
	f := newFixture(t)
	f.battery.volts = 4.0
	if err := f.mgr.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// One fresh 3.6V sample against three seeded 4.0V readings.
	f.battery.volts = 3.6
	f.tick(t, f.cfg.Timing.BatterySample.Milliseconds()+1)

	want := (4.0 + 4.0 + 4.0 + 3.6) / 4
	if got := f.mgr.Telemetry().Voltage; math.Abs(got-want) > 1e-9 {
		t.Errorf("voltage = %v, want %v", got, want)
	}
}

func TestMalformedDatagramDropped(t *testing.T) {
	f := newFixture(t)
	f.bootConnected(t)

	// Truncated set-color: declared payload missing.
	f.transport.queue("10.0.0.9:400", []byte{0x01, 10})
	f.tick(t, 25)

	if got := f.mgr.StateName(); got != "Connected" {
		t.Errorf("state after malformed datagram = %q, want Connected", got)
	}
	if got := f.mgr.StrategyName(); got != "Calm" {
		t.Errorf("strategy after malformed datagram = %q, want Calm", got)
	}
}
