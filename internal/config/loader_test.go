package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lumina.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
device_name: Bedroom
led_count: 24
udp_port: 5300
battery:
  warning_volts: 3.4
timing:
  heartbeat_ms: 1000
  search_timeout_ms: 10000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.DeviceName != "Bedroom" {
		t.Errorf("device name = %q, want %q", cfg.DeviceName, "Bedroom")
	}
	if cfg.LEDCount != 24 {
		t.Errorf("led count = %d, want 24", cfg.LEDCount)
	}
	if cfg.UDPPort != 5300 {
		t.Errorf("udp port = %d, want 5300", cfg.UDPPort)
	}
	if cfg.Battery.WarningVolts != 3.4 {
		t.Errorf("warning volts = %v, want 3.4", cfg.Battery.WarningVolts)
	}
	if cfg.Timing.Heartbeat != time.Second {
		t.Errorf("heartbeat = %v, want 1s", cfg.Timing.Heartbeat)
	}
	if cfg.Timing.SearchTimeout != 10*time.Second {
		t.Errorf("search timeout = %v, want 10s", cfg.Timing.SearchTimeout)
	}

	// Untouched fields keep their defaults.
	def := Default()
	if cfg.APSSID != def.APSSID {
		t.Errorf("ap ssid = %q, want default %q", cfg.APSSID, def.APSSID)
	}
	if cfg.Timing.ProvisionTimeout != def.Timing.ProvisionTimeout {
		t.Errorf("provision timeout = %v, want default %v",
			cfg.Timing.ProvisionTimeout, def.Timing.ProvisionTimeout)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero led count", "led_count: 0"},
		{"negative led count", "led_count: -4"},
		{"port out of range", "udp_port: 70000"},
		{"inverted battery range", "battery:\n  full_volts: 3.0\n  empty_volts: 4.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Errorf("Load accepted %q", tt.content)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load accepted a missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "device_name: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("Load accepted malformed YAML")
	}
}
