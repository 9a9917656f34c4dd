package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileOverrides is the YAML shape of a simulator config file. Every
// field is optional; absent fields keep their defaults. Durations are
// integer milliseconds, matching the rest of the tooling.
type fileOverrides struct {
	DeviceName *string `yaml:"device_name"`
	LEDCount   *int    `yaml:"led_count"`
	UDPPort    *int    `yaml:"udp_port"`

	APSSID      *string `yaml:"ap_ssid"`
	APPassword  *string `yaml:"ap_password"`
	OTAPassword *string `yaml:"ota_password"`

	Battery struct {
		FullVolts    *float64 `yaml:"full_volts"`
		EmptyVolts   *float64 `yaml:"empty_volts"`
		WarningVolts *float64 `yaml:"warning_volts"`
	} `yaml:"battery"`

	Timing struct {
		HeartbeatMs        *int `yaml:"heartbeat_ms"`
		PresenceMs         *int `yaml:"presence_ms"`
		SearchTimeoutMs    *int `yaml:"search_timeout_ms"`
		ProvisionTimeoutMs *int `yaml:"provision_timeout_ms"`
		UpdateTimeoutMs    *int `yaml:"update_timeout_ms"`
	} `yaml:"timing"`
}

// Load returns the default configuration with overrides applied from
// the YAML file at path. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var o fileOverrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if o.DeviceName != nil {
		cfg.DeviceName = *o.DeviceName
	}
	if o.LEDCount != nil {
		if *o.LEDCount <= 0 {
			return cfg, fmt.Errorf("led_count must be positive, got %d", *o.LEDCount)
		}
		cfg.LEDCount = *o.LEDCount
	}
	if o.UDPPort != nil {
		if *o.UDPPort <= 0 || *o.UDPPort > 65535 {
			return cfg, fmt.Errorf("udp_port out of range: %d", *o.UDPPort)
		}
		cfg.UDPPort = *o.UDPPort
	}
	if o.APSSID != nil {
		cfg.APSSID = *o.APSSID
	}
	if o.APPassword != nil {
		cfg.APPassword = *o.APPassword
	}
	if o.OTAPassword != nil {
		cfg.OTAPassword = *o.OTAPassword
	}

	if o.Battery.FullVolts != nil {
		cfg.Battery.FullVolts = *o.Battery.FullVolts
	}
	if o.Battery.EmptyVolts != nil {
		cfg.Battery.EmptyVolts = *o.Battery.EmptyVolts
	}
	if o.Battery.WarningVolts != nil {
		cfg.Battery.WarningVolts = *o.Battery.WarningVolts
	}
	if cfg.Battery.FullVolts <= cfg.Battery.EmptyVolts {
		return cfg, fmt.Errorf("battery full_volts (%.2f) must exceed empty_volts (%.2f)",
			cfg.Battery.FullVolts, cfg.Battery.EmptyVolts)
	}

	applyMs(&cfg.Timing.Heartbeat, o.Timing.HeartbeatMs)
	applyMs(&cfg.Timing.Presence, o.Timing.PresenceMs)
	applyMs(&cfg.Timing.SearchTimeout, o.Timing.SearchTimeoutMs)
	applyMs(&cfg.Timing.ProvisionTimeout, o.Timing.ProvisionTimeoutMs)
	applyMs(&cfg.Timing.UpdateTimeout, o.Timing.UpdateTimeoutMs)

	return cfg, nil
}

func applyMs(dst *time.Duration, ms *int) {
	if ms != nil && *ms > 0 {
		*dst = time.Duration(*ms) * time.Millisecond
	}
}
