package protocol

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeHeartbeatLayout(t *testing.T) {
	packet := EncodeHeartbeat(Heartbeat{
		Mode:       ModeCodeConnected,
		BatteryPct: 81,
		RSSI:       -52,
		Voltage:    3.9,
		FreeHeap:   24000,
		Strategy:   "Calm",
	})

	if len(packet) != heartbeatFixedLen+4 {
		t.Fatalf("packet length = %d, want %d", len(packet), heartbeatFixedLen+4)
	}
	if packet[0] != StatusHeartbeat {
		t.Errorf("type byte = 0x%02x, want 0x%02x", packet[0], StatusHeartbeat)
	}
	if packet[1] != ModeCodeConnected {
		t.Errorf("mode byte = 0x%02x, want 0x%02x", packet[1], ModeCodeConnected)
	}
	if packet[2] != 81 {
		t.Errorf("battery byte = %d, want 81", packet[2])
	}
	if packet[3] != byte(-52+128) {
		t.Errorf("rssi byte = %d, want %d", packet[3], -52+128)
	}
	volts := math.Float32frombits(binary.LittleEndian.Uint32(packet[4:8]))
	if volts != 3.9 {
		t.Errorf("voltage = %v, want 3.9", volts)
	}
	if heap := binary.LittleEndian.Uint32(packet[8:12]); heap != 24000 {
		t.Errorf("free heap = %d, want 24000", heap)
	}
	if packet[12] != 4 {
		t.Errorf("name length = %d, want 4", packet[12])
	}
	if !bytes.Equal(packet[13:], []byte("Calm")) {
		t.Errorf("name = %q, want %q", packet[13:], "Calm")
	}
}

func TestHeartbeatRoundTrip(t *testing.T) {
	want := Heartbeat{
		Mode:       ModeCodeConnected,
		BatteryPct: 100,
		RSSI:       -40,
		Voltage:    4.2,
		FreeHeap:   30000,
		Strategy:   "Party",
	}
	got, err := ParseHeartbeat(EncodeHeartbeat(want))
	if err != nil {
		t.Fatalf("ParseHeartbeat error: %v", err)
	}
	if *got != want {
		t.Errorf("round trip = %+v, want %+v", *got, want)
	}
}

func TestParseHeartbeatRejectsTruncated(t *testing.T) {
	packet := EncodeHeartbeat(Heartbeat{Strategy: "Calm"})
	for _, n := range []int{0, 1, 12, len(packet) - 1} {
		if _, err := ParseHeartbeat(packet[:n]); err == nil {
			t.Errorf("ParseHeartbeat accepted %d-byte prefix", n)
		}
	}
}

func TestShiftRSSIClamps(t *testing.T) {
	tests := []struct {
		rssi int
		want byte
	}{
		{-52, 76},
		{0, 128},
		{-128, 0},
		{-200, 0},
		{200, 255},
	}
	for _, tt := range tests {
		if got := shiftRSSI(tt.rssi); got != tt.want {
			t.Errorf("shiftRSSI(%d) = %d, want %d", tt.rssi, got, tt.want)
		}
	}
}

func TestStateNoticeVariants(t *testing.T) {
	t.Run("presence", func(t *testing.T) {
		notice, err := ParseStateNotice(EncodePresence(ModeCodeProvisioning, "Lumina"))
		if err != nil {
			t.Fatalf("ParseStateNotice error: %v", err)
		}
		if notice.Mode != ModeCodeProvisioning {
			t.Errorf("mode = 0x%02x, want 0x%02x", notice.Mode, ModeCodeProvisioning)
		}
		if notice.DeviceName != "Lumina" {
			t.Errorf("device name = %q, want %q", notice.DeviceName, "Lumina")
		}
	})

	t.Run("ack", func(t *testing.T) {
		notice, err := ParseStateNotice(EncodeAck(ModeCodeSearching))
		if err != nil {
			t.Fatalf("ParseStateNotice error: %v", err)
		}
		if notice.Mode != ModeCodeSearching || notice.HasPayload {
			t.Errorf("notice = %+v, want bare searching ack", notice)
		}
	})

	t.Run("reset ack", func(t *testing.T) {
		notice, err := ParseStateNotice(EncodeResetAck())
		if err != nil {
			t.Fatalf("ParseStateNotice error: %v", err)
		}
		if notice.Mode != 0 || notice.HasPayload {
			t.Errorf("notice = %+v, want empty", notice)
		}
	})

	t.Run("update progress", func(t *testing.T) {
		notice, err := ParseStateNotice(EncodeUpdateProgress(42))
		if err != nil {
			t.Fatalf("ParseStateNotice error: %v", err)
		}
		if !notice.HasPayload || notice.Progress != 42 {
			t.Errorf("progress = %d (payload %v), want 42", notice.Progress, notice.HasPayload)
		}
	})

	t.Run("truncated name", func(t *testing.T) {
		packet := EncodePresence(ModeCodeProvisioning, "Lumina")
		if _, err := ParseStateNotice(packet[:5]); err == nil {
			t.Error("ParseStateNotice accepted truncated presence packet")
		}
	})
}

func TestDeviceInfoRoundTrip(t *testing.T) {
	packet := EncodeDeviceInfo(ModeCodeProvisioning, 73, "1.0.0")
	info, err := ParseDeviceInfo(packet)
	if err != nil {
		t.Fatalf("ParseDeviceInfo error: %v", err)
	}
	if info.Mode != ModeCodeProvisioning {
		t.Errorf("mode = 0x%02x, want 0x%02x", info.Mode, ModeCodeProvisioning)
	}
	if info.BatteryPct != 73 {
		t.Errorf("battery = %d, want 73", info.BatteryPct)
	}
	if info.Version != "1.0.0" {
		t.Errorf("version = %q, want %q", info.Version, "1.0.0")
	}
}
