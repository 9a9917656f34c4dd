package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Status packet types (first byte of outbound datagrams).
const (
	StatusHeartbeat = 0x10 // periodic status broadcast while connected
	StatusBattery   = 0x11 // reserved
	StatusError     = 0x12 // reserved
	StatusState     = 0x13 // state change, presence and acknowledgments
)

// Wire-stable mode codes carried in status packets.
const (
	ModeCodeSearching    = 0x01
	ModeCodeProvisioning = 0x02
	ModeCodeConnected    = 0x03
	ModeCodeUpdating     = 0x04
)

// Heartbeat packet layout:
//
//	[0]      0x10         StatusHeartbeat
//	[1]      mode         Mode code
//	[2]      battery      Battery percent (0-100)
//	[3]      rssi+128     Signal strength, shifted into 0-255
//	[4-7]    voltage      Battery voltage (little-endian float32)
//	[8-11]   freeHeap     Free heap bytes (little-endian uint32)
//	[12]     nameLen      Strategy name length
//	[13+]    name         Strategy name bytes
const heartbeatFixedLen = 13

// Heartbeat is the periodic status broadcast sent while Connected.
type Heartbeat struct {
	Mode       byte
	BatteryPct uint8
	RSSI       int
	Voltage    float32
	FreeHeap   uint32
	Strategy   string
}

// EncodeHeartbeat builds a heartbeat datagram.
func EncodeHeartbeat(hb Heartbeat) []byte {
	name := hb.Strategy
	if len(name) > 255 {
		name = name[:255]
	}

	packet := make([]byte, heartbeatFixedLen+len(name))
	packet[0] = StatusHeartbeat
	packet[1] = hb.Mode
	packet[2] = hb.BatteryPct
	packet[3] = shiftRSSI(hb.RSSI)
	binary.LittleEndian.PutUint32(packet[4:8], math.Float32bits(hb.Voltage))
	binary.LittleEndian.PutUint32(packet[8:12], hb.FreeHeap)
	packet[12] = byte(len(name))
	copy(packet[13:], name)
	return packet
}

// ParseHeartbeat decodes a heartbeat datagram (companion side).
func ParseHeartbeat(data []byte) (*Heartbeat, error) {
	if len(data) < heartbeatFixedLen {
		return nil, fmt.Errorf("heartbeat too short: %d bytes (minimum %d)", len(data), heartbeatFixedLen)
	}
	if data[0] != StatusHeartbeat {
		return nil, fmt.Errorf("not a heartbeat: type 0x%02x", data[0])
	}

	nameLen := int(data[12])
	if len(data) < heartbeatFixedLen+nameLen {
		return nil, fmt.Errorf("heartbeat truncated: name declares %d bytes, %d remain", nameLen, len(data)-heartbeatFixedLen)
	}

	return &Heartbeat{
		Mode:       data[1],
		BatteryPct: data[2],
		RSSI:       int(data[3]) - 128,
		Voltage:    math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])),
		FreeHeap:   binary.LittleEndian.Uint32(data[8:12]),
		Strategy:   string(data[13 : 13+nameLen]),
	}, nil
}

// EncodePresence builds the discovery broadcast sent while Provisioning:
// [0x13][mode][nameLen][name].
func EncodePresence(mode byte, deviceName string) []byte {
	if len(deviceName) > 255 {
		deviceName = deviceName[:255]
	}
	packet := make([]byte, 3+len(deviceName))
	packet[0] = StatusState
	packet[1] = mode
	packet[2] = byte(len(deviceName))
	copy(packet[3:], deviceName)
	return packet
}

// EncodeAck builds the two-byte acknowledgment [0x13][mode].
func EncodeAck(mode byte) []byte {
	return []byte{StatusState, mode}
}

// EncodeResetAck builds the bare acknowledgment sent before a factory
// reset reboot.
func EncodeResetAck() []byte {
	return []byte{StatusState}
}

// EncodeDeviceInfo builds the Provisioning get-status reply:
// [0x13][mode][batteryPct][verLen][version].
func EncodeDeviceInfo(mode byte, batteryPct uint8, version string) []byte {
	if len(version) > 255 {
		version = version[:255]
	}
	packet := make([]byte, 4+len(version))
	packet[0] = StatusState
	packet[1] = mode
	packet[2] = batteryPct
	packet[3] = byte(len(version))
	copy(packet[4:], version)
	return packet
}

// EncodeUpdateProgress builds the Updating get-status reply:
// [0x13][0x04][percent].
func EncodeUpdateProgress(percent uint8) []byte {
	return []byte{StatusState, ModeCodeUpdating, percent}
}

// StateNotice is a decoded [0x13] packet (companion side). Fields beyond
// Mode are populated when the variant carries them.
type StateNotice struct {
	Mode       byte
	HasPayload bool
	DeviceName string // presence variant
	Progress   uint8  // update-progress variant
}

// ParseStateNotice decodes a state/presence/ack datagram.
func ParseStateNotice(data []byte) (*StateNotice, error) {
	if len(data) < 1 || data[0] != StatusState {
		return nil, fmt.Errorf("not a state notice")
	}

	n := &StateNotice{}
	if len(data) < 2 {
		return n, nil // bare reset acknowledgment
	}
	n.Mode = data[1]

	switch {
	case n.Mode == ModeCodeUpdating && len(data) >= 3:
		n.HasPayload = true
		n.Progress = data[2]
	case len(data) >= 3:
		nameLen := int(data[2])
		if len(data) < 3+nameLen {
			return nil, fmt.Errorf("state notice truncated: name declares %d bytes, %d remain", nameLen, len(data)-3)
		}
		n.HasPayload = true
		n.DeviceName = string(data[3 : 3+nameLen])
	}
	return n, nil
}

// DeviceInfo is a decoded get-status reply from a provisioning device.
type DeviceInfo struct {
	Mode       byte
	BatteryPct uint8
	Version    string
}

// ParseDeviceInfo decodes a device-info reply (companion side). The
// [0x13] variants share a type byte, so callers use this only on the
// direct reply to a get-status request.
func ParseDeviceInfo(data []byte) (*DeviceInfo, error) {
	if len(data) < 4 || data[0] != StatusState {
		return nil, fmt.Errorf("not a device-info reply")
	}
	verLen := int(data[3])
	if len(data) < 4+verLen {
		return nil, fmt.Errorf("device info truncated: version declares %d bytes, %d remain", verLen, len(data)-4)
	}
	return &DeviceInfo{
		Mode:       data[1],
		BatteryPct: data[2],
		Version:    string(data[4 : 4+verLen]),
	}, nil
}

// ModeName returns a human-readable name for a wire mode code.
func ModeName(code byte) string {
	switch code {
	case ModeCodeSearching:
		return "Searching"
	case ModeCodeProvisioning:
		return "Provisioning"
	case ModeCodeConnected:
		return "Connected"
	case ModeCodeUpdating:
		return "Updating"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", code)
	}
}

// shiftRSSI maps a dBm sample (typically -128..0) into the unsigned
// heartbeat byte.
func shiftRSSI(rssi int) byte {
	shifted := rssi + 128
	if shifted < 0 {
		shifted = 0
	}
	if shifted > 255 {
		shifted = 255
	}
	return byte(shifted)
}
