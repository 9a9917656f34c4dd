package protocol

import (
	"fmt"

	"github.com/Kim1ni/lumina-firmware/internal/lighting"
)

// Command constructor library for the companion side. Each builder
// produces one complete datagram body ready to send.

// BuildSetColor builds a set-color command (0x01).
func BuildSetColor(c lighting.Color) []byte {
	return []byte{OpSetColor, c.R, c.G, c.B}
}

// BuildSetMood builds a set-mood command (0x02). Calm and focus take one
// color; party takes three.
func BuildSetMood(mood byte, colors ...lighting.Color) ([]byte, error) {
	switch len(colors) {
	case 1, 3:
	default:
		return nil, fmt.Errorf("set-mood takes 1 or 3 colors, got %d", len(colors))
	}

	packet := make([]byte, 0, 2+3*len(colors))
	packet = append(packet, OpSetMood, mood)
	for _, c := range colors {
		packet = append(packet, c.R, c.G, c.B)
	}
	return packet, nil
}

// BuildSetBrightness builds a set-brightness command (0x03).
func BuildSetBrightness(level uint8) []byte {
	return []byte{OpSetBrightness, level}
}

// BuildGetStatus builds a status request (0x04).
func BuildGetStatus() []byte {
	return []byte{OpGetStatus}
}

// BuildProvision builds a provision command (0x05) with length-prefixed
// credential fields.
func BuildProvision(ssid, password string) ([]byte, error) {
	if len(ssid) > MaxSSIDLen {
		return nil, fmt.Errorf("ssid too long: %d bytes (maximum %d)", len(ssid), MaxSSIDLen)
	}
	if len(password) > MaxPasswordLen {
		return nil, fmt.Errorf("password too long: %d bytes (maximum %d)", len(password), MaxPasswordLen)
	}

	packet := make([]byte, 0, 3+len(ssid)+len(password))
	packet = append(packet, OpProvision, byte(len(ssid)))
	packet = append(packet, ssid...)
	packet = append(packet, byte(len(password)))
	packet = append(packet, password...)
	return packet, nil
}

// BuildStartUpdate builds a start-update command (0x06).
func BuildStartUpdate() []byte {
	return []byte{OpStartUpdate}
}

// BuildFactoryReset builds a factory-reset command (0xFF).
func BuildFactoryReset() []byte {
	return []byte{OpFactoryReset}
}
