package protocol

import (
	"fmt"

	"github.com/Kim1ni/lumina-firmware/internal/lighting"
)

// Command opcodes. One opcode byte followed by an opcode-specific
// payload, carried as the entire body of one datagram.
const (
	OpSetColor      = 0x01 // R,G,B
	OpSetMood       = 0x02 // type, R,G,B[,R2,G2,B2,R3,G3,B3]
	OpSetBrightness = 0x03 // brightness
	OpGetStatus     = 0x04 // no payload
	OpProvision     = 0x05 // ssidLen, ssid..., passLen, pass...
	OpStartUpdate   = 0x06 // no payload
	OpFactoryReset  = 0xFF // no payload
)

// Mood types carried by OpSetMood.
const (
	MoodCalm  = 0x00
	MoodFocus = 0x01
	MoodParty = 0x02
)

// Credential field limits, shared with the persistent record layout.
const (
	MaxSSIDLen     = 32
	MaxPasswordLen = 64
)

// Command is a decoded inbound command.
type Command interface {
	Opcode() byte
	String() string
}

// SetColorCommand (0x01) replaces the active strategy with a solid color.
type SetColorCommand struct {
	Color lighting.Color
}

func (c *SetColorCommand) Opcode() byte { return OpSetColor }

func (c *SetColorCommand) String() string {
	return fmt.Sprintf("SetColor{%s}", c.Color)
}

// SetMoodCommand (0x02) selects a mood strategy. Colors carries one
// entry for calm/focus and either one or three entries for party.
type SetMoodCommand struct {
	Mood   byte
	Colors []lighting.Color
}

func (c *SetMoodCommand) Opcode() byte { return OpSetMood }

func (c *SetMoodCommand) String() string {
	return fmt.Sprintf("SetMood{type=0x%02x, colors=%d}", c.Mood, len(c.Colors))
}

// SetBrightnessCommand (0x03) adjusts the global LED brightness.
type SetBrightnessCommand struct {
	Level uint8
}

func (c *SetBrightnessCommand) Opcode() byte { return OpSetBrightness }

func (c *SetBrightnessCommand) String() string {
	return fmt.Sprintf("SetBrightness{%d}", c.Level)
}

// GetStatusCommand (0x04) requests an immediate status report.
type GetStatusCommand struct{}

func (c *GetStatusCommand) Opcode() byte { return OpGetStatus }

func (c *GetStatusCommand) String() string { return "GetStatus{}" }

// ProvisionCommand (0x05) delivers new network credentials.
type ProvisionCommand struct {
	SSID     string
	Password string
}

func (c *ProvisionCommand) Opcode() byte { return OpProvision }

func (c *ProvisionCommand) String() string {
	// The password never reaches the logs.
	return fmt.Sprintf("Provision{ssid=%q, passLen=%d}", c.SSID, len(c.Password))
}

// StartUpdateCommand (0x06) requests a firmware update session.
type StartUpdateCommand struct{}

func (c *StartUpdateCommand) Opcode() byte { return OpStartUpdate }

func (c *StartUpdateCommand) String() string { return "StartUpdate{}" }

// FactoryResetCommand (0xFF) wipes credentials and reboots.
type FactoryResetCommand struct{}

func (c *FactoryResetCommand) Opcode() byte { return OpFactoryReset }

func (c *FactoryResetCommand) String() string { return "FactoryReset{}" }

// UnknownCommand is the fallback for unrecognized opcodes. It decodes
// without error so the receiving state can log and ignore it.
type UnknownCommand struct {
	Op   byte
	Data []byte
}

func (c *UnknownCommand) Opcode() byte { return c.Op }

func (c *UnknownCommand) String() string {
	return fmt.Sprintf("Unknown{op=0x%02x, len=%d}", c.Op, len(c.Data))
}

// ParseCommand decodes one datagram body into a typed command. Every
// declared sub-length is checked against the remaining payload; a packet
// that would read out of bounds is rejected with an error and the caller
// drops it.
func ParseCommand(data []byte) (Command, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty command datagram")
	}

	op := data[0]
	payload := data[1:]

	switch op {
	case OpSetColor:
		return parseSetColor(payload)
	case OpSetMood:
		return parseSetMood(payload)
	case OpSetBrightness:
		return parseSetBrightness(payload)
	case OpGetStatus:
		return &GetStatusCommand{}, nil
	case OpProvision:
		return parseProvision(payload)
	case OpStartUpdate:
		return &StartUpdateCommand{}, nil
	case OpFactoryReset:
		return &FactoryResetCommand{}, nil
	default:
		return &UnknownCommand{Op: op, Data: payload}, nil
	}
}

func parseSetColor(payload []byte) (*SetColorCommand, error) {
	if len(payload) < 3 {
		return nil, fmt.Errorf("set-color payload too short: %d bytes (minimum 3)", len(payload))
	}
	return &SetColorCommand{
		Color: lighting.Color{R: payload[0], G: payload[1], B: payload[2]},
	}, nil
}

func parseSetMood(payload []byte) (*SetMoodCommand, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("set-mood payload too short: %d bytes (minimum 4)", len(payload))
	}

	cmd := &SetMoodCommand{
		Mood:   payload[0],
		Colors: []lighting.Color{{R: payload[1], G: payload[2], B: payload[3]}},
	}

	// Party may carry two extra colors.
	if len(payload) >= 10 {
		cmd.Colors = append(cmd.Colors,
			lighting.Color{R: payload[4], G: payload[5], B: payload[6]},
			lighting.Color{R: payload[7], G: payload[8], B: payload[9]},
		)
	}

	return cmd, nil
}

func parseSetBrightness(payload []byte) (*SetBrightnessCommand, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("set-brightness payload empty")
	}
	return &SetBrightnessCommand{Level: payload[0]}, nil
}

func parseProvision(payload []byte) (*ProvisionCommand, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("provision payload too short: %d bytes (minimum 2)", len(payload))
	}

	ssidLen := int(payload[0])
	if ssidLen > MaxSSIDLen {
		return nil, fmt.Errorf("provision ssid length %d exceeds maximum %d", ssidLen, MaxSSIDLen)
	}
	if len(payload) < ssidLen+2 {
		return nil, fmt.Errorf("provision payload truncated: ssid declares %d bytes, %d remain", ssidLen, len(payload)-2)
	}
	ssid := string(payload[1 : 1+ssidLen])

	passLen := int(payload[1+ssidLen])
	if passLen > MaxPasswordLen {
		return nil, fmt.Errorf("provision password length %d exceeds maximum %d", passLen, MaxPasswordLen)
	}
	if len(payload) < ssidLen+passLen+2 {
		return nil, fmt.Errorf("provision payload truncated: password declares %d bytes, %d remain", passLen, len(payload)-ssidLen-2)
	}
	password := string(payload[2+ssidLen : 2+ssidLen+passLen])

	return &ProvisionCommand{SSID: ssid, Password: password}, nil
}

// OpcodeName returns a human-readable name for a command opcode.
func OpcodeName(op byte) string {
	switch op {
	case OpSetColor:
		return "SetColor"
	case OpSetMood:
		return "SetMood"
	case OpSetBrightness:
		return "SetBrightness"
	case OpGetStatus:
		return "GetStatus"
	case OpProvision:
		return "Provision"
	case OpStartUpdate:
		return "StartUpdate"
	case OpFactoryReset:
		return "FactoryReset"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", op)
	}
}
