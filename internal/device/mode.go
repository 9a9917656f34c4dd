package device

import "github.com/Kim1ni/lumina-firmware/internal/protocol"

// Mode identifies one of the four operating states. The numeric value is
// wire-stable and carried in status packets.
type Mode uint8

const (
	ModeSearching    Mode = protocol.ModeCodeSearching
	ModeProvisioning Mode = protocol.ModeCodeProvisioning
	ModeConnected    Mode = protocol.ModeCodeConnected
	ModeUpdating     Mode = protocol.ModeCodeUpdating
)

// Code returns the wire code for status packets.
func (m Mode) Code() byte { return byte(m) }

// String returns the human-readable mode name.
func (m Mode) String() string { return protocol.ModeName(byte(m)) }
