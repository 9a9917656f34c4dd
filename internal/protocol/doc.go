// Package protocol implements the Lumina datagram command protocol.
//
// This package handles decoding of inbound command datagrams, encoding of
// outbound status packets, and construction of command datagrams for the
// companion side. The transport's own datagram boundary is the frame
// boundary; there is no length field on the wire beyond the explicit
// length prefixes inside variable-length fields.
//
// # Command Format
//
// Every command is one opcode byte followed by an opcode-specific
// payload:
//
//	0x01  R,G,B                                     set solid color
//	0x02  type, R,G,B[,R2,G2,B2,R3,G3,B3]           set mood strategy
//	0x03  brightness                                set global brightness
//	0x04  -                                         request status
//	0x05  ssidLen, ssid..., passLen, pass...        provision credentials
//	0x06  -                                         start firmware update
//	0xFF  -                                         factory reset
//
// Every declared sub-length is bounds-checked against the remaining
// payload. A packet that would read out of bounds decodes to an error
// and is dropped by the caller; an unrecognized opcode decodes to
// UnknownCommand without error so the receiving state can log it.
//
// # Status Packets
//
// Outbound packets start with a status type byte: 0x10 for the periodic
// heartbeat, 0x13 for state changes, provisioning presence broadcasts
// and acknowledgments. Exact layouts are documented on the encoders.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package protocol
