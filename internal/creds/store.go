package creds

import (
	"fmt"

	"github.com/Kim1ni/lumina-firmware/internal/hal"
	"github.com/Kim1ni/lumina-firmware/internal/logging"
	"go.uber.org/zap"
)

// Persistent record layout. Offsets are fixed: the password slot starts
// at the same place regardless of the actual SSID length. The
// over-provisioned SSID slot is intentional and must be preserved for
// compatibility with records written by earlier firmware.
const (
	// Magic marks a valid record. Any other value at addrMagic means
	// no credentials are stored.
	Magic = 0xA5

	addrMagic   = 0
	addrSSIDLen = 1
	addrSSID    = 2 // 32-byte slot
	addrPassLen = 34
	addrPass    = 35 // 64-byte slot

	// MaxSSIDLen and MaxPasswordLen bound the stored field lengths.
	MaxSSIDLen     = 32
	MaxPasswordLen = 64

	// RecordSize is the total footprint of the credential record.
	RecordSize = 99
)

// Credentials is one stored SSID/password pair.
type Credentials struct {
	SSID     string
	Password string
}

// Store persists network credentials in a raw byte store.
type Store struct {
	bytes hal.ByteStore
}

// NewStore returns a credential store over the given byte store.
func NewStore(bs hal.ByteStore) *Store {
	return &Store{bytes: bs}
}

// Save writes both fields and then the magic byte, and commits. A commit
// failure is reported as a failed save; the caller must assume nothing
// persisted.
func (s *Store) Save(ssid, password string) error {
	if len(ssid) > MaxSSIDLen {
		return fmt.Errorf("ssid too long: %d bytes (maximum %d)", len(ssid), MaxSSIDLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password too long: %d bytes (maximum %d)", len(password), MaxPasswordLen)
	}

	s.bytes.WriteByte(addrSSIDLen, byte(len(ssid)))
	for i := 0; i < len(ssid); i++ {
		s.bytes.WriteByte(addrSSID+i, ssid[i])
	}

	s.bytes.WriteByte(addrPassLen, byte(len(password)))
	for i := 0; i < len(password); i++ {
		s.bytes.WriteByte(addrPass+i, password[i])
	}

	// Magic goes last so a torn write never validates a partial record.
	s.bytes.WriteByte(addrMagic, Magic)

	if err := s.bytes.Commit(); err != nil {
		return fmt.Errorf("commit credentials: %w", err)
	}

	logging.Debug("credentials saved", zap.String("ssid", ssid))
	return nil
}

// Load reads the stored credentials. The second return value is false
// when no valid record exists; that is a normal outcome, not an error.
func (s *Store) Load() (Credentials, bool) {
	if s.bytes.ReadByte(addrMagic) != Magic {
		return Credentials{}, false
	}

	ssidLen := int(s.bytes.ReadByte(addrSSIDLen))
	if ssidLen > MaxSSIDLen {
		logging.Warn("stored ssid length out of bounds", zap.Int("length", ssidLen))
		return Credentials{}, false
	}
	passLen := int(s.bytes.ReadByte(addrPassLen))
	if passLen > MaxPasswordLen {
		logging.Warn("stored password length out of bounds", zap.Int("length", passLen))
		return Credentials{}, false
	}

	ssid := make([]byte, ssidLen)
	for i := range ssid {
		ssid[i] = s.bytes.ReadByte(addrSSID + i)
	}
	password := make([]byte, passLen)
	for i := range password {
		password[i] = s.bytes.ReadByte(addrPass + i)
	}

	return Credentials{SSID: string(ssid), Password: string(password)}, true
}

// Clear invalidates the magic byte and commits. The field bytes stay in
// place but become unreachable through Load.
func (s *Store) Clear() error {
	s.bytes.WriteByte(addrMagic, 0x00)
	if err := s.bytes.Commit(); err != nil {
		return fmt.Errorf("commit credential clear: %w", err)
	}
	logging.Debug("credentials cleared")
	return nil
}
