package sim

import (
	"fmt"
	"os"
)

// storeSize mirrors the EEPROM allocation on the real device.
const storeSize = 512

// FileStore is a file-backed byte store. Writes are staged in memory
// and flushed to disk on Commit, mirroring the EEPROM driver's
// write-then-commit contract.
type FileStore struct {
	path  string
	bytes [storeSize]byte
}

// NewFileStore loads the store file at path, or starts empty if the
// file does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	copy(s.bytes[:], data)
	return s, nil
}

func (s *FileStore) ReadByte(offset int) byte {
	if offset < 0 || offset >= storeSize {
		return 0
	}
	return s.bytes[offset]
}

func (s *FileStore) WriteByte(offset int, value byte) {
	if offset < 0 || offset >= storeSize {
		return
	}
	s.bytes[offset] = value
}

func (s *FileStore) Commit() error {
	if err := os.WriteFile(s.path, s.bytes[:], 0o600); err != nil {
		return fmt.Errorf("commit store file: %w", err)
	}
	return nil
}
