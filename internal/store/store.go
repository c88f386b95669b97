// Package store persists the battery configuration with an XOR checksum.
//
// Record layout at the store offset:
//
//	[0:6]  configuration record (battery.Configuration.MarshalBinary)
//	[6:8]  checksum, little endian: XOR of every record byte
//
// The checksum only detects corruption; a failed Load tells the caller to
// fall back to defaults.
package store

import (
	"errors"
	"fmt"

	"github.com/sweeney/battery-buddy/internal/battery"
	"github.com/sweeney/battery-buddy/internal/nvram"
)

// ChecksumSize is the size of the trailing checksum field.
const ChecksumSize = 2

// Size is the total on-device footprint of the record.
const Size = battery.RecordSize + ChecksumSize

// ErrIntegrity reports a stored record that failed verification.
var ErrIntegrity = errors.New("configuration integrity check failed")

// Store reads and writes the configuration record on a Block device.
type Store struct {
	dev    nvram.Block
	offset int
}

// New creates a Store writing at offset on dev.
func New(dev nvram.Block, offset int) *Store {
	return &Store{dev: dev, offset: offset}
}

// Checksum XORs every byte of p into a 16-bit accumulator. The result does
// not depend on byte order.
func Checksum(p []byte) uint16 {
	var sum uint16
	for _, b := range p {
		sum ^= uint16(b)
	}
	return sum
}

// Save writes the record followed by its checksum.
func (s *Store) Save(cfg battery.Configuration) error {
	rec, err := cfg.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	sum := Checksum(rec)

	if err := s.dev.WriteBlock(s.offset, rec); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	if err := s.dev.WriteBlock(s.offset+len(rec), []byte{byte(sum), byte(sum >> 8)}); err != nil {
		return fmt.Errorf("write checksum: %w", err)
	}
	return nil
}

// Load reads the record back and returns it only if the checksum matches
// and every field is in range. Device errors are returned as-is; anything
// wrong with the stored bytes wraps ErrIntegrity.
func (s *Store) Load() (battery.Configuration, error) {
	rec := make([]byte, battery.RecordSize)
	if err := s.dev.ReadBlock(s.offset, rec); err != nil {
		return battery.Configuration{}, fmt.Errorf("read configuration: %w", err)
	}
	var stored [ChecksumSize]byte
	if err := s.dev.ReadBlock(s.offset+len(rec), stored[:]); err != nil {
		return battery.Configuration{}, fmt.Errorf("read checksum: %w", err)
	}

	want := uint16(stored[0]) | uint16(stored[1])<<8
	if got := Checksum(rec); got != want {
		return battery.Configuration{}, fmt.Errorf("%w: checksum %#04x, stored %#04x", ErrIntegrity, got, want)
	}

	var cfg battery.Configuration
	if err := cfg.UnmarshalBinary(rec); err != nil {
		return battery.Configuration{}, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return cfg, nil
}
