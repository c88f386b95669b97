// Package nvram provides byte-addressed non-volatile storage for the
// configuration record.
package nvram

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Erased is the value of a never-written EEPROM byte.
const Erased = 0xFF

// Block is block-level access to non-volatile storage.
type Block interface {
	// WriteBlock writes p at byte offset off.
	WriteBlock(off int, p []byte) error
	// ReadBlock fills p from byte offset off.
	ReadBlock(off int, p []byte) error
}

// ErrOutOfRange reports an access past the end of the device.
var ErrOutOfRange = errors.New("nvram: access out of range")

// Memory is a volatile Block for tests and dry runs. It starts erased.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

// NewMemory returns an erased Memory of size bytes.
func NewMemory(size int) *Memory {
	data := make([]byte, size)
	for i := range data {
		data[i] = Erased
	}
	return &Memory{data: data}
}

func (m *Memory) WriteBlock(off int, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off < 0 || off+len(p) > len(m.data) {
		return fmt.Errorf("%w: write %d bytes at %d (size %d)", ErrOutOfRange, len(p), off, len(m.data))
	}
	copy(m.data[off:], p)
	return nil
}

func (m *Memory) ReadBlock(off int, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off < 0 || off+len(p) > len(m.data) {
		return fmt.Errorf("%w: read %d bytes at %d (size %d)", ErrOutOfRange, len(p), off, len(m.data))
	}
	copy(p, m.data[off:])
	return nil
}

// Bytes returns a copy of the whole device image.
func (m *Memory) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Poke overwrites one byte, bypassing the Block API. Used to simulate
// corruption.
func (m *Memory) Poke(off int, b byte) {
	m.mu.Lock()
	m.data[off] = b
	m.mu.Unlock()
}

// atBlock adapts io.ReaderAt/io.WriterAt devices (files, EEPROM drivers).
type atBlock struct {
	r io.ReaderAt
	w io.WriterAt
}

func (a atBlock) WriteBlock(off int, p []byte) error {
	n, err := a.w.WriteAt(p, int64(off))
	if err != nil {
		return fmt.Errorf("write %d bytes at %d: %w", len(p), off, err)
	}
	if n != len(p) {
		return fmt.Errorf("write %d bytes at %d: %w", len(p), off, io.ErrShortWrite)
	}
	return nil
}

func (a atBlock) ReadBlock(off int, p []byte) error {
	n, err := a.r.ReadAt(p, int64(off))
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("read %d bytes at %d: %w", len(p), off, err)
}

// File is a Block backed by an image file, for boards without an EEPROM.
type File struct {
	atBlock
	f *os.File
}

// OpenFile opens the image at path, creating it erased with size bytes if it
// does not exist.
func OpenFile(path string, size int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open nvram image: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat nvram image: %w", err)
	}
	if info.Size() < int64(size) {
		pad := make([]byte, int64(size)-info.Size())
		for i := range pad {
			pad[i] = Erased
		}
		if _, err := f.WriteAt(pad, info.Size()); err != nil {
			f.Close()
			return nil, fmt.Errorf("initialise nvram image: %w", err)
		}
	}
	return &File{atBlock: atBlock{r: f, w: f}, f: f}, nil
}

// WriteBlock writes p and flushes it to disk, so a power cut right after the
// write still finds the record.
func (f *File) WriteBlock(off int, p []byte) error {
	if err := f.atBlock.WriteBlock(off, p); err != nil {
		return err
	}
	if err := f.f.Sync(); err != nil {
		return fmt.Errorf("sync nvram image: %w", err)
	}
	return nil
}

// Close closes the image file.
func (f *File) Close() error {
	return f.f.Close()
}
