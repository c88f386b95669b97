package display

import (
	"bytes"
	"sync"
)

// Mirror is an in-memory Display holding what the panel shows. It follows
// the controller's cursor rules: text past the last column continues on
// the next row, and rows past the last wrap to the first.
// Safe for concurrent use.
type Mirror struct {
	mu       sync.RWMutex
	frame    [Rows][Cols]byte
	col, row uint8
}

// NewMirror creates a blank mirror.
func NewMirror() *Mirror {
	m := &Mirror{}
	m.blank()
	return m
}

func (m *Mirror) blank() {
	for r := range m.frame {
		for c := range m.frame[r] {
			m.frame[r][c] = ' '
		}
	}
	m.col, m.row = 0, 0
}

func (m *Mirror) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blank()
	return nil
}

func (m *Mirror) Goto(col, row uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row >= Rows {
		row = 0
	}
	m.col, m.row = col, row
	return nil
}

func (m *Mirror) WriteText(s string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < len(s); i++ {
		m.put(s[i])
	}
	return nil
}

func (m *Mirror) WriteChar(c byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(c)
	return nil
}

func (m *Mirror) put(c byte) {
	if c == '\n' {
		m.newLine()
		return
	}
	if m.col >= Cols {
		m.newLine()
	}
	m.frame[m.row][m.col] = c
	m.col++
}

func (m *Mirror) newLine() {
	m.col = 0
	m.row++
	if m.row >= Rows {
		m.row = 0
	}
}

// Close is a no-op.
func (m *Mirror) Close() error {
	return nil
}

// Lines returns the current frame, trailing spaces trimmed.
func (m *Mirror) Lines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, Rows)
	for r := range m.frame {
		out[r] = string(bytes.TrimRight(m.frame[r][:], " "))
	}
	return out
}
