package display

import (
	"bytes"
	"errors"
	"testing"
)

func TestMirrorWrite(t *testing.T) {
	m := NewMirror()
	m.WriteText("Mode:")
	m.Goto(0, 1)
	m.WriteText("Storage         ")

	got := m.Lines()
	if got[0] != "Mode:" || got[1] != "Storage" {
		t.Errorf("unexpected frame: %q", got)
	}
}

func TestMirrorOverwrite(t *testing.T) {
	m := NewMirror()
	m.WriteText("Full Discharge")
	m.Goto(0, 0)
	m.WriteText("Storage         ")
	if got := m.Lines()[0]; got != "Storage" {
		t.Errorf("expected padded label to overwrite, got %q", got)
	}
}

func TestMirrorWrapsToNextRow(t *testing.T) {
	m := NewMirror()
	m.WriteText("0123456789abcdefXY")
	got := m.Lines()
	if got[0] != "0123456789abcdef" || got[1] != "XY" {
		t.Errorf("unexpected frame: %q", got)
	}

	m.Goto(15, 1)
	m.WriteText("!Z")
	if got := m.Lines(); got[0] != "Z123456789abcdef" {
		t.Errorf("expected wrap past the last row, got %q", got)
	}
}

func TestMirrorClear(t *testing.T) {
	m := NewMirror()
	m.Goto(3, 1)
	m.WriteChar('x')
	m.Clear()
	m.WriteChar('y')
	got := m.Lines()
	if got[0] != "y" || got[1] != "" {
		t.Errorf("unexpected frame: %q", got)
	}
}

type bufPort struct {
	bytes.Buffer
	closed bool
	err    error
}

func (p *bufPort) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.Buffer.Write(b)
}

func (p *bufPort) Close() error {
	p.closed = true
	return nil
}

func TestSerLCDCommands(t *testing.T) {
	p := &bufPort{}
	d := NewSerLCD(p)
	d.Clear()
	d.Goto(2, 1)
	d.WriteText("Hi")
	d.WriteChar('!')
	d.Close()

	want := []byte{0xFE, 0x01, 0xFE, 0x80 | 0x42, 'H', 'i', '!'}
	if !bytes.Equal(p.Bytes(), want) {
		t.Errorf("expected % x, got % x", want, p.Bytes())
	}
	if !p.closed {
		t.Error("expected port closed")
	}
}

func TestSerLCDWriteError(t *testing.T) {
	p := &bufPort{err: errors.New("unplugged")}
	if err := NewSerLCD(p).WriteText("x"); err == nil {
		t.Error("expected write error")
	}
}

type failing struct{ Mirror }

func (f *failing) Clear() error { return errors.New("bus error") }

func TestTee(t *testing.T) {
	a, b := NewMirror(), NewMirror()
	tee := Tee{a, b}
	tee.WriteText("Insert Battery")

	if a.Lines()[0] != "Insert Battery" || b.Lines()[0] != "Insert Battery" {
		t.Errorf("expected both mirrors written, got %q and %q", a.Lines(), b.Lines())
	}

	f := &failing{}
	f.blank()
	tee = Tee{f, a}
	if err := tee.Clear(); err == nil {
		t.Error("expected error from failing display")
	}
	if a.Lines()[0] != "" {
		t.Error("a failing display should not stop the others")
	}
}
