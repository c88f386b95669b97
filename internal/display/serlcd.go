package display

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// DefaultSerLCDBaud is the factory baud rate of serial LCD backpacks.
const DefaultSerLCDBaud = 9600

// Serial backpacks pass HD44780 instructions through when prefixed.
const (
	serCommand  = 0xFE
	serClear    = 0x01
	serDDRAMSet = 0x80
)

var rowOffsets = [Rows]uint8{0x00, 0x40}

// SerLCD is an HD44780 panel behind a UART backpack.
type SerLCD struct {
	port io.WriteCloser
}

// OpenSerLCD opens the backpack on a serial port.
func OpenSerLCD(name string, baud int) (*SerLCD, error) {
	if baud == 0 {
		baud = DefaultSerLCDBaud
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return NewSerLCD(port), nil
}

// NewSerLCD drives a backpack over an already open connection.
func NewSerLCD(port io.WriteCloser) *SerLCD {
	return &SerLCD{port: port}
}

func (d *SerLCD) Clear() error {
	return d.write(serCommand, serClear)
}

func (d *SerLCD) Goto(col, row uint8) error {
	if row >= Rows {
		row = 0
	}
	return d.write(serCommand, serDDRAMSet|(col+rowOffsets[row]))
}

func (d *SerLCD) WriteText(s string) error {
	return d.write([]byte(s)...)
}

func (d *SerLCD) WriteChar(c byte) error {
	return d.write(c)
}

func (d *SerLCD) Close() error {
	return d.port.Close()
}

func (d *SerLCD) write(p ...byte) error {
	if _, err := d.port.Write(p); err != nil {
		return fmt.Errorf("write serial lcd: %w", err)
	}
	return nil
}
