package display

import (
	"fmt"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/hd44780i2c"
)

// DefaultHD44780Address is the usual PCF8574 backpack address.
const DefaultHD44780Address = 0x27

// HD44780 is an HD44780 LCD behind a PCF8574 I2C backpack.
type HD44780 struct {
	dev hd44780i2c.Device
}

// NewHD44780 initialises the panel at addr on bus. Initialisation takes
// about a second.
func NewHD44780(bus drivers.I2C, addr uint8) (*HD44780, error) {
	dev := hd44780i2c.New(bus, addr)
	if err := dev.Configure(hd44780i2c.Config{Width: Cols, Height: Rows}); err != nil {
		return nil, fmt.Errorf("configure hd44780: %w", err)
	}
	return &HD44780{dev: dev}, nil
}

func (d *HD44780) Clear() error {
	d.dev.ClearDisplay()
	return nil
}

func (d *HD44780) Goto(col, row uint8) error {
	d.dev.SetCursor(col, row)
	return nil
}

func (d *HD44780) WriteText(s string) error {
	d.dev.Print([]byte(s))
	return nil
}

func (d *HD44780) WriteChar(c byte) error {
	d.dev.Print([]byte{c})
	return nil
}

// Close switches the backlight off.
func (d *HD44780) Close() error {
	d.dev.BacklightOn(false)
	return nil
}
