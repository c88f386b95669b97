package nvram

import (
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/at24cx"
)

// DefaultEEPROMAddress is the AT24Cxx I2C address with A0..A2 tied high.
const DefaultEEPROMAddress = at24cx.Address

// EEPROM is a Block on an AT24C32/64 serial EEPROM.
type EEPROM struct {
	atBlock
	dev *at24cx.Device
}

// NewEEPROM configures an AT24Cxx at addr on bus. size is the device size in
// bytes (4096 for an AT24C32).
func NewEEPROM(bus drivers.I2C, addr uint16, size uint16) *EEPROM {
	dev := at24cx.New(bus)
	if addr != 0 {
		dev.Address = addr
	}
	dev.Configure(at24cx.Config{EndRAMAddress: size})
	return &EEPROM{atBlock: atBlock{r: &dev, w: &dev}, dev: &dev}
}
