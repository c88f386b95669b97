// Package i2cbus opens the board's I2C bus for the sensor, EEPROM and LCD
// drivers.
package i2cbus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// Open initialises the host drivers and opens the named bus. An empty name
// selects the first bus found.
func Open(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return bus, nil
}

// Probe reports whether a device acknowledges a one-byte read at addr.
func Probe(bus drivers.I2C, addr uint16) bool {
	var b [1]byte
	return bus.Tx(addr, nil, b[:]) == nil
}

// Present returns the subset of addrs that acknowledge.
func Present(bus drivers.I2C, addrs ...uint16) []uint16 {
	var found []uint16
	for _, a := range addrs {
		if Probe(bus, a) {
			found = append(found, a)
		}
	}
	return found
}
