package sensor

import (
	"fmt"

	"github.com/chewxy/math32"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ina219"
)

// DefaultAddress is the INA219 address with A0 and A1 grounded.
const DefaultAddress = ina219.Address

// Calibration for the 0.1 Ω shunt on the discharger board: 32 V range,
// ±40 mV shunt, 12-bit conversions, 100 µA per current bit and 2 mW per
// power bit.
var Calibration = ina219.Config{
	BusVoltageRange: ina219.Range32V,
	PGA:             ina219.PGA1,
	BusADC:          ina219.ADC12,
	ShuntADC:        ina219.SADC12,
	Mode:            ina219.ModeContShuntBus,
	Calibration:     0x29B1,
	CurrentDivider:  10,
	PowerMultiplier: 2,
}

// INA219 is a Sensor on a TI INA219 power monitor.
type INA219 struct {
	dev ina219.Device
}

// NewINA219 creates the sensor at addr on bus. Call Init before reading.
func NewINA219(bus drivers.I2C, addr uint16) *INA219 {
	dev := ina219.New(bus)
	if addr != 0 {
		dev.Address = addr
	}
	dev.SetConfig(Calibration)
	return &INA219{dev: dev}
}

// Init writes the configuration and calibration registers and verifies them.
func (s *INA219) Init() error {
	if err := s.dev.Configure(); err != nil {
		return fmt.Errorf("configure ina219: %w", err)
	}
	return nil
}

// ReadVoltage returns the battery voltage: the bus voltage on the load side
// plus the drop across the shunt.
func (s *INA219) ReadVoltage() (uint16, error) {
	bus, err := s.dev.BusVoltage()
	if err != nil {
		return 0, fmt.Errorf("read bus voltage: %w", err)
	}
	shunt, err := s.dev.ShuntVoltage()
	if err != nil {
		return 0, fmt.Errorf("read shunt voltage: %w", err)
	}
	mv := int32(bus)
	// The driver shifts the bus register as a signed value, so readings
	// above 16.38 V come back wrapped negative.
	if mv < 0 {
		mv += 1 << 15
	}
	// Shunt register LSB is 10 µV.
	mv += int32(shunt) / 100
	return saturate(float32(mv)), nil
}

// ReadCurrent returns the current through the shunt. Reverse current reads
// as zero.
func (s *INA219) ReadCurrent() (uint16, error) {
	ma, err := s.dev.Current()
	if err != nil {
		return 0, fmt.Errorf("read current: %w", err)
	}
	return saturate(ma), nil
}

// ReadPower returns the load power.
func (s *INA219) ReadPower() (uint16, error) {
	mw, err := s.dev.Power()
	if err != nil {
		return 0, fmt.Errorf("read power: %w", err)
	}
	return saturate(mw), nil
}

func saturate(v float32) uint16 {
	v = math32.Round(v)
	switch {
	case v < 0:
		return 0
	case v > math32.MaxUint16:
		return math32.MaxUint16
	}
	return uint16(v)
}
