// Package sensor reads the pack voltage and discharge current.
package sensor

// Sensor is the power monitor in series with the load.
type Sensor interface {
	// Init configures the device. Must be called before any read.
	Init() error

	// ReadVoltage returns the pack voltage in mV.
	ReadVoltage() (uint16, error)

	// ReadCurrent returns the discharge current in mA.
	ReadCurrent() (uint16, error)

	// ReadPower returns the load power in mW.
	ReadPower() (uint16, error)
}
