// Package gpio provides GPIO input reading and switch outputs with hardware
// abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Sample is one read of the front-panel inputs.
type Sample struct {
	// Button is the logical button state (true = pressed). The raw line is
	// active-low with a pull-up, so raw 0 = pressed.
	Button bool
	// A and B are the raw quadrature encoder channels (true = high).
	A bool
	B bool
}

// Encoder returns the 2-bit raw encoder state, A in bit 1 and B in bit 0.
func (s Sample) Encoder() uint8 {
	var v uint8
	if s.A {
		v |= 0x2
	}
	if s.B {
		v |= 0x1
	}
	return v
}

// Reader reads the front-panel input lines.
type Reader interface {
	// Read returns the current logical button state and raw encoder levels.
	Read() (Sample, error)

	// Close releases GPIO resources.
	Close() error
}

// Switch drives a single on/off output (op-amp power, status LED).
type Switch interface {
	Set(on bool) error
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinButton   = 4
	DefaultPinEncoderA = 17
	DefaultPinEncoderB = 27
	DefaultPinOpAmp    = 22
	DefaultPinLED      = 23
)
