//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the GPIO character device used on Raspberry Pi boards.
const DefaultChip = "gpiochip0"

// RealReader reads the front panel from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	vals  []int
}

// NewRealReader requests the button and encoder lines as inputs with pull-ups.
func NewRealReader(chipName string, pinButton, pinA, pinB int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Button and encoder contacts switch to ground; idle lines read high.
	lines, err := chip.RequestLines([]int{pinButton, pinA, pinB},
		gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request input pins %d,%d,%d: %w", pinButton, pinA, pinB, err)
	}

	return &RealReader{
		chip:  chip,
		lines: lines,
		vals:  make([]int, 3),
	}, nil
}

// Read samples all three lines in a single ioctl.
// The button is inverted: raw 0 = pressed.
func (r *RealReader) Read() (Sample, error) {
	if err := r.lines.Values(r.vals); err != nil {
		return Sample{}, fmt.Errorf("read input pins: %w", err)
	}

	return Sample{
		Button: r.vals[0] == 0,
		A:      r.vals[1] != 0,
		B:      r.vals[2] != 0,
	}, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	var errs []error

	if r.lines != nil {
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input pins: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealSwitch drives one output line.
type RealSwitch struct {
	line *gpiocdev.Line
}

// NewRealSwitch requests pin as an output, initially off.
func NewRealSwitch(chipName string, pin int) (*RealSwitch, error) {
	line, err := gpiocdev.RequestLine(chipName, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &RealSwitch{line: line}, nil
}

// Set drives the line high for on, low for off.
func (s *RealSwitch) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := s.line.SetValue(v); err != nil {
		return fmt.Errorf("set output: %w", err)
	}
	return nil
}

// Close drives the line low and releases it, so a stopped daemon never leaves
// the op-amp powered.
func (s *RealSwitch) Close() error {
	var errs []error
	if err := s.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("reset output: %w", err))
	}
	if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure output: %w", err))
	}
	if err := s.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close output: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
