//go:build !linux

package pwm

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("hardware PWM is only supported on Linux")

// Open is not supported on this platform.
func Open() error {
	return errUnsupported
}

// Close is a no-op on this platform.
func Close() error {
	return nil
}

// RPIOLoad is not supported on this platform.
type RPIOLoad struct{}

// NewRPIOLoad returns a load whose every call fails.
func NewRPIOLoad(pin int) *RPIOLoad {
	return &RPIOLoad{}
}

// SetLevel always fails.
func (l *RPIOLoad) SetLevel(level uint16) error {
	return errUnsupported
}

// Speaker is not supported on this platform.
type Speaker struct{}

// NewSpeaker returns a speaker whose every call fails.
func NewSpeaker(pin int) *Speaker {
	return &Speaker{}
}

// Play always fails.
func (s *Speaker) Play(periodUS uint16, d time.Duration) error {
	return errUnsupported
}
