//go:build linux

package pwm

import (
	"errors"
	"fmt"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// Open maps the BCM2835 peripheral registers. Both PWM outputs need it.
func Open() error {
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("open rpio: %w", err)
	}
	return nil
}

// Close unmaps the registers.
func Close() error {
	return rpio.Close()
}

// RPIOLoad is a Load on a hardware PWM pin.
type RPIOLoad struct {
	pin rpio.Pin
}

// NewRPIOLoad switches pin to PWM at LoadFreq and level 0.
func NewRPIOLoad(pin int) *RPIOLoad {
	l := &RPIOLoad{pin: rpio.Pin(pin)}
	l.pin.Pwm()
	l.SetLevel(0)
	return l
}

// SetLevel sets the duty cycle to level/LoadSteps. The clock is reapplied
// every time because both PWM channels share it with the speaker.
func (l *RPIOLoad) SetLevel(level uint16) error {
	if level > LoadSteps {
		return fmt.Errorf("load level %d out of range", level)
	}
	l.pin.Freq(LoadFreq * LoadSteps)
	l.pin.DutyCycle(uint32(level), LoadSteps)
	return nil
}

// speakerSteps is the cycle length used for the 50% square wave.
const speakerSteps = 32

// Speaker is a Player on a hardware PWM pin.
type Speaker struct {
	pin   rpio.Pin
	sleep func(time.Duration)
}

// NewSpeaker switches pin to PWM, silent.
func NewSpeaker(pin int) *Speaker {
	s := &Speaker{pin: rpio.Pin(pin), sleep: time.Sleep}
	s.pin.Pwm()
	s.pin.DutyCycle(0, speakerSteps)
	return s
}

// Play sounds a tone with the given period for d.
func (s *Speaker) Play(periodUS uint16, d time.Duration) error {
	if periodUS == 0 {
		return errors.New("zero tone period")
	}
	s.pin.Freq(speakerSteps * 1_000_000 / int(periodUS))
	s.pin.DutyCycle(speakerSteps/2, speakerSteps)
	s.sleep(d)
	s.pin.DutyCycle(0, speakerSteps)
	return nil
}
