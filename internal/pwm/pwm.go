// Package pwm drives the two hardware PWM outputs: the electronic load's
// setpoint and the piezo speaker.
package pwm

import "time"

// Load frequency and resolution.
const (
	LoadFreq  = 1000 // Hz
	LoadSteps = 1000
)

// Default BCM pins of the two PWM channels.
const (
	DefaultLoadPin    = 18
	DefaultSpeakerPin = 13
)

// Load is the current-sink setpoint. Level is in [0, LoadSteps].
type Load interface {
	SetLevel(level uint16) error
}

// Player plays a square-wave tone, blocking for its duration.
type Player interface {
	Play(periodUS uint16, d time.Duration) error
}

// FakeLoad records load levels.
type FakeLoad struct {
	Level  uint16
	Levels []uint16

	// SetError, if set, will be returned by SetLevel.
	SetError error
}

// SetLevel records the level.
func (f *FakeLoad) SetLevel(level uint16) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Level = level
	f.Levels = append(f.Levels, level)
	return nil
}

// Tone is one recorded Play call.
type Tone struct {
	PeriodUS uint16
	Duration time.Duration
}

// FakePlayer records tones without sleeping.
type FakePlayer struct {
	Tones []Tone
}

// Play records the tone.
func (f *FakePlayer) Play(periodUS uint16, d time.Duration) error {
	f.Tones = append(f.Tones, Tone{PeriodUS: periodUS, Duration: d})
	return nil
}
