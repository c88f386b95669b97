// Package logic contains the pure control core of the discharger: the state
// machine, the discharge regulator and the LCD text rendering.
// This package has NO hardware dependencies (no GPIO, I2C, MQTT or
// time.Sleep). Sensor readings arrive in Input; everything the machine wants
// done to the outside world leaves as Effects.
package logic

import (
	"time"

	"github.com/sweeney/battery-buddy/internal/battery"
	"github.com/sweeney/battery-buddy/internal/events"
)

// State is the control phase.
type State uint8

const (
	StateInit State = iota
	StateConfigSetMode
	StateConfigSetCellType
	StateConfigSetNumCells
	StateConfigSetCurrent
	StateConfigSetCurrentCustom
	StateWaitBattery
	StateDischarge
	StateFinished
)

var stateNames = [...]string{
	"INIT",
	"CONFIG_SET_MODE",
	"CONFIG_SET_CELL_TYPE",
	"CONFIG_SET_NUM_CELLS",
	"CONFIG_SET_CURRENT",
	"CONFIG_SET_CURRENT_CUSTOM",
	"WAIT_BATTERY",
	"DISCHARGE",
	"FINISHED",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// Configuring reports whether s is one of the configuration screens.
func (s State) Configuring() bool {
	return s >= StateConfigSetMode && s <= StateConfigSetCurrentCustom
}

// Reading is one sensor sample.
type Reading struct {
	Voltage uint16 // mV
	Current uint16 // mA
}

// Status is the live state of one discharge run. It is zeroed on entering
// configuration, fixed at Target/Cutoff on entering discharge, and frozen
// once the run finishes.
type Status struct {
	Target  uint16 // mA
	Cutoff  uint16 // mV
	Charge  uint32 // mA·s, never decreases during a run
	Hours   uint8
	Minutes uint8
	Seconds uint8

	// Last reading seen by the regulator.
	Voltage uint16
	Current uint16
}

// Capacity returns the discharged capacity in mAh.
func (s Status) Capacity() uint32 {
	return s.Charge / 3600
}

// Elapsed returns the run time as a duration.
func (s Status) Elapsed() time.Duration {
	return time.Duration(s.Hours)*time.Hour +
		time.Duration(s.Minutes)*time.Minute +
		time.Duration(s.Seconds)*time.Second
}

// Limits bound the load actuator level.
type Limits struct {
	Min uint16
	Max uint16
}

// DefaultLimits match a 1 kHz PWM with 1000 duty steps.
var DefaultLimits = Limits{Min: 0, Max: 1000}

// Input is everything one Step may look at.
type Input struct {
	Flags events.Flags

	// Reading is valid only when NeedsReading returned true for Flags.
	Reading Reading

	// Stored is the configuration loaded from non-volatile storage, consumed
	// by StateInit. nil means the load failed and defaults apply.
	Stored *battery.Configuration
}

// Effect is a side effect requested by Step, executed by the caller in
// order.
type Effect interface {
	effect()
}

type (
	// Clear blanks the display and homes the cursor.
	Clear struct{}
	// Goto moves the display cursor.
	Goto struct{ Col, Row uint8 }
	// Write writes text at the cursor.
	Write struct{ Text string }
	// SetLoad sets the load actuator level.
	SetLoad struct{ Level uint16 }
	// AmpPower switches the load op-amp supply.
	AmpPower struct{ On bool }
	// SetLED drives the activity LED.
	SetLED struct{ On bool }
	// SaveConfig persists the configuration.
	SaveConfig struct{ Config battery.Configuration }
	// Play plays the notes in order, blocking.
	Play struct{ Notes []Note }
	// Pause blocks for a fixed time.
	Pause struct{ For time.Duration }
)

func (Clear) effect()      {}
func (Goto) effect()       {}
func (Write) effect()      {}
func (SetLoad) effect()    {}
func (AmpPower) effect()   {}
func (SetLED) effect()     {}
func (SaveConfig) effect() {}
func (Play) effect()       {}
func (Pause) effect()      {}

// Note is one square-wave tone.
type Note struct {
	PeriodUS uint16
	Duration time.Duration
}

// Ditty is the three rising notes played at boot and on completion.
var Ditty = []Note{
	{PeriodUS: 3033, Duration: 100 * time.Millisecond},
	{PeriodUS: 2551, Duration: 100 * time.Millisecond},
	{PeriodUS: 1911, Duration: 100 * time.Millisecond},
}
