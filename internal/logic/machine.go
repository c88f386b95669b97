package logic

import (
	"strconv"
	"time"

	"github.com/sweeney/battery-buddy/internal/battery"
	"github.com/sweeney/battery-buddy/internal/events"
)

// Timing of the hardware sequences driven through Pause effects.
const (
	AmpSettle      = 100 * time.Millisecond
	FinishSettle   = 500 * time.Millisecond
	FinishRepeats  = 5
	FinishGap      = 1500 * time.Millisecond
	SplashHold     = 2 * time.Second
	feedForwardDiv = 1094
)

// Machine is the control state. It is a plain value: Step returns the next
// Machine rather than mutating the receiver.
type Machine struct {
	State  State
	Config battery.Configuration
	Status Status
	Level  uint16
	LED    bool
	Limits Limits
}

// New returns a machine in StateInit.
func New(lim Limits) Machine {
	return Machine{
		State:  StateInit,
		Config: battery.Default(),
		Limits: lim,
	}
}

// NeedsReading reports whether Step will consume Input.Reading for the
// given flags, so the caller only touches the sensor when it matters.
func (m Machine) NeedsReading(f events.Flags) bool {
	if !f.Has(events.Heartbeat) {
		return false
	}
	switch m.State {
	case StateWaitBattery:
		return true
	case StateDischarge:
		return !f.Has(events.LongPress)
	}
	return false
}

// Splash returns the boot screen sequence.
func Splash() []Effect {
	return []Effect{
		Clear{},
		Write{Text: " Battery Buddy"},
		Goto{Col: 0, Row: 1},
		Write{Text: "      v1.0"},
		Play{Notes: Ditty},
		Pause{For: SplashHold},
	}
}

// Step consumes one batch of events and returns the next machine together
// with the effects to execute, in order.
func (m Machine) Step(in Input) (Machine, []Effect) {
	var fx []Effect
	f := in.Flags

	switch m.State {
	case StateInit:
		if in.Stored != nil {
			m.Config = *in.Stored
		} else {
			m.Config = battery.Default()
		}
		fx = m.enterConfig(fx)

	case StateConfigSetMode:
		if f.Has(events.ShortPress) {
			fx = m.screen(fx, StateConfigSetCellType, "Type:", m.Config.CellType.Label())
			break
		}
		if v, ok := battery.Cycle(m.Config.Mode, battery.FullDischarge, battery.MaxMode, f); ok {
			m.Config.Mode = v
			fx = field(fx, v.Label())
		}

	case StateConfigSetCellType:
		if f.Has(events.ShortPress) {
			m.Config.NumCells = battery.Clamp(m.Config.NumCells,
				battery.MinCells(m.Config.CellType), battery.MaxCells)
			fx = m.screen(fx, StateConfigSetNumCells, "Num Cells:", cells(m.Config.NumCells))
			break
		}
		if v, ok := battery.Cycle(m.Config.CellType, battery.NiMH, battery.MaxCellType, f); ok {
			m.Config.CellType = v
			fx = field(fx, v.Label())
		}

	case StateConfigSetNumCells:
		if f.Has(events.ShortPress) {
			fx = m.screen(fx, StateConfigSetCurrent, "Current:", m.Config.Current.Label())
			break
		}
		lo := battery.MinCells(m.Config.CellType)
		if v, ok := battery.Cycle(m.Config.NumCells, lo, battery.MaxCells, f); ok {
			m.Config.NumCells = v
			fx = field(fx, cells(v))
		}

	case StateConfigSetCurrent:
		if f.Has(events.ShortPress) {
			if m.Config.Current == battery.CurrentCustom {
				fx = m.screen(fx, StateConfigSetCurrentCustom, "Current:", milliamps(m.Config.CustomCurrent))
			} else {
				m.State = StateWaitBattery
			}
			break
		}
		if v, ok := battery.Cycle(m.Config.Current, battery.Current50mA, battery.MaxCurrent, f); ok {
			m.Config.Current = v
			fx = field(fx, v.Label())
		}

	case StateConfigSetCurrentCustom:
		if v, ok := battery.Nudge(m.Config.CustomCurrent, battery.CustomCurrentStep,
			0, battery.CustomCurrentMax, f); ok {
			m.Config.CustomCurrent = v
			fx = field(fx, milliamps(v))
		}
		if f.Has(events.ShortPress) {
			m.State = StateWaitBattery
		}

	case StateWaitBattery:
		if !f.Has(events.Heartbeat) {
			break
		}
		if in.Reading.Voltage > m.Config.InsertThreshold() {
			fx = m.enterDischarge(fx)
			break
		}
		fx = append(fx, Clear{}, Write{Text: "Insert Battery"})

	case StateDischarge:
		if f.Has(events.LongPress) {
			fx = m.enterConfig(fx)
			break
		}
		if !f.Has(events.Heartbeat) {
			break
		}
		level, cutoff := Regulate(&m.Status, m.Level, in.Reading, m.Limits)
		if cutoff {
			fx = m.enterFinished(fx)
			break
		}
		if level != m.Level {
			m.Level = level
			fx = append(fx, SetLoad{Level: level})
		}
		m.LED = !m.LED
		fx = append(fx, SetLED{On: m.LED})
		fx = append(fx,
			Goto{Col: 0, Row: 0},
			Write{Text: FormatVolts(m.Status.Voltage) + "V  " + FormatCapacity(m.Status.Capacity()) + " mAh"},
			Goto{Col: 0, Row: 1},
			Write{Text: "  " + FormatTime(m.Status.Hours, m.Status.Minutes, m.Status.Seconds)},
		)

	case StateFinished:
	}

	return m, fx
}

func (m *Machine) enterConfig(fx []Effect) []Effect {
	m.Status = Status{}
	m.Level = 0
	m.LED = false
	fx = append(fx, SetLoad{Level: 0}, AmpPower{On: false}, SetLED{On: false})
	return m.screen(fx, StateConfigSetMode, "Mode:", m.Config.Mode.Label())
}

func (m *Machine) enterDischarge(fx []Effect) []Effect {
	m.State = StateDischarge
	m.Status = Status{
		Target: m.Config.TargetCurrent(),
		Cutoff: m.Config.CutoffVoltage(),
	}
	m.Level = battery.Clamp(uint16(uint32(m.Status.Target)*1000/feedForwardDiv), m.Limits.Min, m.Limits.Max)
	return append(fx,
		SaveConfig{Config: m.Config},
		Clear{},
		AmpPower{On: true},
		Pause{For: AmpSettle},
		SetLoad{Level: m.Level},
	)
}

func (m *Machine) enterFinished(fx []Effect) []Effect {
	m.State = StateFinished
	m.Level = 0
	m.LED = false
	fx = append(fx,
		SetLoad{Level: 0},
		Pause{For: FinishSettle},
		AmpPower{On: false},
		SetLED{On: false},
		Clear{},
		Write{Text: FormatCapacity(m.Status.Capacity()) + " mAh Disch"},
		Goto{Col: 0, Row: 1},
		Write{Text: "  " + FormatTime(m.Status.Hours, m.Status.Minutes, m.Status.Seconds)},
	)
	for i := 0; i < FinishRepeats; i++ {
		fx = append(fx, Play{Notes: Ditty}, Pause{For: FinishGap})
	}
	return fx
}

// screen switches to state s and draws a title with its value below.
func (m *Machine) screen(fx []Effect, s State, title, value string) []Effect {
	m.State = s
	return append(fx, Clear{}, Write{Text: title}, Goto{Col: 0, Row: 1}, Write{Text: value})
}

// field redraws the value line of a configuration screen.
func field(fx []Effect, value string) []Effect {
	return append(fx, Goto{Col: 0, Row: 1}, Write{Text: value})
}

func cells(n uint8) string {
	return strconv.Itoa(int(n))
}

func milliamps(n uint16) string {
	return FormatNumber(uint32(n), 4, 0, ' ') + " mA"
}
