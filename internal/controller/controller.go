// Package controller runs the control loop: it drains the event register,
// steps the state machine and carries out the effects it returns against
// the hardware.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/sweeney/battery-buddy/internal/battery"
	"github.com/sweeney/battery-buddy/internal/display"
	"github.com/sweeney/battery-buddy/internal/events"
	"github.com/sweeney/battery-buddy/internal/gpio"
	"github.com/sweeney/battery-buddy/internal/logic"
	"github.com/sweeney/battery-buddy/internal/mqtt"
	"github.com/sweeney/battery-buddy/internal/pwm"
	"github.com/sweeney/battery-buddy/internal/sensor"
	"github.com/sweeney/battery-buddy/internal/status"
)

// ConfigStore persists the battery configuration.
type ConfigStore interface {
	Load() (battery.Configuration, error)
	Save(cfg battery.Configuration) error
}

// Hardware is the set of devices the runner drives. Display may be nil
// when no panel is fitted; the runner always keeps its own mirror.
type Hardware struct {
	Sensor  sensor.Sensor
	Display display.Display
	Load    pwm.Load
	Speaker pwm.Player
	OpAmp   gpio.Switch
	LED     gpio.Switch
	Store   ConfigStore
}

// Config wires a Runner.
type Config struct {
	Hardware

	Poller     *events.Poller
	Publisher  mqtt.Publisher
	MQTTStatus mqtt.ConnectionStatus // optional
	Tracker    *status.Tracker       // optional
	Limits     logic.Limits

	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Runner is the single consumer of the event register.
type Runner struct {
	hw      Hardware
	lcd     display.Display
	mirror  *display.Mirror
	poller  *events.Poller
	pub     mqtt.Publisher
	mqttSt  mqtt.ConnectionStatus
	tracker *status.Tracker
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error

	machine logic.Machine
}

// New creates a Runner in StateInit.
func New(cfg Config) *Runner {
	r := &Runner{
		hw:      cfg.Hardware,
		mirror:  display.NewMirror(),
		poller:  cfg.Poller,
		pub:     cfg.Publisher,
		mqttSt:  cfg.MQTTStatus,
		tracker: cfg.Tracker,
		now:     cfg.Now,
		sleep:   cfg.Sleep,
		machine: logic.New(cfg.Limits),
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.sleep == nil {
		r.sleep = sleepContext
	}
	r.lcd = r.mirror
	if cfg.Display != nil {
		r.lcd = display.Tee{cfg.Display, r.mirror}
	}
	return r
}

// Machine returns the current control state.
func (r *Runner) Machine() logic.Machine {
	return r.machine
}

// Mirror returns the in-memory copy of the front panel.
func (r *Runner) Mirror() *display.Mirror {
	return r.mirror
}

// Run boots the instrument and then handles event batches until ctx is
// cancelled. The load and op-amp are switched off on the way out.
func (r *Runner) Run(ctx context.Context) error {
	defer r.safe()

	if err := r.Boot(ctx); err != nil {
		return err
	}
	for {
		f, err := r.poller.Wait(ctx)
		if err != nil {
			return nil
		}
		if err := r.Handle(ctx, f); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// Boot initialises the sensor, shows the splash screen and leaves Init with
// the stored configuration, or the defaults when it cannot be loaded.
func (r *Runner) Boot(ctx context.Context) error {
	if err := r.hw.Sensor.Init(); err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}

	var stored *battery.Configuration
	if cfg, err := r.hw.Store.Load(); err != nil {
		log.Printf("controller: stored configuration unusable, using defaults: %v", err)
	} else {
		stored = &cfg
	}

	if err := r.execute(ctx, logic.Splash()); err != nil {
		return err
	}
	return r.step(ctx, logic.Input{Stored: stored})
}

// Handle processes one batch of event flags.
func (r *Runner) Handle(ctx context.Context, f events.Flags) error {
	in := logic.Input{Flags: f}
	if r.machine.NeedsReading(f) {
		rd, err := r.read()
		if err != nil {
			log.Printf("controller: sensor read error: %v", err)
			if r.tracker != nil {
				r.tracker.SensorError()
			}
			in.Flags &^= events.Heartbeat
		} else {
			in.Reading = rd
		}
	}
	return r.step(ctx, in)
}

func (r *Runner) step(ctx context.Context, in logic.Input) error {
	prev := r.machine
	next, fx := prev.Step(in)
	r.machine = next

	if prev.State != next.State {
		log.Printf("state: %s -> %s", prev.State, next.State)
	}
	// Tunes run last and can take seconds; the transition is reported once
	// the outputs and panel have settled.
	head, tune := splitAtTune(fx)
	err := r.execute(ctx, head)
	r.report(prev, next, in.Flags)
	if err != nil {
		return err
	}
	return r.execute(ctx, tune)
}

func splitAtTune(fx []logic.Effect) (head, tune []logic.Effect) {
	i := slices.IndexFunc(fx, func(e logic.Effect) bool {
		_, ok := e.(logic.Play)
		return ok
	})
	if i < 0 {
		return fx, nil
	}
	return fx[:i], fx[i:]
}

func (r *Runner) read() (logic.Reading, error) {
	v, err := r.hw.Sensor.ReadVoltage()
	if err != nil {
		return logic.Reading{}, fmt.Errorf("read voltage: %w", err)
	}
	c, err := r.hw.Sensor.ReadCurrent()
	if err != nil {
		return logic.Reading{}, fmt.Errorf("read current: %w", err)
	}
	return logic.Reading{Voltage: v, Current: c}, nil
}

// execute carries out effects in order. Device errors are logged and the
// sequence continues; only cancellation during a Pause stops it.
func (r *Runner) execute(ctx context.Context, fx []logic.Effect) error {
	for _, e := range fx {
		var err error
		switch e := e.(type) {
		case logic.Clear:
			err = r.lcd.Clear()
		case logic.Goto:
			err = r.lcd.Goto(e.Col, e.Row)
		case logic.Write:
			err = r.lcd.WriteText(e.Text)
		case logic.SetLoad:
			err = r.hw.Load.SetLevel(e.Level)
		case logic.AmpPower:
			err = r.hw.OpAmp.Set(e.On)
		case logic.SetLED:
			err = r.hw.LED.Set(e.On)
		case logic.SaveConfig:
			err = r.hw.Store.Save(e.Config)
		case logic.Play:
			for _, n := range e.Notes {
				if err = r.hw.Speaker.Play(n.PeriodUS, n.Duration); err != nil {
					break
				}
			}
		case logic.Pause:
			if err := r.sleep(ctx, e.For); err != nil {
				return err
			}
		default:
			err = fmt.Errorf("unknown effect %T", e)
		}
		if err != nil {
			log.Printf("controller: %T: %v", e, err)
		}
	}
	return nil
}

// report publishes state changes and discharge samples, then refreshes the
// status tracker.
func (r *Runner) report(prev, next logic.Machine, f events.Flags) {
	t := r.now()

	if prev.State != next.State {
		ev := mqtt.Event{
			Timestamp: t,
			Type:      mqtt.Classify(prev.State, next.State),
			From:      prev.State,
			To:        next.State,
			Config:    next.Config,
			Status:    next.Status,
		}
		if ev.Type == mqtt.EventAborted {
			ev.Status = prev.Status
		}
		if err := r.pub.Publish(ev); err != nil {
			log.Printf("publish error: %v", err)
		}
	}

	if prev.State == logic.StateDischarge && next.State == logic.StateDischarge && f.Has(events.Heartbeat) {
		sample := mqtt.Sample{Timestamp: t, Status: next.Status, Level: next.Level}
		if p, err := r.hw.Sensor.ReadPower(); err == nil {
			sample.Power = p
		}
		if err := r.pub.PublishTelemetry(sample); err != nil {
			log.Printf("telemetry publish error: %v", err)
		}
	}

	if r.tracker != nil {
		r.tracker.Update(next)
		r.tracker.SetLCD(r.mirror.Lines())
		if r.mqttSt != nil {
			r.tracker.SetMQTTConnected(r.mqttSt.IsConnected())
		}
	}
}

// safe drops the load and powers down the op-amp and LED.
func (r *Runner) safe() {
	if err := r.hw.Load.SetLevel(0); err != nil {
		log.Printf("controller: release load: %v", err)
	}
	if err := r.hw.OpAmp.Set(false); err != nil {
		log.Printf("controller: op-amp off: %v", err)
	}
	if err := r.hw.LED.Set(false); err != nil {
		log.Printf("controller: led off: %v", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
