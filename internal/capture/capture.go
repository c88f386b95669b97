// Package capture turns raw front-panel samples into debounced events.
// Capture is pure: it has no goroutines, clocks or I/O, and advances one
// high-rate tick per call so tests can drive it sample by sample.
package capture

import (
	"github.com/sweeney/battery-buddy/internal/events"
	"github.com/sweeney/battery-buddy/internal/gpio"
)

const (
	// TickRate is the nominal high-rate tick frequency in Hz.
	TickRate = 1000

	// SamplePeriodMs is the button sampling period: every other tick.
	SamplePeriodMs = 2

	// DebounceDepth is the number of consecutive identical button samples
	// required to confirm a press or a release.
	DebounceDepth = 12

	// LongPressMs is the continuous hold time that raises LongPress.
	LongPressMs = 1000

	// encoderIdle is the state of both pulled-up encoder lines at rest.
	encoderIdle = 0x3
)

const depthMask = uint32(1)<<DebounceDepth - 1

// Capture holds the debounce window, the long-press timer and the last
// encoder state.
type Capture struct {
	ms uint16

	// window holds the most recent button samples, newest in bit 0,
	// 1 = pressed.
	window uint32

	// armed is set once a press is confirmed and cleared by the confirmed
	// release that follows it.
	armed bool
	// longFired suppresses the short press of a press that already produced
	// a long press.
	longFired bool
	// heldMs counts consecutive pressed milliseconds; frozen once the long
	// press fires.
	heldMs int

	lastEncoder uint8
}

// New returns a Capture with the encoder at rest and the button released.
func New() *Capture {
	return &Capture{lastEncoder: encoderIdle}
}

// Tick processes one high-rate tick and returns the events it detected.
func (c *Capture) Tick(s gpio.Sample) events.Flags {
	var f events.Flags

	if c.ms&1 != 0 {
		f |= c.button(s.Button)
	}
	f |= c.encoder(s.Encoder())

	c.ms++
	if c.ms == TickRate {
		c.ms = 0
	}
	return f
}

func (c *Capture) button(pressed bool) events.Flags {
	var f events.Flags

	c.window <<= 1
	if pressed {
		c.window |= 1
	}

	if !pressed {
		c.heldMs = 0
		// Confirmed release: DebounceDepth released samples in a row.
		if c.armed && c.window&depthMask == 0 {
			if !c.longFired {
				f |= events.ShortPress
			}
			c.armed = false
			c.longFired = false
		}
		return f
	}

	// Confirmed press: one released sample followed by DebounceDepth
	// pressed samples.
	if c.window&(depthMask<<1|1) == depthMask {
		c.armed = true
	}

	if c.heldMs < LongPressMs {
		c.heldMs += SamplePeriodMs
		if c.heldMs >= LongPressMs {
			f |= events.LongPress
			c.longFired = true
		}
	}
	return f
}

// encoder decodes only the rising edge of channel A; the level of B at that
// edge gives the direction. One event per detent.
func (c *Capture) encoder(cur uint8) events.Flags {
	var f events.Flags
	if cur&0x2 != 0 && c.lastEncoder&0x2 == 0 {
		if cur&0x1 != 0 {
			f = events.EncoderCCW
		} else {
			f = events.EncoderCW
		}
	}
	c.lastEncoder = cur
	return f
}
