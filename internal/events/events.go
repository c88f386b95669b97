// Package events holds the shared event-flag register between the input
// capture goroutines and the control loop.
//
// Producers OR flags in; the single consumer drains them with an atomic
// swap-to-zero. Repeated occurrences of the same kind between two drains
// coalesce into one bit.
package events

import (
	"context"
	"strings"
	"sync/atomic"
)

// Flags is a set of independent event kinds.
type Flags uint32

const (
	Heartbeat  Flags = 1 << 0
	EncoderCW  Flags = 1 << 1
	EncoderCCW Flags = 1 << 2
	ShortPress Flags = 1 << 3
	LongPress  Flags = 1 << 4
)

// Rotation is the mask of both encoder directions.
const Rotation = EncoderCW | EncoderCCW

// Has reports whether any bit of k is set in f.
func (f Flags) Has(k Flags) bool {
	return f&k != 0
}

var flagNames = []struct {
	f    Flags
	name string
}{
	{Heartbeat, "HEARTBEAT"},
	{EncoderCW, "CW"},
	{EncoderCCW, "CCW"},
	{ShortPress, "SHORT"},
	{LongPress, "LONG"},
}

func (f Flags) String() string {
	if f == 0 {
		return "NONE"
	}
	var parts []string
	for _, n := range flagNames {
		if f&n.f != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Register is a lock-free flag register with any number of producers and a
// single consumer.
type Register struct {
	bits atomic.Uint32
	wake chan struct{}
}

// NewRegister creates an empty register.
func NewRegister() *Register {
	return &Register{wake: make(chan struct{}, 1)}
}

// Raise ORs f into the register and wakes a waiting consumer.
func (r *Register) Raise(f Flags) {
	if f == 0 {
		return
	}
	r.bits.Or(uint32(f))
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Take atomically reads and clears the register.
func (r *Register) Take() Flags {
	return Flags(r.bits.Swap(0))
}

// Pending returns the current flags without clearing them.
func (r *Register) Pending() Flags {
	return Flags(r.bits.Load())
}

// Poller is the control loop's only suspension point.
type Poller struct {
	reg *Register
}

// NewPoller creates a poller draining reg.
func NewPoller(reg *Register) *Poller {
	return &Poller{reg: reg}
}

// Wait blocks until at least one flag is set, then returns and clears the
// whole set. It only returns early when ctx is cancelled at shutdown, in
// which case it reports ctx.Err().
func (p *Poller) Wait(ctx context.Context) (Flags, error) {
	for {
		if f := p.reg.Take(); f != 0 {
			return f, nil
		}
		select {
		case <-p.reg.wake:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}
