package battery

import (
	"golang.org/x/exp/constraints"

	"github.com/sweeney/battery-buddy/internal/events"
)

// Cycle applies one encoder batch to v within the inclusive range [lo, hi].
// Clockwise increments and wraps to lo past hi; counter-clockwise decrements
// and wraps to hi past lo. Clockwise wins when both directions coalesced into
// the same batch. The bool reports whether a rotation was applied, so the
// caller knows to re-render the field.
func Cycle[T constraints.Integer](v, lo, hi T, f events.Flags) (T, bool) {
	switch {
	case f.Has(events.EncoderCW):
		if v >= hi {
			return lo, true
		}
		return v + 1, true
	case f.Has(events.EncoderCCW):
		if v <= lo {
			return hi, true
		}
		return v - 1, true
	}
	return v, false
}

// Nudge moves v by step for each rotation direction present in f, saturating
// at [lo, hi] instead of wrapping. The bool reports whether v changed.
func Nudge[T constraints.Integer](v, step, lo, hi T, f events.Flags) (T, bool) {
	orig := v
	if f.Has(events.EncoderCW) && v < hi {
		v = Clamp(v+step, lo, hi)
	}
	if f.Has(events.EncoderCCW) && v > lo {
		if v-lo < step {
			v = lo
		} else {
			v -= step
		}
	}
	return v, v != orig
}

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
