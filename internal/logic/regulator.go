package logic

import "github.com/sweeney/battery-buddy/internal/battery"

// Regulate runs one 1 Hz control step of a discharge.
//
// It integrates r.Current into st.Charge (one second per call, so mA
// becomes mA·s), moves level by exactly one step toward st.Target within
// lim, and advances the elapsed time. The returned bool reports that the
// pack voltage dropped below st.Cutoff.
func Regulate(st *Status, level uint16, r Reading, lim Limits) (uint16, bool) {
	st.Voltage = r.Voltage
	st.Current = r.Current
	st.Charge += uint32(r.Current)

	level = battery.Clamp(level, lim.Min, lim.Max)
	switch {
	case r.Current > st.Target && level > lim.Min:
		level--
	case r.Current < st.Target && level < lim.Max:
		level++
	}

	st.Seconds++
	if st.Seconds == 60 {
		st.Seconds = 0
		st.Minutes++
		if st.Minutes == 60 {
			st.Minutes = 0
			st.Hours++
		}
	}

	return level, r.Voltage < st.Cutoff
}
