package logic

import "testing"

func TestRegulateStepsTowardTarget(t *testing.T) {
	tests := []struct {
		name    string
		current uint16
		level   uint16
		want    uint16
	}{
		{"below target", 90, 100, 101},
		{"above target", 110, 100, 99},
		{"at target", 100, 100, 100},
		{"floor", 200, 0, 0},
		{"ceiling", 10, 1000, 1000},
		{"out of range is clamped first", 10, 1500, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Status{Target: 100, Cutoff: 1000}
			got, _ := Regulate(&st, tt.level, Reading{Voltage: 5000, Current: tt.current}, DefaultLimits)
			if got != tt.want {
				t.Errorf("expected level %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRegulateIntegratesCharge(t *testing.T) {
	st := Status{Target: 100, Cutoff: 1000}
	var level uint16
	for i := 0; i < 36; i++ {
		level, _ = Regulate(&st, level, Reading{Voltage: 5000, Current: 100}, DefaultLimits)
	}
	if st.Charge != 3600 {
		t.Errorf("expected 3600 mA·s, got %d", st.Charge)
	}
	if st.Capacity() != 1 {
		t.Errorf("expected 1 mAh, got %d", st.Capacity())
	}
	if FormatCapacity(st.Capacity()) != "   1" {
		t.Errorf("expected %q, got %q", "   1", FormatCapacity(st.Capacity()))
	}
}

func TestRegulateClock(t *testing.T) {
	st := Status{Target: 100}
	for i := 0; i < 3661; i++ {
		Regulate(&st, 0, Reading{Voltage: 5000}, DefaultLimits)
	}
	if st.Hours != 1 || st.Minutes != 1 || st.Seconds != 1 {
		t.Errorf("expected 01:01:01, got %02d:%02d:%02d", st.Hours, st.Minutes, st.Seconds)
	}
}

func TestRegulateCutoff(t *testing.T) {
	st := Status{Target: 100, Cutoff: 3600}
	if _, cut := Regulate(&st, 0, Reading{Voltage: 3600}, DefaultLimits); cut {
		t.Error("voltage equal to cutoff should not finish")
	}
	if _, cut := Regulate(&st, 0, Reading{Voltage: 3599}, DefaultLimits); !cut {
		t.Error("voltage below cutoff should finish")
	}
}

// A load whose current is proportional to level must settle within one step
// of the target and stay there.
func TestRegulateConverges(t *testing.T) {
	const target = 500
	st := Status{Target: target}
	level := uint16(0)
	for i := 0; i < 2000; i++ {
		current := uint16(uint32(level) * 1094 / 1000)
		level, _ = Regulate(&st, level, Reading{Voltage: 5000, Current: current}, DefaultLimits)
	}
	for i := 0; i < 20; i++ {
		current := uint16(uint32(level) * 1094 / 1000)
		if current+2 < target || current > target+2 {
			t.Fatalf("expected current near %d mA, got %d at level %d", target, current, level)
		}
		level, _ = Regulate(&st, level, Reading{Voltage: 5000, Current: current}, DefaultLimits)
	}
}
