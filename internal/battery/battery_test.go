package battery

import (
	"errors"
	"testing"
)

func TestDefault(t *testing.T) {
	d := Default()
	if d.Mode != FullDischarge || d.CellType != NiMH || d.NumCells != MinCellsLiPo ||
		d.Current != Current50mA || d.CustomCurrent != 0 {
		t.Errorf("unexpected default configuration: %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("default configuration should validate: %v", err)
	}
}

func TestCutoffVoltage(t *testing.T) {
	tests := []struct {
		cell  CellType
		mode  Mode
		cells uint8
		want  uint16
	}{
		{NiMH, FullDischarge, 4, 3600},
		{NiMH, Storage, 6, 5400},
		{LiPo, FullDischarge, 3, 9000},
		{LiPo, Storage, 2, 7600},
		{LiPo, Storage, 1, 3800},
	}
	for _, tt := range tests {
		c := Configuration{CellType: tt.cell, Mode: tt.mode, NumCells: tt.cells}
		if got := c.CutoffVoltage(); got != tt.want {
			t.Errorf("%v/%v x%d: expected %d mV, got %d", tt.cell, tt.mode, tt.cells, tt.want, got)
		}
	}
}

func TestInsertThresholdUsesFullDischargeCutoff(t *testing.T) {
	c := Configuration{CellType: LiPo, Mode: Storage, NumCells: 2}
	if got := c.InsertThreshold(); got != 6000 {
		t.Errorf("expected 6000 mV, got %d", got)
	}
	c = Configuration{CellType: NiMH, Mode: FullDischarge, NumCells: 4}
	if got := c.InsertThreshold(); got != 3600 {
		t.Errorf("expected 3600 mV, got %d", got)
	}
}

func TestTargetCurrent(t *testing.T) {
	tests := []struct {
		cur    Current
		custom uint16
		want   uint16
	}{
		{Current50mA, 0, 50},
		{Current100mA, 0, 100},
		{Current500mA, 0, 500},
		{Current1000mA, 0, 1000},
		{CurrentCustom, 270, 270},
	}
	for _, tt := range tests {
		c := Configuration{Current: tt.cur, CustomCurrent: tt.custom}
		if got := c.TargetCurrent(); got != tt.want {
			t.Errorf("current %d: expected %d mA, got %d", tt.cur, tt.want, got)
		}
	}
}

func TestMinCells(t *testing.T) {
	if MinCells(NiMH) != 4 {
		t.Errorf("NiMH min cells: got %d", MinCells(NiMH))
	}
	if MinCells(LiPo) != 1 {
		t.Errorf("LiPo min cells: got %d", MinCells(LiPo))
	}
}

func TestBinaryLayout(t *testing.T) {
	c := Configuration{Mode: Storage, CellType: LiPo, NumCells: 3, Current: CurrentCustom, CustomCurrent: 0x0102}
	data, err := c.MarshalBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{1, 1, 3, 4, 0x02, 0x01}
	if string(data) != string(want) {
		t.Errorf("expected % x, got % x", want, data)
	}

	var back Configuration
	if err := back.UnmarshalBinary(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != c {
		t.Errorf("expected %+v, got %+v", c, back)
	}
}

func TestUnmarshalRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{0, 0, 4}},
		{"mode", []byte{2, 0, 4, 0, 0, 0}},
		{"cell type", []byte{0, 2, 4, 0, 0, 0}},
		{"zero cells", []byte{0, 0, 0, 0, 0, 0}},
		{"too many cells", []byte{0, 0, 7, 0, 0, 0}},
		{"current", []byte{0, 0, 4, 5, 0, 0}},
		{"custom current", []byte{0, 0, 4, 4, 0xE9, 0x03}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			err := c.UnmarshalBinary(tt.data)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
			if c != Default() {
				t.Errorf("failed unmarshal should not modify the receiver, got %+v", c)
			}
		})
	}
}

func TestLabelsArePadded(t *testing.T) {
	for m := FullDischarge; m <= MaxMode; m++ {
		if len(m.Label()) != 16 {
			t.Errorf("mode %v label %q is not 16 columns", m, m.Label())
		}
	}
	for c := NiMH; c <= MaxCellType; c++ {
		if len(c.Label()) != 16 {
			t.Errorf("cell type %v label %q is not 16 columns", c, c.Label())
		}
	}
	for c := Current50mA; c <= MaxCurrent; c++ {
		if len(c.Label()) != 16 {
			t.Errorf("current %d label %q is not 16 columns", c, c.Label())
		}
	}
}
