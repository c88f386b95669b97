// Package battery describes what the user asked for: operating mode, cell
// chemistry, cell count and discharge current, plus the chemistry tables
// that turn those choices into a cutoff voltage and a target current.
package battery

import (
	"errors"
	"fmt"
)

// Mode is the discharge goal.
type Mode uint8

const (
	FullDischarge Mode = iota
	Storage
	modeCount
)

// CellType is the cell chemistry.
type CellType uint8

const (
	NiMH CellType = iota
	LiPo
	cellTypeCount
)

// Current selects a discharge current preset or the custom value.
type Current uint8

const (
	Current50mA Current = iota
	Current100mA
	Current500mA
	Current1000mA
	CurrentCustom
	currentCount
)

// Limits of the editable fields.
const (
	MinCellsNiMH = 4
	MinCellsLiPo = 1
	MaxCells     = 6

	CustomCurrentMax  = 1000 // mA
	CustomCurrentStep = 10   // mA
)

// Per-cell cutoff voltages in mV.
const (
	CutoffNiMHFullDischarge = 900
	CutoffNiMHStorage       = 900
	CutoffLiPoFullDischarge = 3000
	CutoffLiPoStorage       = 3800
)

var presetCurrents = [...]uint16{50, 100, 500, 1000}

// Display strings are padded to the 16-column LCD so a shorter value fully
// overwrites a longer one.
var (
	modeNames     = [...]string{"Full Discharge  ", "Storage         "}
	cellTypeNames = [...]string{"NIMH            ", "LiPo            "}
	currentNames  = [...]string{
		"50mA            ",
		"100mA           ",
		"500mA           ",
		"1000mA          ",
		"Custom          ",
	}
)

// Label returns the padded LCD label.
func (m Mode) Label() string {
	if m >= modeCount {
		return "?"
	}
	return modeNames[m]
}

// Label returns the padded LCD label.
func (c CellType) Label() string {
	if c >= cellTypeCount {
		return "?"
	}
	return cellTypeNames[c]
}

// Label returns the padded LCD label.
func (c Current) Label() string {
	if c >= currentCount {
		return "?"
	}
	return currentNames[c]
}

func (m Mode) String() string {
	switch m {
	case FullDischarge:
		return "FULL_DISCHARGE"
	case Storage:
		return "STORAGE"
	}
	return "UNKNOWN"
}

func (c CellType) String() string {
	switch c {
	case NiMH:
		return "NIMH"
	case LiPo:
		return "LIPO"
	}
	return "UNKNOWN"
}

// MaxMode, MaxCellType and MaxCurrent are the inclusive upper bounds used by
// the parameter editor.
const (
	MaxMode     = modeCount - 1
	MaxCellType = cellTypeCount - 1
	MaxCurrent  = currentCount - 1
)

// Configuration is the persisted user intent.
type Configuration struct {
	Mode          Mode
	CellType      CellType
	NumCells      uint8
	Current       Current
	CustomCurrent uint16 // mA, used when Current == CurrentCustom
}

// Default returns the configuration used on first boot or after an integrity
// failure. NumCells starts at the LiPo minimum; leaving the cell type screen
// raises it to the NiMH minimum when needed.
func Default() Configuration {
	return Configuration{
		Mode:          FullDischarge,
		CellType:      NiMH,
		NumCells:      MinCellsLiPo,
		Current:       Current50mA,
		CustomCurrent: 0,
	}
}

// MinCells returns the smallest valid cell count for t.
func MinCells(t CellType) uint8 {
	if t == NiMH {
		return MinCellsNiMH
	}
	return MinCellsLiPo
}

// CellCutoff returns the per-cell cutoff in mV for the chemistry and mode.
func CellCutoff(t CellType, m Mode) uint16 {
	if t == NiMH {
		if m == FullDischarge {
			return CutoffNiMHFullDischarge
		}
		return CutoffNiMHStorage
	}
	if m == FullDischarge {
		return CutoffLiPoFullDischarge
	}
	return CutoffLiPoStorage
}

// CutoffVoltage returns the pack cutoff in mV.
func (c Configuration) CutoffVoltage() uint16 {
	return CellCutoff(c.CellType, c.Mode) * uint16(c.NumCells)
}

// InsertThreshold returns the pack voltage in mV above which a battery is
// considered connected: the full-discharge cutoff of every cell.
func (c Configuration) InsertThreshold() uint16 {
	return CellCutoff(c.CellType, FullDischarge) * uint16(c.NumCells)
}

// TargetCurrent returns the discharge current in mA.
func (c Configuration) TargetCurrent() uint16 {
	if c.Current == CurrentCustom {
		return c.CustomCurrent
	}
	if c.Current < CurrentCustom {
		return presetCurrents[c.Current]
	}
	return 0
}

// ErrInvalid reports a configuration field outside its valid range.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks every field against its range. The cell count minimum
// is the LiPo one for both chemistries, because the default configuration
// and an unfinished edit may hold a NiMH pack with fewer than four cells.
func (c Configuration) Validate() error {
	switch {
	case c.Mode > MaxMode:
		return fmt.Errorf("%w: mode %d", ErrInvalid, c.Mode)
	case c.CellType > MaxCellType:
		return fmt.Errorf("%w: cell type %d", ErrInvalid, c.CellType)
	case c.NumCells < MinCellsLiPo || c.NumCells > MaxCells:
		return fmt.Errorf("%w: cell count %d", ErrInvalid, c.NumCells)
	case c.Current > MaxCurrent:
		return fmt.Errorf("%w: current %d", ErrInvalid, c.Current)
	case c.CustomCurrent > CustomCurrentMax:
		return fmt.Errorf("%w: custom current %d", ErrInvalid, c.CustomCurrent)
	}
	return nil
}

// RecordSize is the length of the binary configuration record.
const RecordSize = 6

// MarshalBinary encodes the fixed record layout:
// mode, cell type, cell count, current, custom current (little endian).
func (c Configuration) MarshalBinary() ([]byte, error) {
	return []byte{
		byte(c.Mode),
		byte(c.CellType),
		c.NumCells,
		byte(c.Current),
		byte(c.CustomCurrent),
		byte(c.CustomCurrent >> 8),
	}, nil
}

// UnmarshalBinary decodes a record written by MarshalBinary and validates it.
func (c *Configuration) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("%w: record length %d", ErrInvalid, len(data))
	}
	cfg := Configuration{
		Mode:          Mode(data[0]),
		CellType:      CellType(data[1]),
		NumCells:      data[2],
		Current:       Current(data[3]),
		CustomCurrent: uint16(data[4]) | uint16(data[5])<<8,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	*c = cfg
	return nil
}
