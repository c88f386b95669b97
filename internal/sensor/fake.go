package sensor

// Sample is one scripted sensor reading.
type Sample struct {
	Voltage uint16
	Current uint16
	Power   uint16
}

// Fake is a test double that returns scripted readings. Each ReadVoltage
// advances to the next sample; ReadCurrent and ReadPower report the sample
// selected by the last ReadVoltage. Once exhausted, the last sample repeats.
type Fake struct {
	Samples []Sample

	index int
	cur   Sample

	// Inited tracks if Init was called.
	Inited bool

	// Reads counts ReadVoltage calls.
	Reads int

	// InitError, ReadError, if set, are returned by Init and every read.
	InitError error
	ReadError error
}

// NewFake creates a Fake with the given samples.
func NewFake(samples ...Sample) *Fake {
	return &Fake{Samples: samples}
}

// Init records the call.
func (f *Fake) Init() error {
	if f.InitError != nil {
		return f.InitError
	}
	f.Inited = true
	return nil
}

// ReadVoltage advances to the next sample.
func (f *Fake) ReadVoltage() (uint16, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) > 0 {
		f.cur = f.Samples[f.index]
		if f.index < len(f.Samples)-1 {
			f.index++
		}
	}
	return f.cur.Voltage, nil
}

// ReadCurrent returns the current sample's current.
func (f *Fake) ReadCurrent() (uint16, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.cur.Current, nil
}

// ReadPower returns the current sample's power.
func (f *Fake) ReadPower() (uint16, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.cur.Power, nil
}
