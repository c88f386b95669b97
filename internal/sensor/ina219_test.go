package sensor

import (
	"errors"
	"testing"
)

// fakeBus is a register-mapped INA219 on an I2C bus.
type fakeBus struct {
	regs   map[uint8]uint16
	addr   uint16
	txErr  error
	writes int
}

func newFakeBus() *fakeBus {
	return &fakeBus{regs: map[uint8]uint16{}}
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if b.txErr != nil {
		return b.txErr
	}
	b.addr = addr
	if len(w) == 0 {
		return errors.New("empty write")
	}
	reg := w[0]
	if len(w) == 3 {
		b.regs[reg] = uint16(w[1])<<8 | uint16(w[2])
		b.writes++
	}
	if len(r) == 2 {
		v := b.regs[reg]
		r[0], r[1] = byte(v>>8), byte(v)
	}
	return nil
}

// busRegister encodes millivolts the way the INA219 bus register holds
// them: 4 mV per bit, left-shifted by 3.
func busRegister(mv uint16) uint16 {
	return (mv / 4) << 3
}

func TestINA219Init(t *testing.T) {
	bus := newFakeBus()
	s := NewINA219(bus, 0)
	if err := s.Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bus.addr != DefaultAddress {
		t.Errorf("expected address 0x%x, got 0x%x", DefaultAddress, bus.addr)
	}
	if bus.regs[0x0] != 0x219F {
		t.Errorf("expected config 0x219F, got 0x%04x", bus.regs[0x0])
	}
	if bus.regs[0x5] != 0x29B1 {
		t.Errorf("expected calibration 0x29B1, got 0x%04x", bus.regs[0x5])
	}
}

func TestINA219InitError(t *testing.T) {
	bus := newFakeBus()
	bus.txErr = errors.New("nack")
	if err := NewINA219(bus, 0x41).Init(); err == nil {
		t.Error("expected error from Init")
	}
}

func TestINA219Voltage(t *testing.T) {
	tests := []struct {
		name  string
		bus   uint16
		shunt uint16
		want  uint16
	}{
		{"bus only", busRegister(3600), 0, 3600},
		{"plus shunt drop", busRegister(3600), 1000, 3610},
		{"above 16 V", busRegister(25200), 500, 25205},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newFakeBus()
			bus.regs[0x2] = tt.bus
			bus.regs[0x1] = tt.shunt
			got, err := NewINA219(bus, 0).ReadVoltage()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d mV, got %d", tt.want, got)
			}
		})
	}
}

func TestINA219Overflow(t *testing.T) {
	bus := newFakeBus()
	bus.regs[0x2] = busRegister(3600) | 1
	if _, err := NewINA219(bus, 0).ReadVoltage(); err == nil {
		t.Error("expected overflow error")
	}
}

func TestINA219Current(t *testing.T) {
	bus := newFakeBus()
	s := NewINA219(bus, 0)

	bus.regs[0x4] = 1005 // 100.5 mA
	got, err := s.ReadCurrent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 101 {
		t.Errorf("expected 101 mA, got %d", got)
	}

	bus.regs[0x4] = 0xFFF6 // -1 mA
	if got, _ := s.ReadCurrent(); got != 0 {
		t.Errorf("expected reverse current to read 0, got %d", got)
	}
}

func TestINA219Power(t *testing.T) {
	bus := newFakeBus()
	bus.regs[0x3] = 180
	got, err := NewINA219(bus, 0).ReadPower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 360 {
		t.Errorf("expected 360 mW, got %d", got)
	}
}

func TestFakeAdvancesOnVoltage(t *testing.T) {
	f := NewFake(Sample{Voltage: 4000, Current: 100}, Sample{Voltage: 3900, Current: 99})

	v, _ := f.ReadVoltage()
	c, _ := f.ReadCurrent()
	if v != 4000 || c != 100 {
		t.Errorf("expected 4000/100, got %d/%d", v, c)
	}
	for i := 0; i < 3; i++ {
		v, _ = f.ReadVoltage()
	}
	if v != 3900 {
		t.Errorf("expected last sample to repeat, got %d", v)
	}
	if f.Reads != 4 {
		t.Errorf("expected 4 reads, got %d", f.Reads)
	}
}
