// Package settings loads the deployment settings file: pins, bus addresses
// and which peripherals are fitted. Command-line flags override it.
package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/battery-buddy/internal/display"
	"github.com/sweeney/battery-buddy/internal/gpio"
	"github.com/sweeney/battery-buddy/internal/nvram"
	"github.com/sweeney/battery-buddy/internal/pwm"
	"github.com/sweeney/battery-buddy/internal/sensor"
)

// Settings is the whole settings file.
type Settings struct {
	GPIO    GPIO    `yaml:"gpio"`
	PWM     PWM     `yaml:"pwm"`
	I2C     I2C     `yaml:"i2c"`
	Display Display `yaml:"display"`
	Store   Store   `yaml:"store"`
	MQTT    MQTT    `yaml:"mqtt"`
	HTTP    HTTP    `yaml:"http"`
}

// GPIO holds BCM line offsets on the GPIO character device.
type GPIO struct {
	Chip     string `yaml:"chip"`
	Button   int    `yaml:"button"`
	EncoderA int    `yaml:"encoder_a"`
	EncoderB int    `yaml:"encoder_b"`
	OpAmp    int    `yaml:"op_amp"`
	LED      int    `yaml:"led"`
}

// PWM holds the hardware PWM pins.
type PWM struct {
	LoadPin    int `yaml:"load_pin"`
	SpeakerPin int `yaml:"speaker_pin"`
}

// I2C holds the bus name and device addresses.
type I2C struct {
	Bus           string `yaml:"bus"`
	SensorAddress uint16 `yaml:"sensor_address"`
	EEPROMAddress uint16 `yaml:"eeprom_address"`
	EEPROMSize    uint16 `yaml:"eeprom_size"`
}

// Display kinds.
const (
	DisplayHD44780 = "hd44780"
	DisplaySerial  = "serial"
	DisplayNone    = "none"
)

// Display selects the LCD.
type Display struct {
	Kind       string `yaml:"kind"`
	Address    uint8  `yaml:"address"`
	SerialPort string `yaml:"serial_port"`
	Baud       int    `yaml:"baud"`
}

// Store kinds.
const (
	StoreEEPROM = "eeprom"
	StoreFile   = "file"
)

// Store selects where the battery configuration is persisted.
type Store struct {
	Kind   string `yaml:"kind"`
	Path   string `yaml:"path"`
	Offset int    `yaml:"offset"`
}

// MQTT holds the telemetry broker.
type MQTT struct {
	Broker string `yaml:"broker"`
}

// HTTP holds the status page listener. Empty disables it.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Default returns the settings for the reference board.
func Default() *Settings {
	return &Settings{
		GPIO: GPIO{
			Chip:     "gpiochip0",
			Button:   gpio.DefaultPinButton,
			EncoderA: gpio.DefaultPinEncoderA,
			EncoderB: gpio.DefaultPinEncoderB,
			OpAmp:    gpio.DefaultPinOpAmp,
			LED:      gpio.DefaultPinLED,
		},
		PWM: PWM{
			LoadPin:    pwm.DefaultLoadPin,
			SpeakerPin: pwm.DefaultSpeakerPin,
		},
		I2C: I2C{
			Bus:           "",
			SensorAddress: sensor.DefaultAddress,
			EEPROMAddress: nvram.DefaultEEPROMAddress,
			EEPROMSize:    4096,
		},
		Display: Display{
			Kind:       DisplayHD44780,
			Address:    display.DefaultHD44780Address,
			SerialPort: "/dev/ttyAMA0",
			Baud:       9600,
		},
		Store: Store{
			Kind: StoreEEPROM,
			Path: "/var/lib/battery-buddy/config.bin",
		},
		MQTT: MQTT{
			Broker: "tcp://192.168.1.200:1883",
		},
		HTTP: HTTP{
			Addr: ":80",
		},
	}
}

// Load reads settings from a YAML file. A missing file yields defaults, and
// missing fields are filled from defaults.
func Load(filename string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	s.ensureDefaults()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the settings as YAML.
func (s *Settings) Save(filename string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

// Validate rejects unknown peripheral kinds.
func (s *Settings) Validate() error {
	switch s.Display.Kind {
	case DisplayHD44780, DisplaySerial, DisplayNone:
	default:
		return fmt.Errorf("unknown display kind %q", s.Display.Kind)
	}
	switch s.Store.Kind {
	case StoreEEPROM, StoreFile:
	default:
		return fmt.Errorf("unknown store kind %q", s.Store.Kind)
	}
	return nil
}

// ensureDefaults fills zero values. Pin 0 is a valid BCM line, so pins
// are left alone.
func (s *Settings) ensureDefaults() {
	def := Default()

	if s.GPIO.Chip == "" {
		s.GPIO.Chip = def.GPIO.Chip
	}
	if s.I2C.SensorAddress == 0 {
		s.I2C.SensorAddress = def.I2C.SensorAddress
	}
	if s.I2C.EEPROMAddress == 0 {
		s.I2C.EEPROMAddress = def.I2C.EEPROMAddress
	}
	if s.I2C.EEPROMSize == 0 {
		s.I2C.EEPROMSize = def.I2C.EEPROMSize
	}
	if s.Display.Kind == "" {
		s.Display.Kind = def.Display.Kind
	}
	if s.Display.Address == 0 {
		s.Display.Address = def.Display.Address
	}
	if s.Display.Baud == 0 {
		s.Display.Baud = def.Display.Baud
	}
	if s.Store.Kind == "" {
		s.Store.Kind = def.Store.Kind
	}
	if s.Store.Path == "" {
		s.Store.Path = def.Store.Path
	}
}
