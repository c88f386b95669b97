// Command battery-buddy runs the battery discharge instrument on a Raspberry Pi
// and publishes run telemetry to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tinygo.org/x/drivers"

	"github.com/sweeney/battery-buddy/internal/battery"
	"github.com/sweeney/battery-buddy/internal/capture"
	"github.com/sweeney/battery-buddy/internal/controller"
	"github.com/sweeney/battery-buddy/internal/display"
	"github.com/sweeney/battery-buddy/internal/events"
	"github.com/sweeney/battery-buddy/internal/gpio"
	"github.com/sweeney/battery-buddy/internal/i2cbus"
	"github.com/sweeney/battery-buddy/internal/logic"
	"github.com/sweeney/battery-buddy/internal/mqtt"
	"github.com/sweeney/battery-buddy/internal/nvram"
	"github.com/sweeney/battery-buddy/internal/pwm"
	"github.com/sweeney/battery-buddy/internal/sensor"
	"github.com/sweeney/battery-buddy/internal/settings"
	"github.com/sweeney/battery-buddy/internal/status"
	"github.com/sweeney/battery-buddy/internal/store"
	"github.com/sweeney/battery-buddy/internal/web"
)

// Input sampling and control heartbeat rates.
const (
	samplePeriod    = time.Millisecond
	heartbeatPeriod = time.Second
)

func main() {
	configPath := flag.String("config", "/etc/battery-buddy.yaml", "Settings file")
	broker := flag.String("broker", "", "MQTT broker address (overrides settings)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides settings, \"off\" disables)")
	displayKind := flag.String("display", "", "Display kind: hd44780, serial or none (overrides settings)")
	statusEvery := flag.Duration("status-interval", 15*time.Minute, "Status heartbeat interval (0 to disable)")
	printConfig := flag.Bool("print-config", false, "Print the stored battery configuration and exit")
	writeSettings := flag.Bool("write-settings", false, "Write the effective settings to --config and exit")

	flag.Parse()

	s, err := settings.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if err := applyFlags(s, set, *broker, *httpAddr, *displayKind); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if *writeSettings {
		if err := s.Save(*configPath); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		fmt.Printf("wrote %s\n", *configPath)
		return
	}

	if err := run(s, *printConfig, *statusEvery); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyFlags overrides settings with the flags given on the command line.
func applyFlags(s *settings.Settings, set map[string]bool, broker, httpAddr, displayKind string) error {
	if set["broker"] {
		s.MQTT.Broker = broker
	}
	if set["http"] {
		if httpAddr == "off" {
			httpAddr = ""
		}
		s.HTTP.Addr = httpAddr
	}
	if set["display"] {
		s.Display.Kind = displayKind
	}
	return s.Validate()
}

func run(s *settings.Settings, printOnly bool, statusEvery time.Duration) error {
	bus, err := i2cbus.Open(s.I2C.Bus)
	if err != nil {
		return fmt.Errorf("open i2c: %w", err)
	}
	defer bus.Close()

	block, closeBlock, err := openBlock(s, bus)
	if err != nil {
		return err
	}
	defer closeBlock()
	cfgStore := store.New(block, s.Store.Offset)

	// Print config mode
	if printOnly {
		cfg, err := cfgStore.Load()
		printConfig(os.Stdout, cfg, err)
		return nil
	}

	wanted := []uint16{s.I2C.SensorAddress}
	if s.Display.Kind == settings.DisplayHD44780 {
		wanted = append(wanted, uint16(s.Display.Address))
	}
	if s.Store.Kind == settings.StoreEEPROM {
		wanted = append(wanted, s.I2C.EEPROMAddress)
	}
	if found := i2cbus.Present(bus, wanted...); len(found) != len(wanted) {
		log.Printf("i2c: expected devices %#x, found %#x", wanted, found)
	}

	if err := pwm.Open(); err != nil {
		return fmt.Errorf("init pwm: %w", err)
	}
	defer pwm.Close()

	reader, err := gpio.NewRealReader(s.GPIO.Chip, s.GPIO.Button, s.GPIO.EncoderA, s.GPIO.EncoderB)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	opAmp, err := gpio.NewRealSwitch(s.GPIO.Chip, s.GPIO.OpAmp)
	if err != nil {
		return fmt.Errorf("init op-amp switch: %w", err)
	}
	defer opAmp.Close()

	led, err := gpio.NewRealSwitch(s.GPIO.Chip, s.GPIO.LED)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer led.Close()

	lcd, err := openDisplay(s.Display, bus)
	if err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	if lcd != nil {
		defer lcd.Close()
	}

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(s.MQTT.Broker)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Broker:   s.MQTT.Broker,
		HTTPPort: s.HTTP.Addr,
		Display:  s.Display.Kind,
		Store:    s.Store.Kind,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if s.HTTP.Addr != "" {
		srv := web.New(s.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", s.HTTP.Addr)
	}

	reg := events.NewRegister()
	runner := controller.New(controller.Config{
		Hardware: controller.Hardware{
			Sensor:  sensor.NewINA219(bus, s.I2C.SensorAddress),
			Display: lcd,
			Load:    pwm.NewRPIOLoad(s.PWM.LoadPin),
			Speaker: pwm.NewSpeaker(s.PWM.SpeakerPin),
			OpAmp:   opAmp,
			LED:     led,
			Store:   cfgStore,
		},
		Poller:     events.NewPoller(reg),
		Publisher:  publisher,
		MQTTStatus: publisher,
		Tracker:    tracker,
		Limits:     logic.DefaultLimits,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sampleTicker := time.NewTicker(samplePeriod)
	defer sampleTicker.Stop()
	go capture.NewSampler(reader, reg).Run(ctx, sampleTicker.C)

	heartbeatTicker := time.NewTicker(heartbeatPeriod)
	defer heartbeatTicker.Stop()
	go capture.RunHeartbeat(ctx, heartbeatTicker.C, reg)

	var statusTick <-chan time.Time
	if statusEvery > 0 {
		statusTicker := time.NewTicker(statusEvery)
		defer statusTicker.Stop()
		statusTick = statusTicker.C
	}

	log.Printf("started: display=%s store=%s broker=%s http=%q status=%v",
		s.Display.Kind, s.Store.Kind, s.MQTT.Broker, s.HTTP.Addr, statusEvery)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctx, cancel, runner, publisher, publisher, tracker, time.Now, statusTick, sigCh)
}

// loopRunner is the control loop driven by runLoop.
type loopRunner interface {
	Run(ctx context.Context) error
}

// runLoop runs the controller until a signal arrives or it fails, publishing
// periodic status events and a final SHUTDOWN event.
func runLoop(ctx context.Context, cancel context.CancelFunc, runner loopRunner, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, statusTick <-chan time.Time, sig <-chan os.Signal) error {
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			cancel()
			if err := <-done; err != nil {
				log.Printf("controller stopped with error: %v", err)
			}

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case err := <-done:
			if err != nil {
				return fmt.Errorf("controller: %w", err)
			}
			return errors.New("controller stopped")

		case <-statusTick:
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				snap := tracker.Snapshot()
				log.Printf("heartbeat: state=%s runs_finished=%d sensor_errors=%d",
					snap.State, snap.RunsFinished, snap.SensorErrors)
				event.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

// openBlock opens the non-volatile storage selected in s.
func openBlock(s *settings.Settings, bus drivers.I2C) (nvram.Block, func() error, error) {
	if s.Store.Kind == settings.StoreFile {
		f, err := nvram.OpenFile(s.Store.Path, int(s.I2C.EEPROMSize))
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}
	return nvram.NewEEPROM(bus, s.I2C.EEPROMAddress, s.I2C.EEPROMSize), func() error { return nil }, nil
}

// openDisplay opens the panel selected in s, or returns nil for none.
func openDisplay(s settings.Display, bus drivers.I2C) (display.Display, error) {
	switch s.Kind {
	case settings.DisplayHD44780:
		d, err := display.NewHD44780(bus, s.Address)
		if err != nil {
			return nil, err
		}
		return d, nil
	case settings.DisplaySerial:
		d, err := display.OpenSerLCD(s.SerialPort, s.Baud)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, nil
}

// printConfig writes the stored configuration, or the defaults that will
// apply when it cannot be read.
func printConfig(w io.Writer, cfg battery.Configuration, err error) {
	if err != nil {
		fmt.Fprintf(w, "stored configuration unusable (%v), defaults apply\n", err)
		cfg = battery.Default()
	}
	fmt.Fprintf(w, "Mode: %s\n", cfg.Mode)
	fmt.Fprintf(w, "Cells: %d x %s\n", cfg.NumCells, cfg.CellType)
	fmt.Fprintf(w, "Current: %d mA\n", cfg.TargetCurrent())
	fmt.Fprintf(w, "Cutoff: %d mV\n", cfg.CutoffVoltage())
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
