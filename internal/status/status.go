// Package status provides a thread-safe status tracker for the battery-buddy
// daemon. It is written by the control loop and read by HTTP handlers and
// MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/battery-buddy/internal/battery"
	"github.com/sweeney/battery-buddy/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Broker   string
	HTTPPort string
	Display  string
	Store    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Battery       battery.Configuration
	Run           logic.Status
	Level         uint16
	LCD           []string
	SensorErrors  int
	RunsFinished  int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update copies the control state. Called by the runner after every batch.
func (t *Tracker) Update(m logic.Machine) {
	t.mu.Lock()
	if m.State == logic.StateFinished && t.snap.State != logic.StateFinished {
		t.snap.RunsFinished++
	}
	t.snap.State = m.State
	t.snap.Battery = m.Config
	t.snap.Run = m.Status
	t.snap.Level = m.Level
	t.mu.Unlock()
}

// SetLCD records the text on the front panel.
func (t *Tracker) SetLCD(lines []string) {
	t.mu.Lock()
	t.snap.LCD = append([]string(nil), lines...)
	t.mu.Unlock()
}

// SensorError counts a failed sensor read.
func (t *Tracker) SensorError() {
	t.mu.Lock()
	t.snap.SensorErrors++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.LCD = append([]string(nil), t.snap.LCD...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
