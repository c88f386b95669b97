// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/battery-buddy/internal/battery"
	"github.com/sweeney/battery-buddy/internal/logic"
)

// Topic is the MQTT topic for discharge run events.
const Topic = "battery/buddy/events"

// TopicTelemetry is the MQTT topic for per-second discharge samples.
const TopicTelemetry = "battery/buddy/telemetry"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "battery/buddy/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a discharge run event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishTelemetry sends one discharge sample.
	PublishTelemetry(sample Sample) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// EventType classifies a state transition.
type EventType string

const (
	EventStarted  EventType = "DISCHARGE_STARTED"
	EventFinished EventType = "DISCHARGE_FINISHED"
	EventAborted  EventType = "DISCHARGE_ABORTED"
	EventState    EventType = "STATE_CHANGED"
)

// Classify names the transition from -> to.
func Classify(from, to logic.State) EventType {
	switch {
	case to == logic.StateDischarge:
		return EventStarted
	case to == logic.StateFinished:
		return EventFinished
	case from == logic.StateDischarge && to.Configuring():
		return EventAborted
	}
	return EventState
}

// Event is a control state transition.
type Event struct {
	Timestamp time.Time
	Type      EventType
	From      logic.State
	To        logic.State
	Config    battery.Configuration
	Status    logic.Status
}

// Sample is one discharge heartbeat.
type Sample struct {
	Timestamp time.Time
	Status    logic.Status
	Level     uint16
	Power     uint16 // mW
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "RECONNECTED"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Discharge DischargePayload `json:"discharge"`
}

// DischargePayload contains the run event details.
type DischargePayload struct {
	Timestamp      string        `json:"timestamp"`
	Event          string        `json:"event"`
	From           string        `json:"from"`
	To             string        `json:"to"`
	Battery        BatteryConfig `json:"battery"`
	CapacityMAh    uint32        `json:"capacity_mah"`
	ElapsedSeconds int64         `json:"elapsed_seconds"`
}

// BatteryConfig is the JSON view of a battery configuration.
type BatteryConfig struct {
	Mode     string `json:"mode"`
	CellType string `json:"cell_type"`
	Cells    uint8  `json:"cells"`
	TargetMA uint16 `json:"target_ma"`
	CutoffMV uint16 `json:"cutoff_mv"`
}

// NewBatteryConfig converts cfg for publishing.
func NewBatteryConfig(cfg battery.Configuration) BatteryConfig {
	return BatteryConfig{
		Mode:     cfg.Mode.String(),
		CellType: cfg.CellType.String(),
		Cells:    cfg.NumCells,
		TargetMA: cfg.TargetCurrent(),
		CutoffMV: cfg.CutoffVoltage(),
	}
}

// FormatPayload creates the JSON payload for a run event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Discharge: DischargePayload{
			Timestamp:      event.Timestamp.UTC().Format(time.RFC3339),
			Event:          string(event.Type),
			From:           event.From.String(),
			To:             event.To.String(),
			Battery:        NewBatteryConfig(event.Config),
			CapacityMAh:    event.Status.Capacity(),
			ElapsedSeconds: int64(event.Status.Elapsed().Seconds()),
		},
	}
	return json.Marshal(payload)
}

// TelemetryPayload is the MQTT payload for a discharge sample.
type TelemetryPayload struct {
	Telemetry TelemetryInner `json:"telemetry"`
}

// TelemetryInner contains the sample values.
type TelemetryInner struct {
	Timestamp      string `json:"timestamp"`
	VoltageMV      uint16 `json:"voltage_mv"`
	CurrentMA      uint16 `json:"current_ma"`
	TargetMA       uint16 `json:"target_ma"`
	CutoffMV       uint16 `json:"cutoff_mv"`
	Level          uint16 `json:"level"`
	PowerMW        uint16 `json:"power_mw"`
	ChargeMAs      uint32 `json:"charge_mas"`
	CapacityMAh    uint32 `json:"capacity_mah"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}

// FormatTelemetryPayload creates the JSON payload for a discharge sample.
func FormatTelemetryPayload(s Sample) ([]byte, error) {
	payload := TelemetryPayload{
		Telemetry: TelemetryInner{
			Timestamp:      s.Timestamp.UTC().Format(time.RFC3339),
			VoltageMV:      s.Status.Voltage,
			CurrentMA:      s.Status.Current,
			TargetMA:       s.Status.Target,
			CutoffMV:       s.Status.Cutoff,
			Level:          s.Level,
			PowerMW:        s.Power,
			ChargeMAs:      s.Status.Charge,
			CapacityMAh:    s.Status.Capacity(),
			ElapsedSeconds: int64(s.Status.Elapsed().Seconds()),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
