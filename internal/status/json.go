package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Battery       BatteryJSON  `json:"battery"`
	Run           RunJSON      `json:"run"`
	LCD           []string     `json:"lcd"`
	SensorErrors  int          `json:"sensor_errors"`
	RunsFinished  int          `json:"runs_finished"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// BatteryJSON is the JSON representation of the battery configuration.
type BatteryJSON struct {
	Mode     string `json:"mode"`
	CellType string `json:"cell_type"`
	Cells    uint8  `json:"cells"`
	TargetMA uint16 `json:"target_ma"`
	CutoffMV uint16 `json:"cutoff_mv"`
}

// RunJSON is the JSON representation of the current discharge run.
type RunJSON struct {
	VoltageMV      uint16 `json:"voltage_mv"`
	CurrentMA      uint16 `json:"current_ma"`
	Level          uint16 `json:"level"`
	ChargeMAs      uint32 `json:"charge_mas"`
	CapacityMAh    uint32 `json:"capacity_mah"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Broker   string `json:"broker"`
	HTTPPort string `json:"http_port"`
	Display  string `json:"display"`
	Store    string `json:"store"`
}

func buildInner(snap Snapshot) StatusInner {
	lcd := snap.LCD
	if lcd == nil {
		lcd = []string{}
	}

	return StatusInner{
		State: snap.State.String(),
		Battery: BatteryJSON{
			Mode:     snap.Battery.Mode.String(),
			CellType: snap.Battery.CellType.String(),
			Cells:    snap.Battery.NumCells,
			TargetMA: snap.Battery.TargetCurrent(),
			CutoffMV: snap.Battery.CutoffVoltage(),
		},
		Run: RunJSON{
			VoltageMV:      snap.Run.Voltage,
			CurrentMA:      snap.Run.Current,
			Level:          snap.Level,
			ChargeMAs:      snap.Run.Charge,
			CapacityMAh:    snap.Run.Capacity(),
			ElapsedSeconds: int64(snap.Run.Elapsed().Seconds()),
		},
		LCD:           lcd,
		SensorErrors:  snap.SensorErrors,
		RunsFinished:  snap.RunsFinished,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Broker:   snap.Config.Broker,
			HTTPPort: snap.Config.HTTPPort,
			Display:  snap.Config.Display,
			Store:    snap.Config.Store,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
