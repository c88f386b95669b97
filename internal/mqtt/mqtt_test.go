package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/battery-buddy/internal/battery"
	"github.com/sweeney/battery-buddy/internal/logic"
)

var nimh4 = battery.Configuration{
	Mode:     battery.FullDischarge,
	CellType: battery.NiMH,
	NumCells: 4,
	Current:  battery.Current100mA,
}

func TestClassify(t *testing.T) {
	tests := []struct {
		from, to logic.State
		want     EventType
	}{
		{logic.StateWaitBattery, logic.StateDischarge, EventStarted},
		{logic.StateDischarge, logic.StateFinished, EventFinished},
		{logic.StateDischarge, logic.StateConfigSetMode, EventAborted},
		{logic.StateInit, logic.StateConfigSetMode, EventState},
		{logic.StateConfigSetCurrent, logic.StateWaitBattery, EventState},
	}
	for _, tt := range tests {
		if got := Classify(tt.from, tt.to); got != tt.want {
			t.Errorf("%v -> %v: expected %s, got %s", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	event := Event{
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Type:      EventFinished,
		From:      logic.StateDischarge,
		To:        logic.StateFinished,
		Config:    nimh4,
		Status:    logic.Status{Charge: 7200 * 3600, Hours: 2, Minutes: 0, Seconds: 5},
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"discharge":{"timestamp":"2026-03-01T09:00:00Z","event":"DISCHARGE_FINISHED",` +
		`"from":"DISCHARGE","to":"FINISHED",` +
		`"battery":{"mode":"FULL_DISCHARGE","cell_type":"NIMH","cells":4,"target_ma":100,"cutoff_mv":3600},` +
		`"capacity_mah":7200,"elapsed_seconds":7205}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := Event{
		Timestamp: time.Date(2026, 3, 1, 11, 0, 0, 0, loc),
		Type:      EventStarted,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Discharge.Timestamp != "2026-03-01T09:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Discharge.Timestamp)
	}
}

func TestFormatTelemetryPayload(t *testing.T) {
	s := Sample{
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Status: logic.Status{
			Target: 500, Cutoff: 3600, Charge: 36000,
			Minutes: 1, Seconds: 12,
			Voltage: 4987, Current: 499,
		},
		Level: 457,
		Power: 2488,
	}

	payload, err := FormatTelemetryPayload(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"telemetry":{"timestamp":"2026-03-01T09:00:00Z","voltage_mv":4987,"current_ma":499,` +
		`"target_ma":500,"cutoff_mv":3600,"level":457,"power_mw":2488,"charge_mas":36000,"capacity_mah":10,"elapsed_seconds":72}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	f.Publish(Event{Type: EventStarted, To: logic.StateDischarge})
	f.PublishTelemetry(Sample{Level: 3})
	f.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true})

	if len(f.Events) != 1 || f.Events[0].Type != EventStarted {
		t.Errorf("unexpected events: %+v", f.Events)
	}
	if len(f.Payloads) != 1 {
		t.Errorf("expected 1 payload, got %d", len(f.Payloads))
	}
	if len(f.Samples) != 1 || f.Samples[0].Level != 3 {
		t.Errorf("unexpected samples: %+v", f.Samples)
	}
	if len(f.SystemEvents) != 1 || !f.SystemEvents[0].Retained {
		t.Errorf("unexpected system events: %+v", f.SystemEvents)
	}
	if len(f.TelemetryPayloads) != 1 {
		t.Errorf("expected 1 telemetry payload, got %d", len(f.TelemetryPayloads))
	}
	if got := f.Types(); len(got) != 1 || got[0] != EventStarted {
		t.Errorf("Types: got %v", got)
	}
	if got := f.Levels(); len(got) != 1 || got[0] != 3 {
		t.Errorf("Levels: got %v", got)
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(Event{}); err == nil {
		t.Error("expected Publish error")
	}
	if err := f.PublishTelemetry(Sample{}); err == nil {
		t.Error("expected PublishTelemetry error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected PublishSystem error")
	}
	if len(f.Events) != 0 || len(f.Samples) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(Event{})
	f.Close()
	f.Connected = true
	f.Reset()

	if len(f.Events) != 0 || f.Closed || f.Connected {
		t.Errorf("expected clean fake after Reset, got %+v", f)
	}
}
