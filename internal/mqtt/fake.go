package mqtt

// FakePublisher keeps everything handed to it in memory. Payloads are
// rendered with the same formatters as RealPublisher so tests see the wire
// JSON.
type FakePublisher struct {
	Events   []Event
	Payloads [][]byte

	Samples           []Sample
	TelemetryPayloads [][]byte

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError fails run events and telemetry; PublishSystemError fails
	// system events. Failed calls record nothing.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher returns an empty, disconnected fake.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) Publish(event Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	b, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, b)
	return nil
}

func (f *FakePublisher) PublishTelemetry(s Sample) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	b, err := FormatTelemetryPayload(s)
	if err != nil {
		return err
	}
	f.Samples = append(f.Samples, s)
	f.TelemetryPayloads = append(f.TelemetryPayloads, b)
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	b, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, b)
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Types lists the run event types in publish order.
func (f *FakePublisher) Types() []EventType {
	out := make([]EventType, 0, len(f.Events))
	for _, ev := range f.Events {
		out = append(out, ev.Type)
	}
	return out
}

// Levels lists the load level of every telemetry sample.
func (f *FakePublisher) Levels() []uint16 {
	out := make([]uint16, 0, len(f.Samples))
	for _, s := range f.Samples {
		out = append(out, s.Level)
	}
	return out
}

// Reset forgets everything, including injected errors.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
