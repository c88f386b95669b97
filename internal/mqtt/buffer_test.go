package mqtt

import (
	"testing"
)

func sample(i int) bufferedMsg {
	return bufferedMsg{topic: TopicTelemetry, payload: []byte{byte(i)}}
}

func event(i int) bufferedMsg {
	return bufferedMsg{topic: Topic, payload: []byte{byte(i)}, qos: 1}
}

func payloads(msgs []bufferedMsg) []byte {
	var out []byte
	for _, m := range msgs {
		out = append(out, m.payload[0])
	}
	return out
}

func TestOutboxEmptyDrain(t *testing.T) {
	o := newOutbox(10, 10)
	got := o.drainAll()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestOutboxEventsInOrder(t *testing.T) {
	o := newOutbox(10, 10)
	for i := 0; i < 5; i++ {
		o.push(event(i))
	}

	got := o.drainAll()
	if string(payloads(got)) != string([]byte{0, 1, 2, 3, 4}) {
		t.Errorf("expected events 0..4, got %v", payloads(got))
	}

	// Second drain should be empty
	if got2 := o.drainAll(); got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestOutboxEventOverflowDropsOldest(t *testing.T) {
	o := newOutbox(3, 10)
	for i := 0; i < 5; i++ {
		o.push(event(i))
	}

	got := payloads(o.drainAll())
	if string(got) != string([]byte{2, 3, 4}) {
		t.Errorf("expected the newest 3 events, got %v", got)
	}
}

func TestOutboxThinsTelemetry(t *testing.T) {
	o := newOutbox(10, 4)
	for i := 0; i < 10; i++ {
		o.push(sample(i))
	}

	// Full at 4 -> keep 0,2 and every 2nd; full again at 0,2,4,6 -> keep 0,4
	// and every 4th.
	got := payloads(o.drainAll())
	if string(got) != string([]byte{0, 4, 8}) {
		t.Errorf("expected samples 0,4,8, got %v", got)
	}
}

func TestOutboxTelemetryNeverEvictsEvents(t *testing.T) {
	o := newOutbox(2, 2)
	o.push(event(100))
	for i := 0; i < 20; i++ {
		o.push(sample(i))
	}
	o.push(event(101))

	got := o.drainAll()
	var events []byte
	for _, m := range got {
		if m.qos > 0 {
			events = append(events, m.payload[0])
		}
	}
	if string(events) != string([]byte{100, 101}) {
		t.Errorf("expected both events to survive, got %v", events)
	}
}

func TestOutboxDrainKeepsPublishOrder(t *testing.T) {
	o := newOutbox(10, 10)
	o.push(sample(0))
	o.push(event(1))
	o.push(sample(2))
	o.push(sample(3))
	o.push(event(4))

	got := payloads(o.drainAll())
	if string(got) != string([]byte{0, 1, 2, 3, 4}) {
		t.Errorf("expected publish order, got %v", got)
	}
}

func TestOutboxDrainResetsThinning(t *testing.T) {
	o := newOutbox(10, 4)
	for i := 0; i < 6; i++ {
		o.push(sample(i))
	}
	o.drainAll()

	for i := 10; i < 13; i++ {
		o.push(sample(i))
	}
	got := payloads(o.drainAll())
	if string(got) != string([]byte{10, 11, 12}) {
		t.Errorf("expected full resolution after drain, got %v", got)
	}
}

func TestOutboxLen(t *testing.T) {
	o := newOutbox(10, 10)
	if o.len() != 0 {
		t.Errorf("expected len 0, got %d", o.len())
	}

	o.push(event(0))
	o.push(sample(1))
	if o.len() != 2 {
		t.Errorf("expected len 2, got %d", o.len())
	}

	o.drainAll()
	if o.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", o.len())
	}
}

func TestOutboxPreservesFields(t *testing.T) {
	o := newOutbox(10, 10)
	o.push(bufferedMsg{
		topic:    TopicSystem,
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := o.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != TopicSystem {
		t.Errorf("topic: got %s, want %s", got[0].topic, TopicSystem)
	}
	if string(got[0].payload) != `{"test":true}` {
		t.Errorf("payload: got %s", got[0].payload)
	}
	if got[0].qos != 1 {
		t.Errorf("qos: got %d, want 1", got[0].qos)
	}
	if !got[0].retained {
		t.Error("retained: got false, want true")
	}
}
