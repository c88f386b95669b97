package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool

	seq uint64
}

// outbox holds messages published while the broker is unreachable.
//
// Messages with QoS > 0 (run and system events) are kept in order up to
// eventCap, dropping the oldest past that. QoS 0 telemetry is kept up to
// sampleCap; each time it fills, every other sample is discarded and only
// one in twice as many new samples is kept from then on. A run that
// outlasts the outage replays as a coarser curve that still starts at the
// beginning of the run.
//
// Not safe for concurrent use; caller must synchronize.
type outbox struct {
	events    []bufferedMsg
	samples   []bufferedMsg
	eventCap  int
	sampleCap int

	stride  int    // keep telemetry samples whose index is a multiple of stride
	sampleN uint64 // telemetry samples pushed since the last drain
	seq     uint64

	overflow bool // an event was dropped since the last drain
}

func newOutbox(eventCap, sampleCap int) *outbox {
	return &outbox{
		eventCap:  eventCap,
		sampleCap: sampleCap,
		stride:    1,
	}
}

func (o *outbox) push(msg bufferedMsg) {
	msg.seq = o.seq
	o.seq++

	if msg.qos > 0 {
		if len(o.events) == o.eventCap {
			if !o.overflow {
				log.Printf("mqtt: event buffer full (%d messages), dropping oldest", o.eventCap)
				o.overflow = true
			}
			o.events = o.events[1:]
		}
		o.events = append(o.events, msg)
		return
	}

	n := o.sampleN
	o.sampleN++
	if n%uint64(o.stride) != 0 {
		return
	}
	o.samples = append(o.samples, msg)

	if len(o.samples) >= o.sampleCap {
		kept := o.samples[:0]
		for i := 0; i < len(o.samples); i += 2 {
			kept = append(kept, o.samples[i])
		}
		o.samples = kept
		o.stride *= 2
		log.Printf("mqtt: telemetry buffer full, keeping 1 in %d samples", o.stride)
	}
}

// drainAll returns every buffered message in publish order and empties the
// outbox.
func (o *outbox) drainAll() []bufferedMsg {
	if o.len() == 0 {
		return nil
	}

	result := make([]bufferedMsg, 0, o.len())
	e, s := o.events, o.samples
	for len(e) > 0 || len(s) > 0 {
		if len(s) == 0 || (len(e) > 0 && e[0].seq < s[0].seq) {
			result = append(result, e[0])
			e = e[1:]
		} else {
			result = append(result, s[0])
			s = s[1:]
		}
	}

	o.events = nil
	o.samples = nil
	o.stride = 1
	o.sampleN = 0
	o.overflow = false
	return result
}

func (o *outbox) len() int {
	return len(o.events) + len(o.samples)
}
