package capture

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/battery-buddy/internal/events"
	"github.com/sweeney/battery-buddy/internal/gpio"
)

// errLogEvery limits read-error logging at the 1 kHz tick rate.
const errLogEvery = 1000

// Sampler runs Capture from a periodic tick, the software stand-in for the
// high-rate timer interrupt.
type Sampler struct {
	reader  gpio.Reader
	reg     *events.Register
	capture *Capture
	errs    int
}

// NewSampler creates a sampler reading from reader and raising into reg.
func NewSampler(reader gpio.Reader, reg *events.Register) *Sampler {
	return &Sampler{
		reader:  reader,
		reg:     reg,
		capture: New(),
	}
}

// Step performs one tick: read, decode, raise.
func (s *Sampler) Step() {
	sample, err := s.reader.Read()
	if err != nil {
		if s.errs%errLogEvery == 0 {
			log.Printf("capture: gpio read error (%d so far): %v", s.errs+1, err)
		}
		s.errs++
		return
	}
	s.reg.Raise(s.capture.Tick(sample))
}

// Run steps once per value received on tick until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.Step()
		}
	}
}

// RunHeartbeat raises Heartbeat once per value received on tick until ctx is
// cancelled. It is independent of the sampler so a stalled GPIO read never
// delays the control loop's heartbeat.
func RunHeartbeat(ctx context.Context, tick <-chan time.Time, reg *events.Register) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			reg.Raise(events.Heartbeat)
		}
	}
}
