package sensor

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/irrigation-guard/internal/line"
	"github.com/sweeney/irrigation-guard/internal/pulse"
)

// DefaultMinInterval is the sensor's minimum spacing between measurements.
const DefaultMinInterval = time.Second

// AirProbe reads the single-wire temperature/humidity probe.
type AirProbe struct {
	// MinInterval is enforced between acquisitions; a Read that comes too
	// early waits (interruptibly) for the remainder.
	MinInterval time.Duration

	line    line.Line
	capture line.CaptureConfig
	decoder pulse.Decoder

	mu   sync.Mutex
	last time.Time
}

// NewAirProbe creates a probe on an exclusively owned line.
// The decode threshold is derived from the capture period.
func NewAirProbe(l line.Line, capture line.CaptureConfig) *AirProbe {
	return &AirProbe{
		MinInterval: DefaultMinInterval,
		line:        l,
		capture:     capture,
		decoder:     pulse.Decoder{LongPulse: pulse.LongPulseFor(capture.Period)},
	}
}

// Read performs one acquisition and decode.
// Decode failures are returned as *pulse.DecodeError; line failures wrap ErrAcquisition.
func (p *AirProbe) Read(ctx context.Context) (Reading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		if err := sleepCtx(ctx, p.MinInterval-time.Since(p.last)); err != nil {
			return Reading{}, err
		}
	}
	p.last = time.Now()

	buf, err := line.Capture(ctx, p.line, p.capture)
	if err != nil {
		if ctx.Err() != nil {
			return Reading{}, ctx.Err()
		}
		return Reading{}, acquisitionError("capture", err)
	}

	r, err := p.decoder.Decode(buf)
	if err != nil {
		return Reading{}, err
	}
	return Reading{
		Timestamp: r.Timestamp,
		Values: map[string]float64{
			Temperature: float64(r.Temperature),
			Humidity:    float64(r.Humidity),
		},
	}, nil
}
