package line

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/irrigation-guard/internal/pulse"
)

// CaptureConfig controls one acquisition pass on the probe's data line.
type CaptureConfig struct {
	Wake    time.Duration // drive high before the select pulse
	Select  time.Duration // drive low to select the sensor (18-25ms)
	Period  time.Duration // sampling period; 0 samples as fast as the line allows
	Samples int           // number of levels to capture
}

// DefaultCaptureConfig samples 500 levels at 50kHz after a 20ms select pulse.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Wake:    25 * time.Millisecond,
		Select:  20 * time.Millisecond,
		Period:  pulse.DefaultPeriod,
		Samples: pulse.MinSamples,
	}
}

// Capture performs the host side of the handshake and busy-samples the line.
// The select delays honour ctx; the sampling itself is bounded by cfg.Samples
// and never sleeps, since a scheduler sleep is far longer than a bit.
func Capture(ctx context.Context, l Line, cfg CaptureConfig) (pulse.SampleBuffer, error) {
	if cfg.Samples <= 0 {
		cfg.Samples = pulse.MinSamples
	}

	if err := l.SetOutput(true); err != nil {
		return pulse.SampleBuffer{}, fmt.Errorf("drive high: %w", err)
	}
	if err := wait(ctx, cfg.Wake); err != nil {
		return pulse.SampleBuffer{}, err
	}
	if err := l.SetOutput(false); err != nil {
		return pulse.SampleBuffer{}, fmt.Errorf("drive low: %w", err)
	}
	if err := wait(ctx, cfg.Select); err != nil {
		return pulse.SampleBuffer{}, err
	}
	if err := l.SetInput(); err != nil {
		return pulse.SampleBuffer{}, fmt.Errorf("release line: %w", err)
	}

	levels := make([]byte, cfg.Samples)
	start := time.Now()
	next := start
	for i := range levels {
		for cfg.Period > 0 && time.Now().Before(next) {
		}
		high, err := l.Read()
		if err != nil {
			return pulse.SampleBuffer{}, fmt.Errorf("sample %d: %w", i, err)
		}
		if high {
			levels[i] = 1
		}
		next = next.Add(cfg.Period)
	}

	return pulse.SampleBuffer{Levels: levels, CapturedAt: start}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
