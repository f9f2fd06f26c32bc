package sensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/irrigation-guard/internal/line"
	"github.com/sweeney/irrigation-guard/internal/pulse"
)

func instantCapture() line.CaptureConfig {
	return line.CaptureConfig{Samples: pulse.MinSamples}
}

func TestAirProbeRead(t *testing.T) {
	fl := line.NewFakeLine(nil)
	fl.Script = func(int) []byte {
		return pulse.DefaultWaveform.Synthesize(pulse.NewFrame(23, 55))
	}
	p := NewAirProbe(fl, instantCapture())
	p.MinInterval = 0

	r, err := p.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v, _ := r.Value(Temperature); v != 23 {
		t.Errorf("expected temperature 23, got %v", v)
	}
	if v, _ := r.Value(Humidity); v != 55 {
		t.Errorf("expected humidity 55, got %v", v)
	}
	if r.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestAirProbeChecksumMismatchIsDecodeError(t *testing.T) {
	f := pulse.NewFrame(23, 55)
	f.Checksum++
	fl := line.NewFakeLine(nil)
	fl.Script = func(int) []byte { return pulse.DefaultWaveform.Synthesize(f) }
	p := NewAirProbe(fl, instantCapture())
	p.MinInterval = 0

	_, err := p.Read(context.Background())
	if !errors.Is(err, pulse.ErrChecksumMismatch) {
		t.Errorf("expected checksum mismatch, got %v", err)
	}
	if errors.Is(err, ErrAcquisition) {
		t.Error("decode failure must not be reported as acquisition fault")
	}
}

func TestAirProbeLineFailure(t *testing.T) {
	fl := line.NewFakeLine([]byte{1})
	fl.ReadError = errors.New("line busy")
	p := NewAirProbe(fl, instantCapture())
	p.MinInterval = 0

	_, err := p.Read(context.Background())
	if !errors.Is(err, ErrAcquisition) {
		t.Errorf("expected acquisition fault, got %v", err)
	}
}

func TestAirProbeMinIntervalHonoursContext(t *testing.T) {
	fl := line.NewFakeLine(nil)
	fl.Script = func(int) []byte {
		return pulse.DefaultWaveform.Synthesize(pulse.NewFrame(20, 40))
	}
	p := NewAirProbe(fl, instantCapture())
	p.MinInterval = time.Hour

	if _, err := p.Read(context.Background()); err != nil {
		t.Fatalf("first Read failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := p.Read(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("second Read did not return promptly on cancel")
	}
}
