package line

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/irrigation-guard/internal/pulse"
)

func fastCapture() CaptureConfig {
	return CaptureConfig{Samples: pulse.MinSamples}
}

func TestCaptureHandshakeSequence(t *testing.T) {
	f := NewFakeLine([]byte{1})

	if _, err := Capture(context.Background(), f, fastCapture()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ops := f.Recorded()
	want := []Op{OpHigh, OpLow, OpInput}
	if len(ops) != len(want) {
		t.Fatalf("expected ops %v, got %v", want, ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op %d: expected %s, got %s", i, want[i], ops[i])
		}
	}
}

func TestCaptureDecodesScriptedTransmission(t *testing.T) {
	f := NewFakeLine(nil)
	f.Script = func(int) []byte {
		return pulse.DefaultWaveform.Synthesize(pulse.NewFrame(23, 55))
	}

	buf, err := Capture(context.Background(), f, fastCapture())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buf.Levels) != pulse.MinSamples {
		t.Fatalf("expected %d samples, got %d", pulse.MinSamples, len(buf.Levels))
	}
	if buf.CapturedAt.IsZero() {
		t.Error("expected capture timestamp")
	}

	r, err := pulse.NewDecoder().Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Temperature != 23 || r.Humidity != 55 {
		t.Errorf("expected (23, 55), got (%d, %d)", r.Temperature, r.Humidity)
	}
}

func TestCaptureReadError(t *testing.T) {
	f := NewFakeLine([]byte{1})
	f.ReadError = errors.New("bus gone")

	_, err := Capture(context.Background(), f, fastCapture())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, f.ReadError) {
		t.Errorf("expected wrapped read error, got %v", err)
	}
}

func TestCaptureOutputError(t *testing.T) {
	f := NewFakeLine([]byte{1})
	f.OutputError = errors.New("busy")

	if _, err := Capture(context.Background(), f, fastCapture()); err == nil {
		t.Fatal("expected error")
	}
}

func TestCaptureCancelledDuringSelect(t *testing.T) {
	f := NewFakeLine([]byte{1})
	cfg := fastCapture()
	cfg.Select = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Capture(ctx, f, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("capture did not observe cancellation promptly")
	}
}

func TestCaptureRespectsPeriod(t *testing.T) {
	f := NewFakeLine([]byte{1})
	cfg := CaptureConfig{Samples: 100, Period: 100 * time.Microsecond}

	start := time.Now()
	if _, err := Capture(context.Background(), f, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 9*time.Millisecond {
		t.Errorf("expected sampling to take ~10ms, took %v", elapsed)
	}
}
