package sensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/irrigation-guard/internal/line"
)

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func readPressure(t *testing.T, p *PressureSwitch) Reading {
	t.Helper()
	r, err := p.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return r
}

func TestPressureSwitchFaultGrowsWhileMasterOpen(t *testing.T) {
	pressure := line.NewFakeLine([]byte{1}) // active low: high means no pressure
	master := line.NewFakeLine([]byte{1})
	p := NewPressureSwitch(pressure, master, true)
	p.now = stepClock(4 * time.Second)

	want := []float64{0, 4, 8, 12}
	for i, w := range want {
		r := readPressure(t, p)
		if v, _ := r.Value(PressureFault); v != w {
			t.Errorf("read %d: expected fault %vs, got %v", i, w, v)
		}
		if v, _ := r.Value(Pressure); v != 0 {
			t.Errorf("read %d: expected no pressure, got %v", i, v)
		}
	}

	// Pressure arrives: the stretch ends.
	pressure.SetLevels([]byte{0})
	r := readPressure(t, p)
	if v, _ := r.Value(PressureFault); v != 0 {
		t.Errorf("expected fault reset, got %v", v)
	}
	if v, _ := r.Value(Pressure); v != 1 {
		t.Errorf("expected pressure, got %v", v)
	}

	// A new stretch starts from zero.
	pressure.SetLevels([]byte{1})
	if v, _ := readPressure(t, p).Value(PressureFault); v != 0 {
		t.Errorf("expected a fresh stretch, got %v", v)
	}
}

func TestPressureSwitchIgnoredWhileMasterClosed(t *testing.T) {
	master := line.NewFakeLine([]byte{0})
	p := NewPressureSwitch(line.NewFakeLine([]byte{1}), master, true)
	p.now = stepClock(30 * time.Second)

	for i := 0; i < 3; i++ {
		r := readPressure(t, p)
		if v, _ := r.Value(PressureFault); v != 0 {
			t.Fatalf("read %d: expected no fault with master closed, got %v", i, v)
		}
		if v, _ := r.Value(Master); v != 0 {
			t.Fatalf("read %d: expected master closed, got %v", i, v)
		}
	}

	// Closing the master mid-stretch also resets it.
	master.SetLevels([]byte{1})
	readPressure(t, p)
	readPressure(t, p)
	master.SetLevels([]byte{0})
	readPressure(t, p)
	master.SetLevels([]byte{1})
	if v, _ := readPressure(t, p).Value(PressureFault); v != 0 {
		t.Errorf("expected reset after master closed, got %v", v)
	}
}

func TestPressureSwitchPolarity(t *testing.T) {
	cases := []struct {
		level     byte
		activeLow bool
		want      float64
	}{
		{0, true, 1},
		{1, true, 0},
		{1, false, 1},
		{0, false, 0},
	}
	for _, c := range cases {
		p := NewPressureSwitch(line.NewFakeLine([]byte{c.level}), line.NewFakeLine([]byte{1}), c.activeLow)
		if v, _ := readPressure(t, p).Value(Pressure); v != c.want {
			t.Errorf("level=%d activeLow=%v: expected %v, got %v", c.level, c.activeLow, c.want, v)
		}
	}
}

func TestPressureSwitchReadError(t *testing.T) {
	master := line.NewFakeLine([]byte{1})
	master.ReadError = errors.New("gone")
	_, err := NewPressureSwitch(line.NewFakeLine([]byte{0}), master, true).Read(context.Background())
	if !errors.Is(err, ErrAcquisition) {
		t.Errorf("master: expected acquisition fault, got %v", err)
	}

	pressure := line.NewFakeLine([]byte{0})
	pressure.ReadError = errors.New("gone")
	_, err = NewPressureSwitch(pressure, line.NewFakeLine([]byte{1}), true).Read(context.Background())
	if !errors.Is(err, ErrAcquisition) {
		t.Errorf("pressure: expected acquisition fault, got %v", err)
	}
}
