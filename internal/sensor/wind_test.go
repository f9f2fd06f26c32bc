package sensor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sweeney/irrigation-guard/internal/bus"
)

func TestWindSpeedRead(t *testing.T) {
	fb := bus.NewFakeBus()
	fb.Respond(WindAddr, 0x20, 0x10, 0x00, 0x00) // 10 pulses
	w := NewWindSpeed(fb, false)
	w.Gate = 0

	r, err := w.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v, _ := r.Value(Pulses); v != 10 {
		t.Errorf("expected 10 pulses, got %v", v)
	}
	v, _ := r.Value(Wind)
	if want := 10.0 / 2 * 1.492; math.Abs(v-want) > 1e-9 {
		t.Errorf("expected %v m/s, got %v", want, v)
	}
}

func TestWindSpeedRegisterSequence(t *testing.T) {
	fb := bus.NewFakeBus()
	fb.Respond(WindAddr, 0x20, 0, 0, 0)
	w := NewWindSpeed(fb, false)
	w.Gate = 0

	for i := 0; i < 2; i++ {
		if _, err := w.Read(context.Background()); err != nil {
			t.Fatalf("Read %d failed: %v", i, err)
		}
	}

	want := [][]byte{
		{0x00, 0x20},
		{0x01, 0x00}, {0x02, 0x00}, {0x03, 0x00}, {0x00},
		{0x01, 0x00}, {0x02, 0x00}, {0x03, 0x00}, {0x00},
	}
	got := fb.WritesTo(WindAddr)
	if len(got) != len(want) {
		t.Fatalf("expected %d writes, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if string(got[i]) != string(want[i]) {
			t.Errorf("write %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestWindSpeedAltAddress(t *testing.T) {
	fb := bus.NewFakeBus()
	fb.Respond(WindAltAddr, 0x20, 0x02, 0, 0)
	w := NewWindSpeed(fb, true)
	w.Gate = 0

	if _, err := w.Read(context.Background()); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(fb.WritesTo(WindAddr)) != 0 {
		t.Error("expected no traffic on the primary address")
	}
}

func TestWindSpeedGateHonoursContext(t *testing.T) {
	fb := bus.NewFakeBus()
	fb.Respond(WindAddr, 0x20, 0, 0, 0)
	w := NewWindSpeed(fb, false)
	w.Gate = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := w.Read(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestWindSpeedBusError(t *testing.T) {
	fb := bus.NewFakeBus()
	fb.TxError = errors.New("nack")
	w := NewWindSpeed(fb, false)
	w.Gate = 0
	if _, err := w.Read(context.Background()); !errors.Is(err, ErrAcquisition) {
		t.Errorf("expected acquisition fault, got %v", err)
	}
}

func TestWindSpeedInvalidCounter(t *testing.T) {
	fb := bus.NewFakeBus()
	fb.Respond(WindAddr, 0x20, 0x0A, 0, 0)
	w := NewWindSpeed(fb, false)
	w.Gate = 0
	if _, err := w.Read(context.Background()); !errors.Is(err, ErrAcquisition) {
		t.Errorf("expected acquisition fault, got %v", err)
	}
}

func TestDecodeBCD(t *testing.T) {
	cases := []struct {
		in   []byte
		want int
	}{
		{[]byte{0x00, 0x00, 0x00}, 0},
		{[]byte{0x07, 0x00, 0x00}, 7},
		{[]byte{0x34, 0x12, 0x00}, 1234},
		{[]byte{0x99, 0x99, 0x99}, 999999},
		{[]byte{0x01, 0x00, 0x01}, 10001},
	}
	for _, c := range cases {
		got, err := DecodeBCD(c.in)
		if err != nil {
			t.Errorf("DecodeBCD(%x): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("DecodeBCD(%x): expected %d, got %d", c.in, c.want, got)
		}
	}

	if _, err := DecodeBCD([]byte{0xA0}); err == nil {
		t.Error("expected error for invalid nibble")
	}
}
