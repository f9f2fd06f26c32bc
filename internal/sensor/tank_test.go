package sensor

import (
	"context"
	"errors"
	"testing"

	"github.com/sweeney/irrigation-guard/internal/bus"
)

func TestTankLevelRead(t *testing.T) {
	fb := bus.NewFakeBus()
	fb.Respond(TankAddr, 0x00, 20, 0x00)
	tl := NewTankLevel(fb, 33, 2)

	r, err := tl.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v, _ := r.Value(Level); v != 13 {
		t.Errorf("expected level 13, got %v", v)
	}
	if v, _ := r.Value(Distance); v != 20 {
		t.Errorf("expected distance 20, got %v", v)
	}

	w := fb.WritesTo(TankAddr)
	if len(w) != 1 || len(w[0]) != 1 || w[0][0] != 0x02 {
		t.Errorf("expected register pointer 0x02 write, got %v", w)
	}
}

func TestTankLevelDistanceHighByte(t *testing.T) {
	fb := bus.NewFakeBus()
	fb.Respond(TankAddr, 0x00, 0x2C, 0x01) // 300 cm
	tl := NewTankLevel(fb, 400, 10)

	r, err := tl.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v, _ := r.Value(Distance); v != 300 {
		t.Errorf("expected distance 300, got %v", v)
	}
	if v, _ := r.Value(Level); v != 100 {
		t.Errorf("expected level 100, got %v", v)
	}
}

func TestTankLevelNoEcho(t *testing.T) {
	fb := bus.NewFakeBus()
	fb.Respond(TankAddr, 0, 0, 0)
	_, err := NewTankLevel(fb, 33, 2).Read(context.Background())
	if !errors.Is(err, ErrAcquisition) {
		t.Errorf("expected acquisition fault, got %v", err)
	}
}

func TestTankLevelBusError(t *testing.T) {
	fb := bus.NewFakeBus()
	fb.TxError = errors.New("nack")
	_, err := NewTankLevel(fb, 33, 2).Read(context.Background())
	if !errors.Is(err, ErrAcquisition) {
		t.Errorf("expected acquisition fault, got %v", err)
	}
}

func TestLevelFromDistance(t *testing.T) {
	cases := []struct {
		distance, bottom, top int
		want                  float64
	}{
		{33, 33, 2, 0},
		{40, 33, 2, 0},
		{2, 33, 2, 31},
		{1, 33, 2, 31},
		{27, 33, 2, 6},
	}
	for _, c := range cases {
		if got := LevelFromDistance(c.distance, c.bottom, c.top); got != c.want {
			t.Errorf("LevelFromDistance(%d, %d, %d): expected %v, got %v",
				c.distance, c.bottom, c.top, c.want, got)
		}
	}
}
