package sensor

import (
	"context"
	"errors"
	"time"

	"github.com/sweeney/irrigation-guard/internal/bus"
)

// TankAddr is the I2C address of the ultrasonic ranging board.
const TankAddr = 0x04

const tankDistanceReg = 0x02

// TankLevel reads the water level through an ultrasonic board mounted above the tank.
type TankLevel struct {
	bus  bus.Bus
	addr uint16

	// Bottom is the distance from the sensor to the tank bottom, Top to the
	// maximum water surface, both in centimetres.
	Bottom int
	Top    int
}

// NewTankLevel creates a tank sensor with the given geometry.
func NewTankLevel(b bus.Bus, bottom, top int) *TankLevel {
	return &TankLevel{bus: b, addr: TankAddr, Bottom: bottom, Top: top}
}

// Read measures the distance to the water surface and converts it to a level.
func (t *TankLevel) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	buf := make([]byte, 3)
	if err := t.bus.Tx(t.addr, []byte{tankDistanceReg}, buf); err != nil {
		return Reading{}, acquisitionError("read distance", err)
	}
	distance := int(buf[1]) | int(buf[2])<<8
	if distance == 0 {
		return Reading{}, acquisitionError("read distance", errors.New("no echo"))
	}
	return Reading{
		Timestamp: time.Now(),
		Values: map[string]float64{
			Level:    LevelFromDistance(distance, t.Bottom, t.Top),
			Distance: float64(distance),
		},
	}, nil
}

// LevelFromDistance converts a sensor-to-surface distance into the water height
// above the tank bottom, clamped to the usable range [0, bottom-top].
func LevelFromDistance(distance, bottom, top int) float64 {
	level := bottom - distance
	if level < 0 {
		return 0
	}
	if span := bottom - top; span > 0 && level > span {
		return float64(span)
	}
	return float64(level)
}
