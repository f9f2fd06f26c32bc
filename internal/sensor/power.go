package sensor

import (
	"context"
	"time"

	"github.com/sweeney/irrigation-guard/internal/line"
)

// PowerLine reads the UPS power-good input.
type PowerLine struct {
	// ActiveLow means the input is pulled low while mains power is present.
	ActiveLow bool

	line line.Line
}

// NewPowerLine creates a power sensor on an input line.
func NewPowerLine(l line.Line, activeLow bool) *PowerLine {
	return &PowerLine{line: l, ActiveLow: activeLow}
}

// Read samples the input once.
func (p *PowerLine) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	high, err := p.line.Read()
	if err != nil {
		return Reading{}, acquisitionError("read power input", err)
	}
	present := high != p.ActiveLow
	v := 0.0
	if present {
		v = 1
	}
	return Reading{
		Timestamp: time.Now(),
		Values:    map[string]float64{Power: v},
	}, nil
}
