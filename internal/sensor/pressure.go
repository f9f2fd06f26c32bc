package sensor

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/irrigation-guard/internal/line"
)

// PressureSwitch watches the pipe pressure switch while the master valve
// is open. It reports how long the valve has been open without pressure,
// so a rule on PressureFault becomes a grace period.
type PressureSwitch struct {
	// ActiveLow means the switch pulls the input low when pressure is present.
	ActiveLow bool

	pressure line.Line
	master   line.Line
	now      func() time.Time

	mu    sync.Mutex
	since time.Time // start of the current open-without-pressure stretch
}

// NewPressureSwitch creates a pressure sensor. master reads high while the
// master valve is open.
func NewPressureSwitch(pressure, master line.Line, activeLow bool) *PressureSwitch {
	return &PressureSwitch{
		ActiveLow: activeLow,
		pressure:  pressure,
		master:    master,
		now:       time.Now,
	}
}

// Read samples the master valve and the pressure switch once.
func (p *PressureSwitch) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	open, err := p.master.Read()
	if err != nil {
		return Reading{}, acquisitionError("read master valve", err)
	}
	high, err := p.pressure.Read()
	if err != nil {
		return Reading{}, acquisitionError("read pressure switch", err)
	}
	present := high != p.ActiveLow
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()
	fault := 0.0
	if open && !present {
		if p.since.IsZero() {
			p.since = now
		}
		fault = now.Sub(p.since).Seconds()
	} else {
		p.since = time.Time{}
	}

	return Reading{
		Timestamp: now,
		Values: map[string]float64{
			Pressure:      flag(present),
			Master:        flag(open),
			PressureFault: fault,
		},
	}, nil
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
