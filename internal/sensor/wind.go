package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/irrigation-guard/internal/bus"
)

// PCF8583 event counter addresses.
const (
	WindAddr    = 0x50
	WindAltAddr = 0x51
)

const (
	pcfControl     = 0x00
	pcfCounterLow  = 0x01
	pcfCounterMid  = 0x02
	pcfCounterHigh = 0x03
	pcfEventMode   = 0x20
)

// WindSpeed counts anemometer pulses with a PCF8583 over a fixed gate window.
type WindSpeed struct {
	PulsesPerRotation float64
	MetersPerRotation float64
	Gate              time.Duration

	bus  bus.Bus
	addr uint16

	mu         sync.Mutex
	configured bool
}

// NewWindSpeed creates a wind sensor. alt selects the 0x51 address.
func NewWindSpeed(b bus.Bus, alt bool) *WindSpeed {
	addr := uint16(WindAddr)
	if alt {
		addr = WindAltAddr
	}
	return &WindSpeed{
		PulsesPerRotation: 2,
		MetersPerRotation: 1.492,
		Gate:              time.Second,
		bus:               b,
		addr:              addr,
	}
}

// Read resets the counter, waits one gate window and converts pulses to m/s.
func (w *WindSpeed) Read(ctx context.Context) (Reading, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.configured {
		if err := w.bus.Tx(w.addr, []byte{pcfControl, pcfEventMode}, nil); err != nil {
			return Reading{}, acquisitionError("set event counter mode", err)
		}
		w.configured = true
	}

	for _, reg := range []byte{pcfCounterLow, pcfCounterMid, pcfCounterHigh} {
		if err := w.bus.Tx(w.addr, []byte{reg, 0x00}, nil); err != nil {
			w.configured = false
			return Reading{}, acquisitionError("reset counter", err)
		}
	}

	if err := sleepCtx(ctx, w.Gate); err != nil {
		return Reading{}, err
	}

	buf := make([]byte, 4)
	if err := w.bus.Tx(w.addr, []byte{pcfControl}, buf); err != nil {
		return Reading{}, acquisitionError("read counter", err)
	}
	pulses, err := DecodeBCD(buf[1:4])
	if err != nil {
		return Reading{}, acquisitionError("decode counter", err)
	}

	return Reading{
		Timestamp: time.Now(),
		Values: map[string]float64{
			Wind:   w.speed(pulses),
			Pulses: float64(pulses),
		},
	}, nil
}

func (w *WindSpeed) speed(pulses int) float64 {
	if w.PulsesPerRotation <= 0 {
		return 0
	}
	gate := w.Gate.Seconds()
	if gate <= 0 {
		gate = 1
	}
	return float64(pulses) / w.PulsesPerRotation * w.MetersPerRotation / gate
}

// DecodeBCD decodes a little-endian packed BCD counter (two digits per byte).
func DecodeBCD(b []byte) (int, error) {
	n := 0
	mul := 1
	for _, v := range b {
		lo, hi := int(v&0x0F), int(v>>4)
		if lo > 9 || hi > 9 {
			return 0, fmt.Errorf("invalid bcd byte 0x%02x", v)
		}
		n += lo*mul + hi*mul*10
		mul *= 100
	}
	return n, nil
}
