// Package sensor adapts each monitored device to a common Read contract.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Quantities carried in a Reading.
const (
	Temperature = "temperature" // degrees Celsius
	Humidity    = "humidity"    // percent relative humidity
	Level       = "level_cm"    // water height above the tank bottom
	Distance    = "distance_cm" // raw ultrasonic distance
	Wind        = "wind_ms"     // wind speed, metres per second
	Pulses      = "pulses"      // anemometer pulses in one gate window
	Power       = "power"       // 1 = mains present, 0 = lost
	Pressure    = "pressure"    // 1 = pipe pressure switch closed
	Master      = "master"      // 1 = master valve open
	// PressureFault is how long, in seconds, the master valve has been
	// open without pipe pressure. It is 0 otherwise.
	PressureFault = "pressure_fault_s"
)

// ErrAcquisition marks a bus or driver failure while reading a sensor.
// Callers treat it as "no data this poll", not as evidence of a fault.
var ErrAcquisition = errors.New("sensor: acquisition fault")

// Reading is one validated sample. It is never mutated after Read returns.
type Reading struct {
	Timestamp time.Time
	Values    map[string]float64
}

// Value returns one quantity from the reading.
func (r Reading) Value(quantity string) (float64, bool) {
	v, ok := r.Values[quantity]
	return v, ok
}

// Sensor produces readings for one monitor.
type Sensor interface {
	// Read acquires one reading. Blocking waits inside Read honour ctx.
	Read(ctx context.Context) (Reading, error)
}

func acquisitionError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrAcquisition, op, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
