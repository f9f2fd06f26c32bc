package bus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// RealBus is an I2C bus opened through periph.io.
type RealBus struct {
	bus i2c.BusCloser
}

// Open initializes the host drivers and opens the named bus.
func Open(name string) (*RealBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: host init: %v", ErrHardwareUnavailable, err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: open i2c %q: %v", ErrHardwareUnavailable, name, err)
	}
	return &RealBus{bus: b}, nil
}

// Tx performs a write-then-read transaction.
func (b *RealBus) Tx(addr uint16, w, r []byte) error {
	if err := b.bus.Tx(addr, w, r); err != nil {
		return fmt.Errorf("i2c tx 0x%02x: %w", addr, err)
	}
	return nil
}

// Close releases the bus.
func (b *RealBus) Close() error {
	if b.bus != nil {
		return b.bus.Close()
	}
	return nil
}
