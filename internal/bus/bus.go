// Package bus provides I2C access with hardware abstraction.
// The real implementation uses periph.io; the fake replays scripted responses.
package bus

import "errors"

// ErrHardwareUnavailable is returned when the host drivers or the bus cannot be opened.
var ErrHardwareUnavailable = errors.New("bus: hardware unavailable")

// DefaultBus is the I2C bus name on a Raspberry Pi (/dev/i2c-1).
const DefaultBus = "1"

// Bus performs I2C transactions.
type Bus interface {
	// Tx writes w then reads len(r) bytes from the device at addr.
	Tx(addr uint16, w, r []byte) error

	// Close releases the bus.
	Close() error
}
