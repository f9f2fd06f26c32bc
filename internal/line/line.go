// Package line provides single GPIO line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package line

import "errors"

// ErrHardwareUnavailable is returned when the GPIO chip or line cannot be opened.
// Callers treat it as a construction-time capability probe failure.
var ErrHardwareUnavailable = errors.New("line: hardware unavailable")

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// Consumer labels the lines this process requests.
const Consumer = "irrigation-guard"

// Line is a single digital line that can be switched between output and input.
type Line interface {
	// SetOutput makes the line an output and drives it to the given level.
	SetOutput(high bool) error

	// SetInput makes the line an input with the pull-up enabled.
	SetInput() error

	// Read samples the current level (true = high).
	Read() (bool, error)

	// Close releases the line.
	Close() error
}

// Pin defaults (BCM numbering)
const (
	DefaultPinAir      = 10 // temperature/humidity probe data line
	DefaultPinPressure = 12 // pipe pressure switch
	DefaultPinPower    = 23 // UPS power-good input
)
