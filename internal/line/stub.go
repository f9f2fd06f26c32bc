//go:build !linux

package line

import "fmt"

// RealLine is not available on non-Linux platforms.
type RealLine struct{}

// Open returns ErrHardwareUnavailable on non-Linux platforms.
func Open(chip string, offset int) (*RealLine, error) {
	return nil, fmt.Errorf("%w: gpio requires linux", ErrHardwareUnavailable)
}

// SetOutput is not implemented on non-Linux platforms.
func (r *RealLine) SetOutput(high bool) error { return ErrHardwareUnavailable }

// SetInput is not implemented on non-Linux platforms.
func (r *RealLine) SetInput() error { return ErrHardwareUnavailable }

// Read is not implemented on non-Linux platforms.
func (r *RealLine) Read() (bool, error) { return false, ErrHardwareUnavailable }

// Close is a no-op on non-Linux platforms.
func (r *RealLine) Close() error { return nil }

// RealOutputs is not available on non-Linux platforms.
type RealOutputs struct{}

// OpenOutputs returns ErrHardwareUnavailable on non-Linux platforms.
func OpenOutputs(chip string, offsets []int, activeLow bool) (*RealOutputs, error) {
	return nil, fmt.Errorf("%w: gpio requires linux", ErrHardwareUnavailable)
}

// ClearAll is not implemented on non-Linux platforms.
func (o *RealOutputs) ClearAll() error { return ErrHardwareUnavailable }

// Close is a no-op on non-Linux platforms.
func (o *RealOutputs) Close() error { return nil }
