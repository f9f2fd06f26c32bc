//go:build linux

package line

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealLine drives one GPIO line through the Linux GPIO character device.
type RealLine struct {
	line   *gpiocdev.Line
	output bool
}

// Open requests a line as an input with pull-up.
// Failure to reach the chip or line is reported as ErrHardwareUnavailable.
func Open(chip string, offset int) (*RealLine, error) {
	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("%w: request %s line %d: %v", ErrHardwareUnavailable, chip, offset, err)
	}
	return &RealLine{line: l}, nil
}

// SetOutput switches the line to output (if needed) and drives it.
func (r *RealLine) SetOutput(high bool) error {
	v := levelValue(high)
	if !r.output {
		if err := r.line.Reconfigure(gpiocdev.AsOutput(v)); err != nil {
			return fmt.Errorf("reconfigure output: %w", err)
		}
		r.output = true
		return nil
	}
	if err := r.line.SetValue(v); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}

// SetInput switches the line to input with pull-up.
func (r *RealLine) SetInput() error {
	if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
		return fmt.Errorf("reconfigure input: %w", err)
	}
	r.output = false
	return nil
}

// Read returns the current level.
func (r *RealLine) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read value: %w", err)
	}
	return v != 0, nil
}

// Close returns the line to input with pull-up before releasing it, so the
// probe is left idle-high for the next request.
func (r *RealLine) Close() error {
	var errs []error
	if r.output {
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure input: %w", err))
		}
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close line: %w", err))
	}
	return errors.Join(errs...)
}

// RealOutputs drives the station relay lines.
type RealOutputs struct {
	lines     *gpiocdev.Lines
	offsets   []int
	activeLow bool
}

// OpenOutputs requests the relay lines as outputs in their inactive state.
func OpenOutputs(chip string, offsets []int, activeLow bool) (*RealOutputs, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.WithConsumer(Consumer)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	opts = append(opts, gpiocdev.AsOutput(make([]int, len(offsets))...))

	lines, err := gpiocdev.RequestLines(chip, offsets, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: request %s outputs %v: %v", ErrHardwareUnavailable, chip, offsets, err)
	}
	return &RealOutputs{lines: lines, offsets: offsets, activeLow: activeLow}, nil
}

// ClearAll drives every relay line inactive. It is safe to call repeatedly.
func (o *RealOutputs) ClearAll() error {
	if err := o.lines.SetValues(make([]int, len(o.offsets))); err != nil {
		return fmt.Errorf("clear outputs: %w", err)
	}
	return nil
}

// Close clears the outputs and releases them.
func (o *RealOutputs) Close() error {
	var errs []error
	if err := o.ClearAll(); err != nil {
		errs = append(errs, err)
	}
	if err := o.lines.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close outputs: %w", err))
	}
	return errors.Join(errs...)
}

func levelValue(high bool) int {
	if high {
		return 1
	}
	return 0
}
