// Package pulse decodes the single-wire temperature/humidity protocol from a
// pre-captured buffer of line levels.
// This package has NO hardware dependencies: acquisition lives in internal/line,
// so every decode path can be exercised with synthetic buffers.
package pulse

import (
	"fmt"
	"time"
)

// Protocol dimensions.
const (
	// DataBits is the number of bits in one transmission.
	DataBits = 40
	// MinSamples is the smallest buffer an acquisition pass should produce.
	MinSamples = 500
	// DefaultLongPulse is the high-run length (in samples) above which a bit
	// is a 1 when sampling at DefaultPeriod. It equals LongPulseFor(DefaultPeriod).
	DefaultLongPulse = 2
)

// DefaultPeriod is the capture sampling period (50kHz).
const DefaultPeriod = 20 * time.Microsecond

// Nominal high-pulse widths from the sensor timing diagram.
const (
	shortPulse = 27 * time.Microsecond
	longPulse  = 70 * time.Microsecond
)

// SampleBuffer is the output of one acquisition pass over the data line.
// Levels holds 0 (low) or 1 (high) per sample, in capture order.
// It must not be modified once captured.
type SampleBuffer struct {
	Levels     []byte
	CapturedAt time.Time
}

// Frame is the 40-bit payload split into its five bytes.
type Frame struct {
	HumidityInt  byte
	HumidityFrac byte
	TempInt      byte
	TempFrac     byte
	Checksum     byte
}

// Sum returns the expected checksum for the four data bytes.
func (f Frame) Sum() byte {
	return f.HumidityInt + f.HumidityFrac + f.TempInt + f.TempFrac
}

// Valid reports whether the checksum byte matches the data bytes.
func (f Frame) Valid() bool {
	return f.Sum() == f.Checksum
}

// Reading is a decoded, checksum-validated measurement.
type Reading struct {
	Temperature int
	Humidity    int
	Valid       bool
	Timestamp   time.Time
}

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	KindNoResponse ErrorKind = iota + 1
	KindTruncated
	KindChecksumMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoResponse:
		return "no_response"
	case KindTruncated:
		return "truncated"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	default:
		return "unknown"
	}
}

// DecodeError reports why a buffer did not produce a Reading.
// Bit is the index of the bit being decoded when the buffer ran out (-1 when not applicable).
type DecodeError struct {
	Kind ErrorKind
	Bit  int
}

func (e *DecodeError) Error() string {
	if e.Bit >= 0 {
		return fmt.Sprintf("pulse: %s at bit %d", e.Kind, e.Bit)
	}
	return "pulse: " + e.Kind.String()
}

// Is matches any DecodeError of the same kind, so callers can use
// errors.Is(err, pulse.ErrTruncated) regardless of the bit position.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}

// Sentinel decode errors.
var (
	ErrNoResponse       = &DecodeError{Kind: KindNoResponse, Bit: -1}
	ErrTruncated        = &DecodeError{Kind: KindTruncated, Bit: -1}
	ErrChecksumMismatch = &DecodeError{Kind: KindChecksumMismatch, Bit: -1}
)
