package line

import (
	"errors"
	"sync"
)

// Op is a recorded call on a FakeLine.
type Op string

const (
	OpHigh  Op = "HIGH"
	OpLow   Op = "LOW"
	OpInput Op = "INPUT"
)

// FakeLine is a test double that records direction changes and returns scripted levels.
type FakeLine struct {
	mu sync.Mutex

	// Levels contains scripted levels returned by Read, one per call.
	// Once exhausted, the last level is returned repeatedly.
	Levels []byte

	// Script, if set, is called at every SetInput and replaces Levels.
	// It lets a test answer each acquisition with a fresh transmission.
	Script func(n int) []byte

	// Ops records SetOutput/SetInput calls in order.
	Ops []Op

	// ReadError, if set, will be returned by Read().
	ReadError error

	// OutputError, if set, will be returned by SetOutput().
	OutputError error

	// Closed tracks if Close was called.
	Closed bool

	index  int
	inputs int
}

// NewFakeLine creates a FakeLine with the given levels.
func NewFakeLine(levels []byte) *FakeLine {
	return &FakeLine{Levels: levels}
}

// SetOutput records the drive level.
func (f *FakeLine) SetOutput(high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OutputError != nil {
		return f.OutputError
	}
	if high {
		f.Ops = append(f.Ops, OpHigh)
	} else {
		f.Ops = append(f.Ops, OpLow)
	}
	return nil
}

// SetInput records the direction change and rewinds the scripted levels.
func (f *FakeLine) SetInput() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, OpInput)
	f.inputs++
	if f.Script != nil {
		f.Levels = f.Script(f.inputs)
	}
	f.index = 0
	return nil
}

// Read returns the next scripted level.
func (f *FakeLine) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Levels) == 0 {
		return false, errors.New("no levels configured")
	}
	v := f.Levels[f.index]
	if f.index < len(f.Levels)-1 {
		f.index++
	}
	return v != 0, nil
}

// SetLevels replaces the scripted levels and rewinds them.
func (f *FakeLine) SetLevels(levels []byte) {
	f.mu.Lock()
	f.Levels = levels
	f.index = 0
	f.mu.Unlock()
}

// Close marks the line as closed.
func (f *FakeLine) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Recorded returns a copy of the recorded operations.
func (f *FakeLine) Recorded() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Op(nil), f.Ops...)
}
