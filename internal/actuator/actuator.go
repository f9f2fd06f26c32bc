// Package actuator performs the safety reactions shared by every monitor.
package actuator

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sweeney/irrigation-guard/internal/policy"
)

// Actuator is the safety capability handed to supervisors.
// Implementations must be safe for concurrent use.
type Actuator interface {
	// HaltAllOutputs turns every station output off.
	HaltAllOutputs() error
	// DisableScheduling stops the scheduler from starting new runs.
	DisableScheduling() error
	// Notify delivers a message to the operator.
	Notify(msg string) error
}

// Outputs is the station output bank. line.RealOutputs satisfies it.
type Outputs interface {
	ClearAll() error
}

// Notifier delivers operator messages.
type Notifier interface {
	Notify(msg string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string) error

// Notify calls f(msg).
func (f NotifierFunc) Notify(msg string) error { return f(msg) }

// Safety composes the outputs, scheduler switch and notifier behind one
// mutex so reactions from different monitors never interleave.
// Any component may be nil; the corresponding call is then a no-op.
type Safety struct {
	mu        sync.Mutex
	outputs   Outputs
	scheduler *SchedulerSwitch
	notifier  Notifier
}

// NewSafety creates the shared actuator.
func NewSafety(outputs Outputs, scheduler *SchedulerSwitch, notifier Notifier) *Safety {
	return &Safety{outputs: outputs, scheduler: scheduler, notifier: notifier}
}

// HaltAllOutputs clears every station output.
func (s *Safety) HaltAllOutputs() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Printf("actuator: halting all outputs")
	if s.outputs == nil {
		return nil
	}
	if err := s.outputs.ClearAll(); err != nil {
		return fmt.Errorf("halt outputs: %w", err)
	}
	return nil
}

// DisableScheduling turns the scheduler switch off.
func (s *Safety) DisableScheduling() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler == nil {
		return nil
	}
	if err := s.scheduler.Disable(); err != nil {
		return fmt.Errorf("disable scheduling: %w", err)
	}
	return nil
}

// Notify sends msg through the notifier, logging it either way.
func (s *Safety) Notify(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Printf("actuator: notify: %s", msg)
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.Notify(msg); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Apply runs every reaction an action asks for, in the order scheduler,
// outputs, notification. All reactions are attempted; failures are joined.
func Apply(a Actuator, act policy.Action) error {
	var errs []error
	if act.DisableScheduler {
		if err := a.DisableScheduling(); err != nil {
			errs = append(errs, err)
		}
	}
	if act.Halt {
		if err := a.HaltAllOutputs(); err != nil {
			errs = append(errs, err)
		}
	}
	if act.Notify {
		if err := a.Notify(act.Message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
