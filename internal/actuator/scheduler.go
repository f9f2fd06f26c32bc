package actuator

import (
	"log"
	"sync"
)

// SchedulerSwitch is the in-process flag the program scheduler checks
// before starting a run. Changes are mirrored through the publish hook.
type SchedulerSwitch struct {
	mu      sync.RWMutex
	enabled bool
	publish func(enabled bool) error
}

// NewSchedulerSwitch returns an enabled switch. publish may be nil.
func NewSchedulerSwitch(publish func(enabled bool) error) *SchedulerSwitch {
	return &SchedulerSwitch{enabled: true, publish: publish}
}

// Enabled reports whether scheduling is allowed.
func (s *SchedulerSwitch) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// Disable turns scheduling off. Disabling twice publishes once.
func (s *SchedulerSwitch) Disable() error {
	return s.set(false)
}

// Enable turns scheduling back on.
func (s *SchedulerSwitch) Enable() error {
	return s.set(true)
}

func (s *SchedulerSwitch) set(enabled bool) error {
	s.mu.Lock()
	if s.enabled == enabled {
		s.mu.Unlock()
		return nil
	}
	s.enabled = enabled
	s.mu.Unlock()

	log.Printf("actuator: scheduler enabled=%v", enabled)
	if s.publish == nil {
		return nil
	}
	return s.publish(enabled)
}
