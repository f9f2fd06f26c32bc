package mqtt

import (
	"context"
	"sync"

	"github.com/sweeney/irrigation-guard/internal/sensor"
)

// PublishedReading is a reading recorded by FakePublisher.
type PublishedReading struct {
	Monitor string
	Reading sensor.Reading
}

// FakePublisher records published messages for test assertions.
// It is safe for concurrent use, since supervisors publish from their own goroutines.
type FakePublisher struct {
	mu sync.Mutex

	// Readings contains all readings that were published.
	Readings []PublishedReading

	// Notifications contains all notifications that were published.
	Notifications []Notification

	// Scheduler records every published scheduler state.
	Scheduler []bool

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by every Publish method.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishReading records the reading unless ctx is already done.
func (f *FakePublisher) PublishReading(ctx context.Context, monitor string, r sensor.Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Readings = append(f.Readings, PublishedReading{Monitor: monitor, Reading: r})
	return nil
}

// PublishNotification records the notification.
func (f *FakePublisher) PublishNotification(n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Notifications = append(f.Notifications, n)
	return nil
}

// PublishScheduler records the scheduler state.
func (f *FakePublisher) PublishScheduler(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Scheduler = append(f.Scheduler, enabled)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Messages returns a copy of the recorded notification texts.
func (f *FakePublisher) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Notifications))
	for i, n := range f.Notifications {
		out[i] = n.Message
	}
	return out
}

// PublishedReadings returns a copy of the recorded readings.
func (f *FakePublisher) PublishedReadings() []PublishedReading {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PublishedReading(nil), f.Readings...)
}

// SchedulerStates returns a copy of the recorded scheduler states.
func (f *FakePublisher) SchedulerStates() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.Scheduler...)
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Readings = nil
	f.Notifications = nil
	f.Scheduler = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.Connected = false
}
