// Package mqtt publishes readings, operator notifications and lifecycle
// events, with an abstraction for testing.
package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sweeney/irrigation-guard/internal/sensor"
)

// Topics.
const (
	TopicPrefix    = "irrigation/guard"
	TopicNotify    = TopicPrefix + "/notify"
	TopicSystem    = TopicPrefix + "/system"
	TopicScheduler = TopicPrefix + "/scheduler"
)

// ReadingTopic returns the topic carrying one monitor's readings.
func ReadingTopic(monitor string) string {
	return TopicPrefix + "/" + monitor + "/reading"
}

// Publisher publishes to MQTT. Publishing errors must not crash the process.
type Publisher interface {
	// PublishReading sends one monitor reading.
	PublishReading(ctx context.Context, monitor string, r sensor.Reading) error

	// PublishNotification sends an operator notification.
	PublishNotification(n Notification) error

	// PublishScheduler sends the retained scheduler switch state.
	PublishScheduler(enabled bool) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Notification is a message for the operator.
type Notification struct {
	Timestamp time.Time
	Message   string
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// ReadingPayload is the JSON body of a reading message.
type ReadingPayload struct {
	Reading ReadingInner `json:"reading"`
}

// ReadingInner contains the reading details.
type ReadingInner struct {
	Monitor   string             `json:"monitor"`
	Timestamp string             `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// FormatReadingPayload creates the JSON payload for a reading.
func FormatReadingPayload(monitor string, r sensor.Reading) ([]byte, error) {
	return json.Marshal(ReadingPayload{Reading: ReadingInner{
		Monitor:   monitor,
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
		Values:    r.Values,
	}})
}

// NotificationPayload is the JSON body of a notification message.
type NotificationPayload struct {
	Notification NotificationInner `json:"notification"`
}

// NotificationInner contains the notification details.
type NotificationInner struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// FormatNotificationPayload creates the JSON payload for a notification.
func FormatNotificationPayload(n Notification) ([]byte, error) {
	return json.Marshal(NotificationPayload{Notification: NotificationInner{
		Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
		Message:   n.Message,
	}})
}

// SchedulerPayload is the JSON body of the scheduler state message.
type SchedulerPayload struct {
	Scheduler SchedulerInner `json:"scheduler"`
}

// SchedulerInner contains the scheduler state.
type SchedulerInner struct {
	Timestamp string `json:"timestamp"`
	Enabled   bool   `json:"enabled"`
}

// FormatSchedulerPayload creates the JSON payload for the scheduler state.
func FormatSchedulerPayload(enabled bool, at time.Time) ([]byte, error) {
	return json.Marshal(SchedulerPayload{Scheduler: SchedulerInner{
		Timestamp: at.UTC().Format(time.RFC3339),
		Enabled:   enabled,
	}})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
