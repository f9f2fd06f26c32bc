package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Ready         bool          `json:"ready"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Scheduler     SchedulerJSON `json:"scheduler"`
	Monitors      []MonitorJSON `json:"monitors"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// SchedulerJSON reports the scheduler switch.
type SchedulerJSON struct {
	Enabled bool `json:"enabled"`
}

// MonitorJSON is one monitor's status.
type MonitorJSON struct {
	Name                string       `json:"name"`
	Running             bool         `json:"running"`
	Enabled             bool         `json:"enabled"`
	IntervalSeconds     float64      `json:"interval_seconds"`
	LastReading         *ReadingJSON `json:"last_reading"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	ActionArmed         bool         `json:"action_armed"`
	Actions             int          `json:"actions"`
	LastError           string       `json:"last_error,omitempty"`
	Rule                *RuleJSON    `json:"rule,omitempty"`
}

// ReadingJSON is the JSON representation of a reading.
type ReadingJSON struct {
	Timestamp string             `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// RuleJSON is the JSON representation of a threshold rule.
type RuleJSON struct {
	Quantity  string  `json:"quantity"`
	Compare   string  `json:"compare"`
	Threshold float64 `json:"threshold"`
	Margin    float64 `json:"margin"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	ConfigPath  string `json:"config_path,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Ready:         snap.Ready(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Scheduler:     SchedulerJSON{Enabled: snap.SchedulerEnabled},
		Monitors:      make([]MonitorJSON, 0, len(snap.Monitors)),
		Config: ConfigJSON{
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			ConfigPath:  snap.Config.ConfigPath,
		},
	}

	for _, m := range snap.Monitors {
		mj := MonitorJSON{
			Name:                m.Name,
			Running:             m.State.Running,
			Enabled:             m.State.Enabled,
			IntervalSeconds:     m.Config.PollInterval.Seconds(),
			ConsecutiveFailures: m.State.ConsecutiveFailures,
			ActionArmed:         m.State.ActionArmed,
			Actions:             m.State.Actions,
			LastError:           m.State.LastError,
		}
		if r := m.State.LastReading; r != nil {
			mj.LastReading = &ReadingJSON{
				Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
				Values:    r.Values,
			}
		}
		if r := m.Config.Rule; r != nil {
			mj.Rule = &RuleJSON{
				Quantity:  r.Quantity,
				Compare:   string(r.Compare),
				Threshold: r.Threshold,
				Margin:    r.Margin,
			}
		}
		inner.Monitors = append(inner.Monitors, mj)
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
