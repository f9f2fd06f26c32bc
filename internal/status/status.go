// Package status provides a thread-safe status tracker for the irrigation-guard daemon.
// It is read by the HTTP handlers and by the MQTT heartbeat.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/sweeney/irrigation-guard/internal/supervisor"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
	ConfigPath  string
}

// Monitor is the control surface a supervisor exposes to status consumers.
type Monitor interface {
	Name() string
	LastState() supervisor.State
	Config() supervisor.Config
	RequestImmediateWake()
}

// MonitorSnapshot is one monitor's state at snapshot time.
type MonitorSnapshot struct {
	Name   string
	State  supervisor.State
	Config supervisor.Config
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	StartTime        time.Time
	Now              time.Time
	MQTTConnected    bool
	SchedulerEnabled bool
	Network          *NetworkInfo
	Config           Config
	Monitors         []MonitorSnapshot
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether every enabled monitor has produced a reading.
func (s Snapshot) Ready() bool {
	for _, m := range s.Monitors {
		if m.State.Enabled && m.State.LastReading == nil {
			return false
		}
	}
	return true
}

// Tracker holds daemon-wide state behind an RWMutex and polls the
// registered monitors when a snapshot is taken.
type Tracker struct {
	mu               sync.RWMutex
	startTime        time.Time
	cfg              Config
	mqttConnected    bool
	schedulerEnabled bool
	network          *NetworkInfo
	monitors         map[string]Monitor
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		startTime:        startTime,
		cfg:              cfg,
		schedulerEnabled: true,
		monitors:         make(map[string]Monitor),
	}
}

// Register adds a monitor. A monitor with the same name is replaced.
func (t *Tracker) Register(m Monitor) {
	t.mu.Lock()
	t.monitors[m.Name()] = m
	t.mu.Unlock()
}

// Monitor looks up a registered monitor by name.
func (t *Tracker) Monitor(name string) (Monitor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.monitors[name]
	return m, ok
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.mqttConnected = connected
	t.mu.Unlock()
}

// SetScheduler sets the scheduler switch state.
func (t *Tracker) SetScheduler(enabled bool) {
	t.mu.Lock()
	t.schedulerEnabled = enabled
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state, monitors
// sorted by name. The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := Snapshot{
		StartTime:        t.startTime,
		MQTTConnected:    t.mqttConnected,
		SchedulerEnabled: t.schedulerEnabled,
		Network:          t.network,
		Config:           t.cfg,
	}
	monitors := make([]Monitor, 0, len(t.monitors))
	for _, m := range t.monitors {
		monitors = append(monitors, m)
	}
	t.mu.RUnlock()

	sort.Slice(monitors, func(i, j int) bool { return monitors[i].Name() < monitors[j].Name() })
	for _, m := range monitors {
		s.Monitors = append(s.Monitors, MonitorSnapshot{
			Name:   m.Name(),
			State:  m.LastState(),
			Config: m.Config(),
		})
	}
	s.Now = time.Now()
	return s
}
