// Package metrics exposes monitor activity as Prometheus metrics.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sweeney/irrigation-guard/internal/sensor"
)

const namespace = "irrigation_guard"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	readings  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	actions   *prometheus.CounterVec
	armed     *prometheus.GaugeVec
	values    *prometheus.GaugeVec
	scheduler prometheus.Gauge
	broker    prometheus.Gauge
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Successful sensor readings.",
		}, []string{"monitor"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_failures_total",
			Help:      "Failed sensor reads by kind.",
		}, []string{"monitor", "kind"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Safety actions triggered.",
		}, []string{"monitor"}),
		armed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "action_armed",
			Help:      "1 while a breach episode is active.",
		}, []string{"monitor"}),
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "value",
			Help:      "Last reading per monitor and quantity.",
		}, []string{"monitor", "quantity"}),
		scheduler: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_enabled",
			Help:      "1 while the program scheduler may start runs.",
		}),
		broker: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mqtt_connected",
			Help:      "1 while the MQTT connection is open.",
		}),
	}
	m.registry.MustRegister(m.readings, m.failures, m.actions, m.armed, m.values, m.scheduler, m.broker)
	m.scheduler.Set(1)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Reading counts a reading and records its values.
func (m *Metrics) Reading(monitor string, r sensor.Reading) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(monitor).Inc()
	for q, v := range r.Values {
		m.values.WithLabelValues(monitor, q).Set(v)
	}
}

// Failure counts a failed read.
func (m *Metrics) Failure(monitor, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(monitor, kind).Inc()
}

// Action counts a safety action.
func (m *Metrics) Action(monitor string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(monitor).Inc()
}

// Armed records whether a breach episode is active.
func (m *Metrics) Armed(monitor string, armed bool) {
	if m == nil {
		return
	}
	m.armed.WithLabelValues(monitor).Set(boolValue(armed))
}

// SetScheduler records the scheduler switch state.
func (m *Metrics) SetScheduler(enabled bool) {
	if m == nil {
		return
	}
	m.scheduler.Set(boolValue(enabled))
}

// SetMQTTConnected records the broker connection state.
func (m *Metrics) SetMQTTConnected(connected bool) {
	if m == nil {
		return
	}
	m.broker.Set(boolValue(connected))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
