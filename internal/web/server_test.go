package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sweeney/irrigation-guard/internal/actuator"
	"github.com/sweeney/irrigation-guard/internal/sensor"
	"github.com/sweeney/irrigation-guard/internal/status"
	"github.com/sweeney/irrigation-guard/internal/supervisor"
)

type fakeMonitor struct {
	name  string
	state supervisor.State
	cfg   supervisor.Config
	wakes atomic.Int32
}

func (f *fakeMonitor) Name() string { return f.name }
func (f *fakeMonitor) LastState() supervisor.State { return f.state }
func (f *fakeMonitor) Config() supervisor.Config { return f.cfg }
func (f *fakeMonitor) RequestImmediateWake() { f.wakes.Add(1) }

type failingScheduler struct{}

func (failingScheduler) Enable() error { return errors.New("broker down") }

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPPort:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr, opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func tankMonitor(reading bool) *fakeMonitor {
	m := &fakeMonitor{
		name: "tank",
		cfg:  supervisor.Config{Enabled: true, PollInterval: 10 * time.Second},
		state: supervisor.State{
			Running: true,
			Enabled: true,
		},
	}
	if reading {
		m.state.LastReading = &sensor.Reading{
			Timestamp: time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC),
			Values:    map[string]float64{sensor.Level: 4, sensor.Distance: 29},
		}
		m.state.ActionArmed = true
		m.state.Actions = 1
	}
	return m
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, Options{})
	tr.Register(tankMonitor(true))
	tr.SetMQTTConnected(true)
	tr.SetScheduler(false)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	sj := getJSON(t, ts.URL+"/index.json")
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q", sj.Status.MQTT.Broker)
	}
	if sj.Status.Scheduler.Enabled {
		t.Error("expected scheduler disabled")
	}
	if len(sj.Status.Monitors) != 1 {
		t.Fatalf("expected 1 monitor, got %d", len(sj.Status.Monitors))
	}
	m := sj.Status.Monitors[0]
	if m.Name != "tank" || !m.ActionArmed || m.Actions != 1 {
		t.Errorf("unexpected monitor: %+v", m)
	}
	if m.LastReading == nil || m.LastReading.Values[sensor.Level] != 4 {
		t.Errorf("expected level 4, got %+v", m.LastReading)
	}
}

func TestJSONNotReadyBeforeFirstReading(t *testing.T) {
	ts, tr := newTestServer(t, Options{})
	tr.Register(tankMonitor(false))

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Ready {
		t.Error("expected Ready=false before first reading")
	}
	if sj.Status.Monitors[0].LastReading != nil {
		t.Error("expected no reading")
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t, Options{})
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, Options{})
	tr.Register(tankMonitor(true))

	for _, path := range []string{"/", "/index.html"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Errorf("%s: status %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: Content-Type %q, want text/html", path, ct)
		}
		if !strings.Contains(string(body), `id="monitor-tank"`) {
			t.Errorf("%s: expected tank row", path)
		}
		if !strings.Contains(string(body), "level_cm=4") {
			t.Errorf("%s: expected formatted reading", path)
		}
	}
}

func TestHTMLNoMonitors(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "no monitors running") {
		t.Error("expected empty-table message")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestWakeMonitor(t *testing.T) {
	ts, tr := newTestServer(t, Options{})
	m := tankMonitor(false)
	tr.Register(m)

	resp, err := http.Post(ts.URL+"/monitors/tank/wake", "", nil)
	if err != nil {
		t.Fatalf("POST wake: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status: got %d, want 202", resp.StatusCode)
	}
	if got := m.wakes.Load(); got != 1 {
		t.Errorf("expected 1 wake, got %d", got)
	}

	resp, err = http.Post(ts.URL+"/monitors/wind/wake", "", nil)
	if err != nil {
		t.Fatalf("POST wake: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown monitor: got %d, want 404", resp.StatusCode)
	}
}

func TestWakeRequiresPost(t *testing.T) {
	ts, tr := newTestServer(t, Options{})
	m := tankMonitor(false)
	tr.Register(m)

	resp, err := http.Get(ts.URL + "/monitors/tank/wake")
	if err != nil {
		t.Fatalf("GET wake: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusAccepted {
		t.Error("GET must not wake the monitor")
	}
	if m.wakes.Load() != 0 {
		t.Error("unexpected wake")
	}
}

func TestSchedulerEnable(t *testing.T) {
	var published []bool
	sw := actuator.NewSchedulerSwitch(func(enabled bool) error {
		published = append(published, enabled)
		return nil
	})
	sw.Disable()

	ts, _ := newTestServer(t, Options{Scheduler: sw})
	resp, err := http.Post(ts.URL+"/scheduler/enable", "", nil)
	if err != nil {
		t.Fatalf("POST enable: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if !sw.Enabled() {
		t.Error("expected scheduler enabled")
	}
	if len(published) != 2 || published[1] != true {
		t.Errorf("expected disable then enable published, got %v", published)
	}
}

func TestSchedulerEnableFailure(t *testing.T) {
	ts, _ := newTestServer(t, Options{Scheduler: failingScheduler{}})
	resp, err := http.Post(ts.URL+"/scheduler/enable", "", nil)
	if err != nil {
		t.Fatalf("POST enable: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", resp.StatusCode)
	}
}

func TestSchedulerEnableNotMounted(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	resp, err := http.Post(ts.URL+"/scheduler/enable", "", nil)
	if err != nil {
		t.Fatalf("POST enable: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Error("expected enable endpoint to be absent")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "irrigation_guard_scheduler_enabled 1\n")
	})
	ts, _ := newTestServer(t, Options{Metrics: metrics})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "scheduler_enabled") {
		t.Errorf("unexpected body %q", body)
	}
}

func TestFormatValues(t *testing.T) {
	if got := formatValues(nil); got != "no reading" {
		t.Errorf("nil: got %q", got)
	}
	r := &sensor.Reading{Values: map[string]float64{sensor.Temperature: 23, sensor.Humidity: 55}}
	if got := formatValues(r); got != "humidity=55 temperature=23" {
		t.Errorf("got %q", got)
	}
}
