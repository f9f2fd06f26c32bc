// Command irrigation-guard runs the hardware monitors of an irrigation
// controller and reacts to threshold crossings by halting stations,
// disabling the scheduler and notifying the operator over MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sweeney/irrigation-guard/internal/actuator"
	"github.com/sweeney/irrigation-guard/internal/bus"
	"github.com/sweeney/irrigation-guard/internal/config"
	"github.com/sweeney/irrigation-guard/internal/line"
	"github.com/sweeney/irrigation-guard/internal/metrics"
	"github.com/sweeney/irrigation-guard/internal/mqtt"
	"github.com/sweeney/irrigation-guard/internal/readinglog"
	"github.com/sweeney/irrigation-guard/internal/sensor"
	"github.com/sweeney/irrigation-guard/internal/status"
	"github.com/sweeney/irrigation-guard/internal/supervisor"
	"github.com/sweeney/irrigation-guard/internal/web"
)

type options struct {
	broker       string
	httpAddr     string
	configPath   string
	heartbeat    time.Duration
	chip         string
	i2cBus       string
	outputPins   string
	outputsLow   bool
	influxURL    string
	influxToken  string
	influxOrg    string
	influxBucket string
}

func main() {
	var o options
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&o.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&o.configPath, "config", "", "Monitor settings file (JSON); defaults are used when empty")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.chip, "gpio-chip", line.DefaultChip, "GPIO character device")
	flag.StringVar(&o.i2cBus, "i2c-bus", bus.DefaultBus, "I2C bus name")
	flag.StringVar(&o.outputPins, "outputs", "", "Comma-separated BCM pins of the station relays")
	flag.BoolVar(&o.outputsLow, "outputs-active-low", false, "Station relays are active low")
	flag.StringVar(&o.influxURL, "influx-url", "", "InfluxDB URL for the reading log (empty to disable)")
	flag.StringVar(&o.influxToken, "influx-token", "", "InfluxDB token")
	flag.StringVar(&o.influxOrg, "influx-org", "", "InfluxDB organization")
	flag.StringVar(&o.influxBucket, "influx-bucket", "irrigation", "InfluxDB bucket")
	printConfig := flag.Bool("print-config", false, "Print the effective monitor settings and exit")

	flag.Parse()

	if *printConfig {
		if err := printSettings(o.configPath); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}
	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	file, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	pins, err := parsePins(o.outputPins)
	if err != nil {
		return fmt.Errorf("parse outputs: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MQTT connects in the background; publishes are buffered until then.
	publisher := mqtt.NewRealPublisher(mqtt.Config{Broker: o.broker})
	defer publisher.Close()
	go func() {
		if err := publisher.Connect(ctx, 0); err != nil && ctx.Err() == nil {
			log.Printf("mqtt: connect: %v", err)
		}
	}()

	m := metrics.New()
	tracker := status.NewTracker(time.Now(), status.Config{
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPPort:    o.httpAddr,
		ConfigPath:  o.configPath,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	scheduler := actuator.NewSchedulerSwitch(func(enabled bool) error {
		tracker.SetScheduler(enabled)
		m.SetScheduler(enabled)
		return publisher.PublishScheduler(enabled)
	})
	notifier := actuator.NewBreakerNotifier(actuator.NotifierFunc(func(msg string) error {
		return publisher.PublishNotification(mqtt.Notification{Timestamp: time.Now(), Message: msg})
	}), 3, 30*time.Second)

	var outputs actuator.Outputs
	if len(pins) > 0 {
		ro, err := line.OpenOutputs(o.chip, pins, o.outputsLow)
		if err != nil {
			log.Printf("outputs: %v (halt will only be logged)", err)
		} else {
			defer ro.Close()
			outputs = ro
		}
	}
	safety := actuator.NewSafety(outputs, scheduler, notifier)

	readings := readinglog.Multi{readinglog.Func(func(ctx context.Context, monitor string, r sensor.Reading) error {
		return publisher.PublishReading(ctx, monitor, r)
	})}
	if o.influxURL != "" {
		influx := readinglog.NewInfluxLog(o.influxURL, o.influxToken, o.influxOrg, o.influxBucket)
		defer influx.Close()
		readings = append(readings, influx)
	}

	hw := newHardware(o.chip, o.i2cBus)
	defer hw.Close()

	supervisors := make(map[string]*supervisor.Supervisor)
	for _, name := range file.Names() {
		mon, err := file.Monitor(name)
		if err != nil {
			return err
		}
		s, err := hw.sensor(mon)
		if err != nil {
			log.Printf("monitor %s: not started: %v", name, err)
			continue
		}
		sv, err := supervisor.New(name, s, safety, mon.Supervisor, supervisor.Options{
			Metrics: m,
			Log:     readings,
		})
		if err != nil {
			return fmt.Errorf("create monitor %s: %w", name, err)
		}
		tracker.Register(sv)
		supervisors[name] = sv
	}
	if len(supervisors) == 0 {
		log.Printf("no monitors could be started; serving status only")
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}
	if err := publisher.PublishScheduler(scheduler.Enabled()); err != nil {
		log.Printf("failed to publish scheduler state: %v", err)
	}

	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker, web.Options{Metrics: m.Handler(), Scheduler: scheduler})
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	for _, sv := range supervisors {
		sv.Start()
	}
	log.Printf("started: monitors=%d broker=%s heartbeat=%v", len(supervisors), o.broker, o.heartbeat)

	var heartbeat <-chan time.Time
	if o.heartbeat > 0 {
		t := time.NewTicker(o.heartbeat)
		defer t.Stop()
		heartbeat = t.C
	}
	refresh := time.NewTicker(5 * time.Second)
	defer refresh.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	d := &daemon{
		publisher:   publisher,
		mqttStatus:  publisher,
		tracker:     tracker,
		metrics:     m,
		supervisors: supervisors,
		load:        func() (config.File, error) { return config.Load(o.configPath) },
		now:         time.Now,
	}
	return d.runLoop(heartbeat, refresh.C, sigCh)
}

// daemon is the state runLoop needs. Every field except publisher may be nil.
type daemon struct {
	publisher   mqtt.Publisher
	mqttStatus  mqtt.ConnectionStatus
	tracker     *status.Tracker
	metrics     *metrics.Metrics
	supervisors map[string]*supervisor.Supervisor
	load        func() (config.File, error)
	now         func() time.Time
}

// runLoop waits for signals and timers until SIGINT or SIGTERM, then
// stops every monitor and publishes the shutdown event.
func (d *daemon) runLoop(heartbeat, refresh <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			if s == syscall.SIGHUP {
				d.reload()
				continue
			}
			log.Printf("received %v, shutting down", s)
			d.stopAll()

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				d.refreshConnection()
				snap := d.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-refresh:
			d.refreshConnection()

		case <-heartbeat:
			hbEvent := mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "HEARTBEAT",
			}
			if d.tracker != nil {
				d.refreshConnection()
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					d.tracker.SetNetwork(net)
				}
				snap := d.tracker.Snapshot()
				log.Printf("heartbeat: uptime=%v monitors=%d", snap.Uptime().Truncate(time.Second), len(snap.Monitors))
				hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			if err := d.publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

func (d *daemon) refreshConnection() {
	if d.mqttStatus == nil {
		return
	}
	connected := d.mqttStatus.IsConnected()
	if d.tracker != nil {
		d.tracker.SetMQTTConnected(connected)
	}
	d.metrics.SetMQTTConnected(connected)
}

// reload re-reads the settings file and hands each running monitor its new
// configuration. Monitors that were not started keep needing a restart.
func (d *daemon) reload() {
	if d.load == nil {
		return
	}
	file, err := d.load()
	if err != nil {
		log.Printf("reload: %v (keeping current settings)", err)
		return
	}
	for _, name := range file.Names() {
		sv, ok := d.supervisors[name]
		if !ok {
			log.Printf("reload: monitor %s is not running; restart to start it", name)
			continue
		}
		mon, err := file.Monitor(name)
		if err != nil {
			log.Printf("reload: %v", err)
			continue
		}
		if err := sv.Update(mon.Supervisor); err != nil {
			log.Printf("reload: monitor %s: %v", name, err)
			continue
		}
		log.Printf("reload: monitor %s updated", name)
	}
}

// stopAll stops the monitors in parallel and waits for every loop to exit.
func (d *daemon) stopAll() {
	var wg sync.WaitGroup
	for _, sv := range d.supervisors {
		wg.Add(1)
		go func(sv *supervisor.Supervisor) {
			defer wg.Done()
			sv.Stop()
		}(sv)
	}
	wg.Wait()
}

func parsePins(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var pins []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("pin %q: %w", f, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("pin %d: negative", n)
		}
		pins = append(pins, n)
	}
	return pins, nil
}

func printSettings(path string) error {
	file, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, name := range file.Names() {
		mon, err := file.Monitor(name)
		if err != nil {
			return err
		}
		cfg := mon.Supervisor
		fmt.Printf("%s: enabled=%v interval=%v", name, cfg.Enabled, cfg.PollInterval)
		if r := cfg.Rule; r != nil {
			fmt.Printf(" rule=%s %s %g (margin %g)", r.Quantity, r.Compare, r.Threshold, r.Margin)
		}
		fmt.Println()
	}
	return nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
