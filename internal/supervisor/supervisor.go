// Package supervisor runs one monitor: a cancelable polling loop that reads
// a sensor, applies its threshold rule and triggers safety actions once per
// breach episode.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/irrigation-guard/internal/actuator"
	"github.com/sweeney/irrigation-guard/internal/policy"
	"github.com/sweeney/irrigation-guard/internal/pulse"
	"github.com/sweeney/irrigation-guard/internal/sensor"
)

// Default delays after a failed cycle.
const (
	DefaultCooldown     = 500 * time.Millisecond
	DefaultFaultBackoff = 60 * time.Second
)

// Failure kinds reported to Metrics.
const (
	FailureDecode      = "decode"
	FailureAcquisition = "acquisition"
	FailureFault       = "fault"
	FailurePanic       = "panic"
)

// ReadingLog receives every successful reading.
type ReadingLog interface {
	Record(ctx context.Context, monitor string, r sensor.Reading) error
}

// Metrics receives loop events. internal/metrics implements it.
type Metrics interface {
	Reading(monitor string, r sensor.Reading)
	Failure(monitor, kind string)
	Action(monitor string)
	Armed(monitor string, armed bool)
}

// Options tunes a Supervisor. Zero values select the defaults.
type Options struct {
	// Cooldown separates attempts after a decode failure.
	Cooldown time.Duration
	// FaultBackoff is the pause after an unclassified error or a panic.
	FaultBackoff time.Duration

	Metrics Metrics
	Log     ReadingLog
}

// State is a point-in-time copy of a supervisor's state.
type State struct {
	Running             bool
	Enabled             bool
	LastReading         *sensor.Reading
	ConsecutiveFailures int
	ActionArmed         bool
	LastError           string
	Actions             int
}

// Supervisor owns one polling goroutine. Start and Stop may be called from
// any goroutine; Stop returns only after the loop has exited.
type Supervisor struct {
	name   string
	sensor sensor.Sensor
	act    actuator.Actuator
	opts   Options

	cfg  atomic.Pointer[Config]
	wake chan struct{}

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	mu    sync.RWMutex
	state State
}

// New builds a stopped supervisor. The sensor must already be constructed,
// so hardware availability is settled before the loop exists.
func New(name string, s sensor.Sensor, act actuator.Actuator, cfg Config, opts Options) (*Supervisor, error) {
	if name == "" {
		return nil, errors.New("supervisor name is empty")
	}
	if s == nil {
		return nil, fmt.Errorf("supervisor %s: sensor is nil", name)
	}
	if act == nil {
		return nil, fmt.Errorf("supervisor %s: actuator is nil", name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("supervisor %s: %w", name, err)
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.FaultBackoff <= 0 {
		opts.FaultBackoff = DefaultFaultBackoff
	}

	sv := &Supervisor{
		name:   name,
		sensor: s,
		act:    act,
		opts:   opts,
		wake:   make(chan struct{}, 1),
	}
	sv.cfg.Store(cfg.clone())
	return sv, nil
}

// Name returns the monitor name.
func (s *Supervisor) Name() string { return s.name }

// Config returns the active configuration.
func (s *Supervisor) Config() Config { return *s.cfg.Load().clone() }

// Start spawns the polling loop. It is a no-op while running.
func (s *Supervisor) Start() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.mu.Lock()
	s.state.Running = true
	s.mu.Unlock()

	go s.loop(ctx, s.done)
}

// Stop cancels the loop and waits for it to exit.
func (s *Supervisor) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.mu.Lock()
	s.state.Running = false
	s.mu.Unlock()
}

// RequestImmediateWake ends the current sleep early without stopping the loop.
// A request made while the loop is busy ends the next sleep.
func (s *Supervisor) RequestImmediateWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Update validates cfg, replaces the active config atomically and wakes
// the loop so the change applies on the next cycle.
func (s *Supervisor) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("supervisor %s: %w", s.name, err)
	}
	s.cfg.Store(cfg.clone())
	log.Printf("supervisor %s: config updated: enabled=%v interval=%v", s.name, cfg.Enabled, cfg.PollInterval)
	s.RequestImmediateWake()
	return nil
}

// LastState returns a copy of the current state.
func (s *Supervisor) LastState() State {
	s.mu.RLock()
	st := s.state
	s.mu.RUnlock()
	st.Enabled = s.cfg.Load().Enabled
	return st
}

func (s *Supervisor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	log.Printf("supervisor %s: started", s.name)
	for ctx.Err() == nil {
		s.sleep(ctx, s.cycle(ctx))
	}
	log.Printf("supervisor %s: stopped", s.name)
}

// cycle runs one loop body and returns how long to sleep afterwards.
// A panic anywhere in the body ends the cycle, not the loop.
func (s *Supervisor) cycle(ctx context.Context) (next time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("supervisor %s: recovered from panic: %v", s.name, r)
			s.failed(fmt.Errorf("panic: %v", r), FailurePanic, 0)
			next = s.opts.FaultBackoff
		}
	}()

	cfg := s.cfg.Load()
	if !cfg.Enabled {
		return cfg.PollInterval
	}

	r, err := s.sensor.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}
		delay, kind := s.classify(cfg, err)
		s.failed(err, kind, cfg.FailureAlert)
		return delay
	}

	s.succeeded(ctx, cfg, r)
	return cfg.PollInterval
}

// classify maps a read error to its retry delay and failure kind.
func (s *Supervisor) classify(cfg *Config, err error) (time.Duration, string) {
	var de *pulse.DecodeError
	switch {
	case errors.As(err, &de):
		return s.opts.Cooldown, FailureDecode
	case errors.Is(err, sensor.ErrAcquisition):
		return cfg.PollInterval, FailureAcquisition
	default:
		return s.opts.FaultBackoff, FailureFault
	}
}

func (s *Supervisor) failed(err error, kind string, alertAt int) {
	// Error() runs outside the lock: a broken error value may panic, and
	// the recovery path comes back through here.
	msg := err.Error()
	n := s.recordFailure(msg)

	log.Printf("supervisor %s: read failed (%s, %d in a row): %v", s.name, kind, n, err)
	if s.opts.Metrics != nil {
		s.opts.Metrics.Failure(s.name, kind)
	}

	if alertAt > 0 && n == alertAt {
		alert := fmt.Sprintf("%s sensor faulty: %d failed reads", s.name, n)
		if err := s.act.Notify(alert); err != nil {
			log.Printf("supervisor %s: failure alert: %v", s.name, err)
		}
	}
}

func (s *Supervisor) recordFailure(msg string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ConsecutiveFailures++
	s.state.LastError = msg
	return s.state.ConsecutiveFailures
}

func (s *Supervisor) succeeded(ctx context.Context, cfg *Config, r sensor.Reading) {
	armed := s.recordReading(r)

	if s.opts.Metrics != nil {
		s.opts.Metrics.Reading(s.name, r)
	}
	if s.opts.Log != nil {
		if err := s.opts.Log.Record(ctx, s.name, r); err != nil {
			log.Printf("supervisor %s: record reading: %v", s.name, err)
		}
	}

	if cfg.Rule == nil {
		return
	}

	out := policy.Evaluate(r, *cfg.Rule, armed)
	switch {
	case out.Action != nil:
		log.Printf("supervisor %s: threshold breached: %s", s.name, out.Action.Message)
		s.setArmed(true, true)
		if err := actuator.Apply(s.act, *out.Action); err != nil {
			log.Printf("supervisor %s: actuator: %v", s.name, err)
			s.setLastError("actuator: " + err.Error())
		}
	case out.Recovered && armed:
		log.Printf("supervisor %s: threshold cleared", s.name)
		s.setArmed(false, false)
		if out.Notice != "" {
			if err := s.act.Notify(out.Notice); err != nil {
				log.Printf("supervisor %s: recovery notice: %v", s.name, err)
			}
		}
	}
}

// recordReading stores r, clears the failure streak and returns whether
// an episode is armed.
func (s *Supervisor) recordReading(r sensor.Reading) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ConsecutiveFailures = 0
	s.state.LastError = ""
	s.state.LastReading = &r
	return s.state.ActionArmed
}

func (s *Supervisor) setLastError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastError = msg
}

func (s *Supervisor) setArmed(armed, action bool) {
	s.storeArmed(armed, action)

	if s.opts.Metrics != nil {
		if action {
			s.opts.Metrics.Action(s.name)
		}
		s.opts.Metrics.Armed(s.name, armed)
	}
}

func (s *Supervisor) storeArmed(armed, action bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ActionArmed = armed
	if action {
		s.state.Actions++
	}
}

// sleep waits for d, a wake request or cancellation, whichever comes first.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-s.wake:
	case <-t.C:
	}
}
