// Package config loads the per-monitor settings file. Each monitor is a flat
// key/value map, so the settings page that owns persistence can store it as is.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sweeney/irrigation-guard/internal/policy"
	"github.com/sweeney/irrigation-guard/internal/supervisor"
)

// Monitor names.
const (
	Air      = "air"
	Tank     = "tank"
	Wind     = "wind"
	Power    = "power"
	Pressure = "pressure"
)

// Keys understood in a monitor's values.
const (
	KeyEnabled           = "enabled"
	KeyInterval          = "interval_seconds"
	KeyFailureAlert      = "failure_alert"
	KeyRuleQuantity      = "rule.quantity"
	KeyRuleCompare       = "rule.compare"
	KeyRuleThreshold     = "rule.threshold"
	KeyRuleMargin        = "rule.margin"
	KeyRuleHalt          = "rule.halt"
	KeyRuleDisable       = "rule.disable_scheduler"
	KeyRuleNotify        = "rule.notify"
	KeyRuleNotifyRecover = "rule.notify_recovery"
	KeyRuleLabel         = "rule.label"
	KeyRuleMessage       = "rule.message"
	KeyRuleRecoveryMsg   = "rule.recovery_message"
	KeyPin               = "pin"
	KeyDistanceBottom    = "distance_bottom"
	KeyDistanceTop       = "distance_top"
	KeyPulsesPerRotation = "pulses_per_rotation"
	KeyMetersPerRotation = "meters_per_rotation"
	KeyAltAddress        = "alt_address"
	KeyActiveLow         = "active_low"
	KeyMasterPin         = "master_pin"
)

// File is the whole settings file.
type File struct {
	Monitors map[string]Values `json:"monitors"`
}

// Monitor is the typed view of one monitor's values.
type Monitor struct {
	Name       string
	Supervisor supervisor.Config

	Pin               int
	DistanceBottom    int
	DistanceTop       int
	PulsesPerRotation float64
	MetersPerRotation float64
	AltAddress        bool
	ActiveLow         bool
	// MasterPin senses the master valve; -1 when there is no master station.
	MasterPin int
}

// Load reads path and overlays it on Defaults. An empty path returns the defaults.
func Load(path string) (File, error) {
	if path == "" {
		return Defaults(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse overlays a JSON document on Defaults key by key and validates
// every monitor.
func Parse(b []byte) (File, error) {
	var in File
	if err := json.Unmarshal(b, &in); err != nil {
		return File{}, fmt.Errorf("parse config: %w", err)
	}

	f := Defaults()
	for name, values := range in.Monitors {
		base, ok := f.Monitors[name]
		if !ok {
			return File{}, fmt.Errorf("monitor %q: unknown", name)
		}
		for k, v := range values {
			base[k] = v
		}
	}

	for _, name := range f.Names() {
		if _, err := f.Monitor(name); err != nil {
			return File{}, err
		}
	}
	return f, nil
}

// Names returns the configured monitor names in order.
func (f File) Names() []string {
	names := make([]string, 0, len(f.Monitors))
	for name := range f.Monitors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Monitor converts one monitor's values into typed settings.
func (f File) Monitor(name string) (Monitor, error) {
	v, ok := f.Monitors[name]
	if !ok {
		return Monitor{}, fmt.Errorf("monitor %q: not configured", name)
	}
	m, err := v.monitor(name)
	if err != nil {
		return Monitor{}, fmt.Errorf("monitor %q: %w", name, err)
	}
	return m, nil
}

func (v Values) monitor(name string) (Monitor, error) {
	p := parser{v: v}
	m := Monitor{
		Name: name,
		Supervisor: supervisor.Config{
			Enabled:      p.flag(KeyEnabled, true),
			PollInterval: time.Duration(p.integer(KeyInterval, 60)) * time.Second,
			FailureAlert: p.integer(KeyFailureAlert, 0),
		},
		Pin:               p.integer(KeyPin, -1),
		DistanceBottom:    p.integer(KeyDistanceBottom, 0),
		DistanceTop:       p.integer(KeyDistanceTop, 0),
		PulsesPerRotation: p.number(KeyPulsesPerRotation, 0),
		MetersPerRotation: p.number(KeyMetersPerRotation, 0),
		AltAddress:        p.flag(KeyAltAddress, false),
		ActiveLow:         p.flag(KeyActiveLow, false),
		MasterPin:         p.integer(KeyMasterPin, -1),
	}

	if q := p.text(KeyRuleQuantity, ""); q != "" {
		m.Supervisor.Rule = &policy.Rule{
			Quantity:         q,
			Compare:          policy.Compare(p.text(KeyRuleCompare, string(policy.Below))),
			Threshold:        p.number(KeyRuleThreshold, 0),
			Margin:           p.number(KeyRuleMargin, 0),
			Halt:             p.flag(KeyRuleHalt, false),
			DisableScheduler: p.flag(KeyRuleDisable, false),
			Notify:           p.flag(KeyRuleNotify, false),
			NotifyRecovery:   p.flag(KeyRuleNotifyRecover, false),
			Label:            p.text(KeyRuleLabel, ""),
			Message:          p.text(KeyRuleMessage, ""),
			RecoveryMessage:  p.text(KeyRuleRecoveryMsg, ""),
		}
	}

	if p.err != nil {
		return Monitor{}, p.err
	}
	if err := m.Supervisor.Validate(); err != nil {
		return Monitor{}, err
	}
	return m, nil
}
