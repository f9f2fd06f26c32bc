package policy

import (
	"strings"
	"testing"
	"time"

	"github.com/sweeney/irrigation-guard/internal/sensor"
)

func reading(q string, v float64) sensor.Reading {
	return sensor.Reading{Timestamp: time.Now(), Values: map[string]float64{q: v}}
}

// run feeds values through Evaluate the way a supervisor does and returns
// the indices at which an action fired and at which the episode cleared.
func run(rule Rule, values []float64) (fired, cleared []int) {
	armed := false
	for i, v := range values {
		out := Evaluate(reading(rule.Quantity, v), rule, armed)
		if out.Action != nil {
			fired = append(fired, i)
			armed = true
		}
		if out.Recovered && armed {
			cleared = append(cleared, i)
			armed = false
		}
	}
	return fired, cleared
}

func TestEdgeTriggeredOncePerEpisode(t *testing.T) {
	rule := Rule{Quantity: sensor.Humidity, Compare: Below, Threshold: 30, Notify: true}
	fired, cleared := run(rule, []float64{40, 20, 25, 10, 40})

	if len(fired) != 1 || fired[0] != 1 {
		t.Errorf("expected one action at index 1, got %v", fired)
	}
	if len(cleared) != 1 || cleared[0] != 4 {
		t.Errorf("expected episode to clear at index 4, got %v", cleared)
	}
}

func TestHysteresisWaterLevel(t *testing.T) {
	rule := Rule{Quantity: sensor.Level, Compare: Below, Threshold: 6, Margin: 5, Halt: true, DisableScheduler: true}
	fired, cleared := run(rule, []float64{10, 6, 5, 5, 12})

	if len(fired) != 1 || fired[0] != 1 {
		t.Errorf("expected action at level 6 (index 1), got %v", fired)
	}
	if len(cleared) != 1 || cleared[0] != 4 {
		t.Errorf("expected clear at level 12 (index 4), got %v", cleared)
	}
}

func TestHysteresisBandKeepsArmed(t *testing.T) {
	rule := Rule{Quantity: sensor.Level, Compare: Below, Threshold: 6, Margin: 5}
	// 9 and 11 are inside the band: no second action, no clear.
	fired, cleared := run(rule, []float64{5, 9, 11, 4, 12, 3})

	if len(fired) != 2 || fired[0] != 0 || fired[1] != 5 {
		t.Errorf("expected actions at 0 and 5, got %v", fired)
	}
	if len(cleared) != 1 || cleared[0] != 4 {
		t.Errorf("expected clear at index 4, got %v", cleared)
	}
}

func TestAboveRule(t *testing.T) {
	rule := Rule{Quantity: sensor.Wind, Compare: Above, Threshold: 10, Margin: 2, Halt: true}
	fired, cleared := run(rule, []float64{5, 10, 15, 9, 7, 11})

	if len(fired) != 2 || fired[0] != 1 || fired[1] != 5 {
		t.Errorf("expected actions at 1 and 5, got %v", fired)
	}
	if len(cleared) != 1 || cleared[0] != 4 {
		t.Errorf("expected clear at index 4, got %v", cleared)
	}
}

func TestActionCarriesRule(t *testing.T) {
	rule := Rule{Quantity: sensor.Level, Compare: Below, Threshold: 6, Halt: true, DisableScheduler: true, Notify: true, Label: "water level"}
	out := Evaluate(reading(sensor.Level, 4), rule, false)
	if out.Action == nil {
		t.Fatal("expected action")
	}
	a := out.Action
	if !a.Halt || !a.DisableScheduler || !a.Notify {
		t.Errorf("expected all reactions, got %+v", a)
	}
	if a.Value != 4 || a.Quantity != sensor.Level {
		t.Errorf("unexpected value/quantity: %+v", a)
	}
	if !strings.Contains(a.Message, "water level") || !strings.Contains(a.Message, "minimum 6") {
		t.Errorf("unexpected message: %q", a.Message)
	}
}

func TestArmedBreachHasNoAction(t *testing.T) {
	rule := Rule{Quantity: sensor.Level, Compare: Below, Threshold: 6}
	out := Evaluate(reading(sensor.Level, 4), rule, true)
	if out.Action != nil {
		t.Error("expected no action while armed")
	}
	if !out.Breach {
		t.Error("expected Breach to be reported")
	}
}

func TestMissingQuantity(t *testing.T) {
	rule := Rule{Quantity: sensor.Humidity, Compare: Below, Threshold: 30}
	out := Evaluate(reading(sensor.Temperature, 0), rule, false)
	if out.Action != nil || out.Breach || out.Recovered {
		t.Errorf("expected zero outcome, got %+v", out)
	}
}

func TestRecoveryNotice(t *testing.T) {
	rule := Rule{Quantity: sensor.Power, Compare: Below, Threshold: 0, Margin: 0.5,
		Notify: true, NotifyRecovery: true,
		Message: "power source failure", RecoveryMessage: "power source restored"}

	out := Evaluate(reading(sensor.Power, 0), rule, false)
	if out.Action == nil || out.Action.Message != "power source failure" {
		t.Fatalf("expected failure action, got %+v", out)
	}

	out = Evaluate(reading(sensor.Power, 1), rule, true)
	if !out.Recovered || out.Notice != "power source restored" {
		t.Errorf("expected restore notice, got %+v", out)
	}

	// Not armed: recovered but nothing to announce.
	out = Evaluate(reading(sensor.Power, 1), rule, false)
	if out.Notice != "" {
		t.Errorf("expected no notice when not armed, got %q", out.Notice)
	}
}

func TestValidate(t *testing.T) {
	good := Rule{Quantity: sensor.Level, Compare: Below}
	if err := good.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := []Rule{
		{Compare: Below},
		{Quantity: sensor.Level, Compare: "sideways"},
		{Quantity: sensor.Level, Compare: Above, Margin: -1},
	}
	for _, r := range bad {
		if err := r.Validate(); err == nil {
			t.Errorf("expected error for %+v", r)
		}
	}
}
