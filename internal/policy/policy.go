// Package policy decides when a reading breaches a monitor's threshold.
// Evaluation is pure: the caller owns the armed flag and passes it in.
package policy

import (
	"errors"
	"fmt"

	"github.com/sweeney/irrigation-guard/internal/sensor"
)

// Compare selects which side of the threshold is a breach.
type Compare string

const (
	Below Compare = "below" // breach at value <= threshold
	Above Compare = "above" // breach at value >= threshold
)

// Rule is one threshold with its hysteresis margin and reactions.
type Rule struct {
	Quantity  string
	Compare   Compare
	Threshold float64
	// Margin widens the recovery side: a below-rule rearms only above
	// Threshold+Margin, an above-rule only below Threshold-Margin.
	Margin float64

	Halt             bool
	DisableScheduler bool
	Notify           bool
	NotifyRecovery   bool

	// Label names the measurement in generated messages; Quantity when empty.
	Label string
	// Message and RecoveryMessage override the generated notification text.
	Message         string
	RecoveryMessage string
}

// Validate checks the rule is usable.
func (r Rule) Validate() error {
	if r.Quantity == "" {
		return errors.New("rule quantity is empty")
	}
	if r.Compare != Below && r.Compare != Above {
		return fmt.Errorf("rule compare %q: must be %q or %q", r.Compare, Below, Above)
	}
	if r.Margin < 0 {
		return fmt.Errorf("rule margin %g: must not be negative", r.Margin)
	}
	return nil
}

// Action is what the actuator should do for a fresh breach.
type Action struct {
	Halt             bool
	DisableScheduler bool
	Notify           bool
	Message          string
	Quantity         string
	Value            float64
}

// Outcome is the result of evaluating one reading.
type Outcome struct {
	// Action is set only on the first breach of an episode (armed was false).
	Action *Action
	// Breach reports the value is on the breach side, armed or not.
	Breach bool
	// Recovered reports the value has left the hysteresis band on the safe side.
	Recovered bool
	// Notice is the recovery notification, set when Recovered, the episode
	// was armed and the rule asks for one.
	Notice string
}

// Evaluate classifies a reading against a rule.
// A reading without the rule's quantity yields the zero Outcome.
func Evaluate(reading sensor.Reading, rule Rule, armed bool) Outcome {
	v, ok := reading.Value(rule.Quantity)
	if !ok {
		return Outcome{}
	}

	if breached(rule, v) {
		out := Outcome{Breach: true}
		if !armed {
			out.Action = &Action{
				Halt:             rule.Halt,
				DisableScheduler: rule.DisableScheduler,
				Notify:           rule.Notify,
				Message:          breachMessage(rule, v),
				Quantity:         rule.Quantity,
				Value:            v,
			}
		}
		return out
	}

	if !recovered(rule, v) {
		return Outcome{}
	}
	out := Outcome{Recovered: true}
	if armed && rule.NotifyRecovery {
		out.Notice = recoveryMessage(rule, v)
	}
	return out
}

func breached(r Rule, v float64) bool {
	if r.Compare == Above {
		return v >= r.Threshold
	}
	return v <= r.Threshold
}

func recovered(r Rule, v float64) bool {
	if r.Compare == Above {
		return v < r.Threshold-r.Margin
	}
	return v > r.Threshold+r.Margin
}

func (r Rule) label() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Quantity
}

func breachMessage(r Rule, v float64) string {
	if r.Message != "" {
		return r.Message
	}
	if r.Compare == Above {
		return fmt.Sprintf("%s %g at or above maximum %g", r.label(), v, r.Threshold)
	}
	return fmt.Sprintf("%s %g at or below minimum %g", r.label(), v, r.Threshold)
}

func recoveryMessage(r Rule, v float64) string {
	if r.RecoveryMessage != "" {
		return r.RecoveryMessage
	}
	return fmt.Sprintf("%s back to %g", r.label(), v)
}
