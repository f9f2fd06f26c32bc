package config

import (
	"github.com/sweeney/irrigation-guard/internal/line"
	"github.com/sweeney/irrigation-guard/internal/sensor"
)

// Defaults returns the built-in settings for every known monitor.
func Defaults() File {
	return File{Monitors: map[string]Values{
		Air: {
			KeyEnabled:       true,
			KeyInterval:      60.0,
			KeyFailureAlert:  10.0,
			KeyPin:           float64(line.DefaultPinAir),
			KeyRuleQuantity:  sensor.Humidity,
			KeyRuleCompare:   "below",
			KeyRuleThreshold: 20.0,
			KeyRuleMargin:    5.0,
			KeyRuleNotify:    true,
			KeyRuleLabel:     "air humidity",
		},
		Tank: {
			KeyEnabled:        true,
			KeyInterval:       10.0,
			KeyFailureAlert:   3.0,
			KeyDistanceBottom: 33.0,
			KeyDistanceTop:    2.0,
			KeyRuleQuantity:   sensor.Level,
			KeyRuleCompare:    "below",
			KeyRuleThreshold:  6.0,
			KeyRuleMargin:     5.0,
			KeyRuleHalt:       true,
			KeyRuleDisable:    true,
			KeyRuleNotify:     true,
			KeyRuleLabel:      "tank water level",
			KeyRuleMessage:    "water in tank below minimum: stations and scheduler stopped",
		},
		Wind: {
			KeyEnabled:           true,
			KeyInterval:          1.0,
			KeyFailureAlert:      10.0,
			KeyPulsesPerRotation: 2.0,
			KeyMetersPerRotation: 1.492,
			KeyAltAddress:        false,
			KeyRuleQuantity:      sensor.Wind,
			KeyRuleCompare:       "above",
			KeyRuleThreshold:     20.0,
			KeyRuleMargin:        2.0,
			KeyRuleHalt:          true,
			KeyRuleNotify:        true,
			KeyRuleLabel:         "wind speed",
		},
		Power: {
			KeyEnabled:           true,
			KeyInterval:          1.0,
			KeyPin:               float64(line.DefaultPinPower),
			KeyActiveLow:         true,
			KeyRuleQuantity:      sensor.Power,
			KeyRuleCompare:       "below",
			KeyRuleThreshold:     0.0,
			KeyRuleMargin:        0.5,
			KeyRuleNotify:        true,
			KeyRuleNotifyRecover: true,
			KeyRuleMessage:       "power source failure",
			KeyRuleRecoveryMsg:   "power source restored",
		},
		Pressure: {
			KeyEnabled:       true,
			KeyInterval:      1.0,
			KeyFailureAlert:  10.0,
			KeyPin:           float64(line.DefaultPinPressure),
			KeyMasterPin:     -1.0,
			KeyActiveLow:     true,
			KeyRuleQuantity:  sensor.PressureFault,
			KeyRuleCompare:   "above",
			KeyRuleThreshold: 10.0,
			KeyRuleMargin:    9.5,
			KeyRuleHalt:      true,
			KeyRuleNotify:    true,
			KeyRuleLabel:     "pipe pressure",
			KeyRuleMessage:   "pressure sensor not activated in time: stations stopped",
		},
	}}
}
