package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/sweeney/irrigation-guard/internal/bus"
	"github.com/sweeney/irrigation-guard/internal/config"
	"github.com/sweeney/irrigation-guard/internal/line"
	"github.com/sweeney/irrigation-guard/internal/sensor"
)

// hardware opens lines and the I2C bus on demand and closes them on exit.
// A monitor whose hardware cannot be opened is reported to the caller,
// which leaves it out; the other monitors keep running.
type hardware struct {
	chip    string
	busName string

	openLine func(chip string, offset int) (line.Line, error)
	openBus  func(name string) (bus.Bus, error)

	bus     bus.Bus
	busErr  error
	closers []func() error
}

func newHardware(chip, busName string) *hardware {
	return &hardware{
		chip:    chip,
		busName: busName,
		openLine: func(chip string, offset int) (line.Line, error) {
			return line.Open(chip, offset)
		},
		openBus: func(name string) (bus.Bus, error) {
			return bus.Open(name)
		},
	}
}

// sensor builds the sensor a monitor polls.
func (h *hardware) sensor(m config.Monitor) (sensor.Sensor, error) {
	switch m.Name {
	case config.Air:
		l, err := h.line(m.Pin)
		if err != nil {
			return nil, err
		}
		return sensor.NewAirProbe(l, line.DefaultCaptureConfig()), nil

	case config.Power:
		l, err := h.line(m.Pin)
		if err != nil {
			return nil, err
		}
		return sensor.NewPowerLine(l, m.ActiveLow), nil

	case config.Pressure:
		if m.MasterPin < 0 {
			return nil, errors.New("no master station configured")
		}
		master, err := h.line(m.MasterPin)
		if err != nil {
			return nil, err
		}
		l, err := h.line(m.Pin)
		if err != nil {
			return nil, err
		}
		return sensor.NewPressureSwitch(l, master, m.ActiveLow), nil

	case config.Tank:
		b, err := h.i2c()
		if err != nil {
			return nil, err
		}
		return sensor.NewTankLevel(b, m.DistanceBottom, m.DistanceTop), nil

	case config.Wind:
		b, err := h.i2c()
		if err != nil {
			return nil, err
		}
		w := sensor.NewWindSpeed(b, m.AltAddress)
		if m.PulsesPerRotation > 0 {
			w.PulsesPerRotation = m.PulsesPerRotation
		}
		if m.MetersPerRotation > 0 {
			w.MetersPerRotation = m.MetersPerRotation
		}
		return w, nil
	}
	return nil, fmt.Errorf("no sensor for monitor %q", m.Name)
}

func (h *hardware) line(pin int) (line.Line, error) {
	if pin < 0 {
		return nil, errors.New("no pin configured")
	}
	l, err := h.openLine(h.chip, pin)
	if err != nil {
		return nil, err
	}
	h.closers = append(h.closers, l.Close)
	return l, nil
}

// i2c opens the shared bus once. A failed open is remembered so every
// bus monitor reports the same error.
func (h *hardware) i2c() (bus.Bus, error) {
	if h.bus == nil && h.busErr == nil {
		b, err := h.openBus(h.busName)
		if err != nil {
			h.busErr = err
		} else {
			h.bus = b
			h.closers = append(h.closers, b.Close)
		}
	}
	return h.bus, h.busErr
}

// Close releases everything opened, last first.
func (h *hardware) Close() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			log.Printf("hardware: close: %v", err)
		}
	}
	h.closers = nil
}
