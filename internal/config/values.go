package config

import (
	"fmt"
	"math"
	"strconv"
)

// Values is one monitor's flat settings map. Values decoded from JSON are
// bool, float64 or string; strings are accepted for every type.
type Values map[string]any

// parser reads typed values and keeps the first conversion error.
type parser struct {
	v   Values
	err error
}

func (p *parser) fail(key string, raw any, want string) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: cannot use %v (%T) as %s", key, raw, raw, want)
	}
}

func (p *parser) flag(key string, def bool) bool {
	raw, ok := p.v[key]
	if !ok {
		return def
	}
	switch x := raw.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(x)
		if err == nil {
			return b
		}
	case float64:
		return x != 0
	}
	p.fail(key, raw, "bool")
	return def
}

func (p *parser) number(key string, def float64) float64 {
	raw, ok := p.v[key]
	if !ok {
		return def
	}
	switch x := raw.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err == nil {
			return f
		}
	}
	p.fail(key, raw, "number")
	return def
}

func (p *parser) integer(key string, def int) int {
	raw, ok := p.v[key]
	if !ok {
		return def
	}
	f := p.number(key, float64(def))
	if f != math.Trunc(f) {
		p.fail(key, raw, "integer")
		return def
	}
	return int(f)
}

func (p *parser) text(key, def string) string {
	raw, ok := p.v[key]
	if !ok {
		return def
	}
	switch x := raw.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	p.fail(key, raw, "string")
	return def
}
