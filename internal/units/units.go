// Package units converts meteorological quantities between the units used by
// best-track archives and the canonical units of the processing engine.
package units

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownUnit is returned for unit names the converter does not recognize,
// or for conversions between different dimensions.
var ErrUnknownUnit = errors.New("unknown unit")

type dimension string

const (
	speed    dimension = "speed"
	pressure dimension = "pressure"
	length   dimension = "length"
)

type unit struct {
	dim dimension
	// factor converts one of this unit into the dimension's base unit
	// (m/s, hPa, km).
	factor float64
}

var registry = map[string]unit{
	"mps":  {speed, 1},
	"m/s":  {speed, 1},
	"kph":  {speed, 1 / 3.6},
	"kmh":  {speed, 1 / 3.6},
	"km/h": {speed, 1 / 3.6},
	"kts":  {speed, 0.514444},
	"kt":   {speed, 0.514444},
	"kn":   {speed, 0.514444},
	"mph":  {speed, 0.44704},

	"hpa":  {pressure, 1},
	"mb":   {pressure, 1},
	"mbar": {pressure, 1},
	"pa":   {pressure, 0.01},
	"kpa":  {pressure, 10},
	"inhg": {pressure, 33.8639},
	"mmhg": {pressure, 1.333224},

	"km": {length, 1},
	"m":  {length, 0.001},
	"mi": {length, 1.609344},
	"nm": {length, 1.852},
}

func lookup(name string) (unit, error) {
	u, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	return u, nil
}

// Validate reports whether a unit name is known.
func Validate(name string) error {
	_, err := lookup(name)
	return err
}

// Convert returns values converted from one unit to another. The input is not
// modified. Callers must exclude missing-value markers before converting.
func Convert(values []float64, from, to string) ([]float64, error) {
	src, err := lookup(from)
	if err != nil {
		return nil, err
	}
	dst, err := lookup(to)
	if err != nil {
		return nil, err
	}
	if src.dim != dst.dim {
		return nil, fmt.Errorf("%w: cannot convert %s (%s) to %s (%s)", ErrUnknownUnit, from, src.dim, to, dst.dim)
	}

	out := make([]float64, len(values))
	if src.factor == dst.factor {
		copy(out, values)
		return out, nil
	}
	scale := src.factor / dst.factor
	for i, v := range values {
		out[i] = v * scale
	}
	return out, nil
}
