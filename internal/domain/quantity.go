package domain

import "math"

// Plausibility bounds applied after unit conversion. Raw archives mix several
// missing-value codes (0, -999, 9999) that must not survive as physical values.
const (
	MinPressure = 600.0  // hPa
	MaxPressure = 1100.0 // hPa
	MinSpeed    = 0.0    // km/h
	MaxSpeed    = 200.0  // km/h
	MinMaxWind  = 0.0    // m/s
	MaxMaxWind  = 200.0  // m/s
	MinRMax     = 0.0    // km, exclusive
	MaxRMax     = 1000.0 // km

	// MaxPressureRate caps |dp/dt| in hPa/hr. The fastest intensification on
	// record (Typhoon Forrest, 1983) was about 100 hPa in 24 hours.
	MaxPressureRate = 10.0
)

// Canonical units of the derived series.
const (
	PressureUnit = "hPa"
	WindUnit     = "mps"
	LengthUnit   = "km"
)

// ConvertFunc converts a series between named units. It must be pure and
// return a series of the same length.
type ConvertFunc func(values []float64, from, to string) ([]float64, error)

// Partitioned holds the three views of one quantity.
type Partitioned struct {
	All        []float64
	Initial    []float64
	NonInitial []float64
}

// convertKeepingMissing converts a raw series while keeping missing values and
// legacy markers out of the conversion arithmetic.
func convertKeepingMissing(values []float64, from, to string, convert ConvertFunc) ([]float64, error) {
	clean := make([]float64, len(values))
	missing := make([]bool, len(values))
	for i, v := range values {
		if IsMissing(v) || isLegacyMarker(v) {
			missing[i] = true
			continue
		}
		clean[i] = v
	}
	converted, err := convert(clean, from, to)
	if err != nil {
		return nil, err
	}
	return maskWhere(converted, missing), nil
}

// compress keeps values where mask is true.
func compress(values []float64, mask Indicator) []float64 {
	out := make([]float64, 0, mask.Count())
	for i, v := range values {
		if mask[i] {
			out = append(out, v)
		}
	}
	return out
}

// partitionAtInstant splits a quantity measured at each fix: the initial view
// is taken at track starts, the non-initial view is every other fix with
// missing entries dropped.
func partitionAtInstant(values []float64, ind Indicator) Partitioned {
	notStart := make(Indicator, len(ind))
	for i, v := range ind {
		notStart[i] = !v
	}
	return Partitioned{
		All:        values,
		Initial:    compress(values, ind),
		NonInitial: dropMissing(compress(values, notStart)),
	}
}

// partitionMotion splits a quantity defined by the leg between two fixes. A
// genesis fix has no leg, so the initial view is the first leg of every
// non-singleton track, which is stored at the fix following the start.
// The non-initial view excludes both track starts and those first legs.
func partitionMotion(values []float64, ind, initIdx Indicator) Partitioned {
	n := len(values)
	firstLeg := make(Indicator, n)
	for i := 0; i < n-1; i++ {
		if initIdx[i] {
			firstLeg[i+1] = true
		}
	}
	rest := make(Indicator, n)
	for i := range rest {
		rest[i] = !ind[i] && !firstLeg[i]
	}
	return Partitioned{
		All:        values,
		Initial:    compress(values, firstLeg),
		NonInitial: compress(values, rest),
	}
}

// firstDifference returns x[i]-x[i-1] aligned to i, with index 0 missing.
func firstDifference(x []float64) []float64 {
	out := missingSeries(len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

func divide(num, den []float64) []float64 {
	out := make([]float64, len(num))
	for i := range num {
		out[i] = num[i] / den[i]
	}
	return out
}

// shiftForward marks position i+1 for every flagged i.
func shiftForward(ind Indicator) Indicator {
	out := make(Indicator, len(ind))
	for i := 0; i < len(ind)-1; i++ {
		out[i+1] = ind[i]
	}
	return out
}

func or(a, b Indicator) Indicator {
	out := make(Indicator, len(a))
	for i := range a {
		out[i] = a[i] || b[i]
	}
	return out
}

// Pressures converts central pressure to hPa and masks implausible values.
func Pressures(raw []float64, unit string, convert ConvertFunc) ([]float64, error) {
	p, err := convertKeepingMissing(raw, unit, PressureUnit, convert)
	if err != nil {
		return nil, err
	}
	return maskOutside(p, MinPressure, MaxPressure), nil
}

// PressureRate is dp/dt in hPa/hr, missing at track starts, where pressure is
// missing, where the result is non-finite and where it exceeds MaxPressureRate.
func PressureRate(pressure, elapsed []float64, ind Indicator) []float64 {
	rate := divide(firstDifference(pressure), elapsed)
	rate = maskWhere(rate, ind)
	for i, p := range pressure {
		if IsMissing(p) {
			rate[i] = Missing()
		}
	}
	rate = maskNonFinite(rate)
	for i, r := range rate {
		if math.Abs(r) > MaxPressureRate {
			rate[i] = Missing()
		}
	}
	return rate
}

// MaxWinds converts maximum sustained wind to m/s and masks implausible values.
func MaxWinds(raw []float64, unit string, convert ConvertFunc) ([]float64, error) {
	v, err := convertKeepingMissing(raw, unit, WindUnit, convert)
	if err != nil {
		return nil, err
	}
	return maskOutside(v, MinMaxWind, MaxMaxWind), nil
}

// RMaxes converts radius of maximum wind to km and masks implausible values.
func RMaxes(raw []float64, unit string, convert ConvertFunc) ([]float64, error) {
	r, err := convertKeepingMissing(raw, unit, LengthUnit, convert)
	if err != nil {
		return nil, err
	}
	r = maskOutside(r, MinRMax, MaxRMax)
	for i, v := range r {
		if v == MinRMax {
			r[i] = Missing()
		}
	}
	return r, nil
}

// RMaxRate is the rate of change of rMax in km/hr, missing at track starts,
// where rMax is missing and where the result is non-finite.
func RMaxRate(rmax, elapsed []float64, ind Indicator) []float64 {
	rate := divide(firstDifference(rmax), elapsed)
	rate = maskWhere(rate, ind)
	for i, r := range rmax {
		if IsMissing(r) {
			rate[i] = Missing()
		}
	}
	return maskNonFinite(rate)
}

// rawSpeeds is distance over elapsed time in km/h without any masking.
func rawSpeeds(distance, elapsed []float64) []float64 {
	return divide(distance, elapsed)
}

// Speeds returns translation speed in km/h, missing at track starts, outside
// [MinSpeed, MaxSpeed] and where non-finite.
func Speeds(distance, elapsed []float64, ind Indicator) []float64 {
	speed := maskNonFinite(rawSpeeds(distance, elapsed))
	speed = maskOutside(speed, MinSpeed, MaxSpeed)
	return maskWhere(speed, ind)
}

// SpeedRate is the translation acceleration in km/h/hr. A fix with an invalid
// speed is treated like a track start: neither it nor the following fix gets
// a rate.
func SpeedRate(distance, elapsed []float64, ind Indicator) []float64 {
	speed := rawSpeeds(distance, elapsed)
	invalid := append(Indicator(nil), ind...)
	for i, s := range speed {
		if s < MinSpeed || s > MaxSpeed {
			invalid[i] = true
		}
	}
	rate := divide(firstDifference(speed), elapsed)
	rate = maskWhere(rate, or(invalid, shiftForward(invalid)))
	return maskNonFinite(rate)
}

// Bearings masks the leg bearing at track starts, where the leg crosses from
// one track into the next.
func Bearings(bearing []float64, ind Indicator) []float64 {
	return maskWhere(bearing, ind)
}

// WrapBearingChange maps a raw bearing difference into [-180, 180] so that a
// turn from 350 to 10 degrees is +20, not -340.
func WrapBearingChange(delta float64) float64 {
	switch {
	case delta > 180:
		return delta - 360
	case delta < -180:
		return delta + 360
	default:
		return delta
	}
}

// BearingRate is the rate of turning in degrees/hr. It is missing at track
// starts and at the second fix of each track, whose bearing change spans the
// genesis leg.
func BearingRate(bearing, elapsed []float64, ind Indicator) []float64 {
	masked := Bearings(bearing, ind)
	change := firstDifference(masked)
	for i, d := range change {
		change[i] = WrapBearingChange(d)
	}
	rate := divide(change, elapsed)
	rate = maskWhere(rate, or(ind, shiftForward(ind)))
	return maskNonFinite(rate)
}
