package domain

import "math"

// LegacyMissingValue is the marker older tooling used for "no value". Raw inputs
// may still carry it; it is recognized on the way in and only re-emitted by
// sinks that need it.
const LegacyMissingValue = math.MaxInt32

// Missing returns the in-memory representation of an absent value (NaN).
// NaN propagates through arithmetic, so a rate computed from a missing operand
// is itself missing.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v marks an absent value.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// isLegacyMarker reports whether a raw value is one of the large integer markers
// upstream sources use for missing data.
func isLegacyMarker(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) >= LegacyMissingValue
}

// missingSeries returns a series of n missing values.
func missingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = Missing()
	}
	return out
}

// maskWhere returns a copy of values with every position where mask[i] is true
// set to missing.
func maskWhere(values []float64, mask []bool) []float64 {
	out := append([]float64(nil), values...)
	for i := range out {
		if mask[i] {
			out[i] = Missing()
		}
	}
	return out
}

// maskNonFinite replaces infinities with missing values. NaN is already missing.
func maskNonFinite(values []float64) []float64 {
	out := append([]float64(nil), values...)
	for i, v := range out {
		if math.IsInf(v, 0) {
			out[i] = Missing()
		}
	}
	return out
}

// maskOutside masks values outside [lo, hi].
func maskOutside(values []float64, lo, hi float64) []float64 {
	out := append([]float64(nil), values...)
	for i, v := range out {
		if v < lo || v > hi {
			out[i] = Missing()
		}
	}
	return out
}

// dropMissing removes missing values.
func dropMissing(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// CountMissing returns the number of missing values in a series.
func CountMissing(values []float64) int {
	n := 0
	for _, v := range values {
		if IsMissing(v) {
			n++
		}
	}
	return n
}
