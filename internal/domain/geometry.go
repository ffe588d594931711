package domain

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// LongitudeConvention describes which direction the input longitudes increase.
type LongitudeConvention int

const (
	// EastPositive is the usual convention: longitudes increase eastward.
	EastPositive LongitudeConvention = iota
	// WestPositive is used by some archives that report degrees west as positive.
	WestPositive
)

// NormalizeLongitudes maps every longitude into [0, 360).
func NormalizeLongitudes(lon []float64) []float64 {
	out := make([]float64, len(lon))
	for i, v := range lon {
		out[i] = wrap360(v)
	}
	return out
}

func wrap360(deg float64) float64 {
	v := math.Mod(deg, 360)
	if v < 0 {
		v += 360
	}
	return v
}

// EastLongitude returns lon in [0, 360) measured eastward, flipping the sign for
// west-positive sources.
func EastLongitude(lon float64, conv LongitudeConvention) float64 {
	if conv == WestPositive {
		return wrap360(-lon)
	}
	return wrap360(lon)
}

// Legs computes the forward bearing (compass degrees, 0-360) and great-circle
// distance in km from each fix to the next. Both outputs are aligned to the
// later fix, so index 0 is missing.
func Legs(lon, lat []float64, conv LongitudeConvention) (bearing, distance []float64) {
	n := len(lon)
	bearing = missingSeries(n)
	distance = missingSeries(n)
	for i := 1; i < n; i++ {
		from := point(lon[i-1], lat[i-1], conv)
		to := point(lon[i], lat[i], conv)
		if IsMissing(from.Lon()) || IsMissing(from.Lat()) || IsMissing(to.Lon()) || IsMissing(to.Lat()) {
			continue
		}
		bearing[i] = wrap360(geo.Bearing(from, to))
		distance[i] = geo.DistanceHaversine(from, to) / 1000
	}
	return bearing, distance
}

func point(lon, lat float64, conv LongitudeConvention) orb.Point {
	if conv == WestPositive {
		lon = -lon
	}
	return orb.Point{lon, lat}
}
