package pipeline

import (
	"strings"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
)

// Series is one named output of a run: equal-length columns written as rows,
// with a header line and a printf verb applied to every value.
type Series struct {
	Name    string
	Header  string
	Format  string
	Columns [][]float64
}

// Rows returns the number of rows in the series.
func (s Series) Rows() int {
	if len(s.Columns) == 0 {
		return 0
	}
	return len(s.Columns[0])
}

// Integer reports whether values are written as whole numbers.
func (s Series) Integer() bool { return strings.HasSuffix(s.Format, "d") }

// Missing counts missing values across all columns.
func (s Series) Missing() int {
	n := 0
	for _, col := range s.Columns {
		n += domain.CountMissing(col)
	}
	return n
}

const (
	formatPosition = "%6.2f"
	formatPressure = "%7.2f"
	formatInteger  = "%d"

	headerPosition = "Longitude, Latitude, LSFlag"
)

func single(name, header, format string, values []float64) Series {
	return Series{Name: name, Header: header, Format: format, Columns: [][]float64{values}}
}

func compressRows(ind domain.Indicator, cols ...[]float64) [][]float64 {
	out := make([][]float64, len(cols))
	for c, col := range cols {
		kept := make([]float64, 0, ind.Count())
		for i, v := range col {
			if ind[i] {
				kept = append(kept, v)
			}
		}
		out[c] = kept
	}
	return out
}

func ints(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// BuildSeries lays out a TrackSet as the catalogue of named output series.
// Series that depend on data the source did not provide are omitted.
func BuildSeries(ts *domain.TrackSet) []Series {
	out := []Series{
		{Name: "origin_lon_lat", Header: headerPosition, Format: formatPosition,
			Columns: compressRows(ts.Indicator, ts.Lon, ts.Lat, ts.LandFlag)},
		{Name: "init_lon_lat", Header: headerPosition, Format: formatPosition,
			Columns: compressRows(ts.InitialIndex, ts.Lon, ts.Lat, ts.LandFlag)},
		{Name: "all_lon_lat", Header: headerPosition, Format: formatPosition,
			Columns: [][]float64{ts.Lon, ts.Lat, ts.LandFlag}},
		{Name: "cyclone_tracks", Header: "Cyclone Origin,Longitude,Latitude, LSflag", Format: formatPosition,
			Columns: [][]float64{ts.Indicator.Floats(), ts.Lon, ts.Lat, ts.LandFlag}},
	}

	if len(ts.GenesisYears) > 0 {
		out = append(out, single("origin_year", ts.GenesisLabel, formatInteger, ints(ts.GenesisYears)))
	}

	out = append(out,
		single("all_bearing", "all cyclone bearing in degrees", formatPosition, ts.Bearing.All),
		single("init_bearing", "initial cyclone bearing in degrees", formatPosition, ts.Bearing.Initial),
		single("bearing_no_init", "cyclone bearings without initial ones in degrees", formatPosition, ts.Bearing.NonInitial),
		single("all_speed", "all cyclone speed in km/hour", formatPosition, ts.Speed.All),
		single("init_speed", "initial cyclone speed in km/hour", formatPosition, ts.Speed.Initial),
		single("speed_no_init", "cyclone speed without initial ones in km/hour", formatPosition, ts.Speed.NonInitial),
		single("all_pressure", "all cyclone pressure in hPa", formatPressure, ts.Pressure.All),
		single("init_pressure", "initial cyclone pressure in hPa", formatPressure, ts.Pressure.Initial),
		single("pressure_no_init", "cyclone pressure without initial ones in hPa", formatPressure, ts.Pressure.NonInitial),
		single("pressure_rate", "All pressure change rates (hPa/hr)", formatPosition, ts.PressureRate),
		single("bearing_rate", "All bearing change rates (degrees/hr)", formatPosition, ts.BearingRate),
		single("speed_rate", "All speed change rates (km/hr/hr)", formatPosition, ts.SpeedRate),
		single("wind_speed", "Maximum wind speed (m/s)", formatPosition, ts.MaxWind.All),
		single("init_wind_speed", "initial maximum wind speed (m/s)", formatPosition, ts.MaxWind.Initial),
		single("wind_speed_no_init", "maximum wind speed excluding initial ones (m/s)", formatPosition, ts.MaxWind.NonInitial),
		single("all_rmax", "rMax (km)", formatPosition, ts.RMax.All),
		single("init_rmax", "initial rmax (km)", formatPosition, ts.RMax.Initial),
		single("rmax_no_init", "rmax excluding initial ones (km)", formatPosition, ts.RMax.NonInitial),
		single("rmax_rate", "All rmax change rates (km/hr)", formatPosition, ts.RMaxRate),
	)

	if h := ts.Frequency; h != nil {
		out = append(out, Series{Name: "frequency", Header: "Year,count", Format: formatInteger,
			Columns: [][]float64{ints(h.Years), ints(h.Counts)}})
	}
	if jd := ts.JulianDays; jd != nil {
		out = append(out,
			Series{Name: "jday_genesis", Header: "Day,count", Format: formatInteger,
				Columns: [][]float64{ints(jd.Days), ints(jd.GenesisCounts)}},
			Series{Name: "jday_obs", Header: "Day,count", Format: formatInteger,
				Columns: [][]float64{ints(jd.Days), ints(jd.ObservedCounts)}},
			single("jdays", "Day", formatInteger, ints(jd.GenesisDays)),
		)
	}
	return out
}
