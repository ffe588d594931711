package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Recognized column names. Input adapters map provider-specific headers onto these.
const (
	ColIndex    = "index"
	ColSerial   = "tcserialno"
	ColSeason   = "season"
	ColNumber   = "num"
	ColDate     = "date"
	ColYear     = "year"
	ColMonth    = "month"
	ColDay      = "day"
	ColHour     = "hour"
	ColMinute   = "minute"
	ColAge      = "age"
	ColLon      = "lon"
	ColLat      = "lat"
	ColPressure = "pressure"
	ColMaxWind  = "vmax"
	ColRMax     = "rmax"
)

// KnownColumns lists every column name the engine understands.
var KnownColumns = []string{
	ColIndex, ColSerial, ColSeason, ColNumber, ColDate, ColYear, ColMonth, ColDay,
	ColHour, ColMinute, ColAge, ColLon, ColLat, ColPressure, ColMaxWind, ColRMax,
}

// IsKnownColumn reports whether name is one of KnownColumns.
func IsKnownColumn(name string) bool {
	for _, c := range KnownColumns {
		if c == name {
			return true
		}
	}
	return false
}

var (
	// ErrMissingColumn is returned when a required column is absent from the dataset.
	ErrMissingColumn = errors.New("missing column")

	// ErrLengthMismatch is returned when columns do not share the same length.
	ErrLengthMismatch = errors.New("column length mismatch")
)

// RecordError identifies the observation position and field that failed to parse.
type RecordError struct {
	Index int
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %s: %v", e.Index, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Dataset is an index-aligned set of raw observation columns keyed by column name.
// Values are kept as strings until a stage asks for them in a typed form.
type Dataset struct {
	columns map[string][]string
	n       int
}

// NewDataset validates that every column has the same length.
func NewDataset(columns map[string][]string) (*Dataset, error) {
	ds := &Dataset{columns: make(map[string][]string, len(columns)), n: -1}
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		values := columns[name]
		if ds.n == -1 {
			ds.n = len(values)
		} else if len(values) != ds.n {
			return nil, fmt.Errorf("%w: %s has %d values, expected %d", ErrLengthMismatch, name, len(values), ds.n)
		}
		ds.columns[name] = append([]string(nil), values...)
	}
	if ds.n == -1 {
		ds.n = 0
	}
	return ds, nil
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return d.n }

// Has reports whether the dataset provides the named column.
func (d *Dataset) Has(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// HasAll reports whether every named column is present.
func (d *Dataset) HasAll(names ...string) bool {
	for _, name := range names {
		if !d.Has(name) {
			return false
		}
	}
	return true
}

// Columns returns the sorted column names.
func (d *Dataset) Columns() []string {
	names := make([]string, 0, len(d.columns))
	for name := range d.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strings returns a copy of the raw values of a column.
func (d *Dataset) Strings(name string) ([]string, error) {
	values, ok := d.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return append([]string(nil), values...), nil
}

// Floats parses a column as float64. Blank cells become missing values.
func (d *Dataset) Floats(name string) ([]float64, error) {
	values, ok := d.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	out := make([]float64, len(values))
	for i, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			out[i] = Missing()
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &RecordError{Index: i, Field: name, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// Ints parses a column as integers. Decimal values such as "1981.0" are accepted
// when they carry no fractional part.
func (d *Dataset) Ints(name string) ([]int, error) {
	values, ok := d.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	out := make([]int, len(values))
	for i, raw := range values {
		v, err := parseInt(raw)
		if err != nil {
			return nil, &RecordError{Index: i, Field: name, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

func parseInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return int(f), nil
}

// Filter returns a new dataset holding only the observations where keep is true,
// preserving their relative order.
func (d *Dataset) Filter(keep []bool) (*Dataset, error) {
	if len(keep) != d.n {
		return nil, fmt.Errorf("%w: filter mask has %d values, expected %d", ErrLengthMismatch, len(keep), d.n)
	}
	out := &Dataset{columns: make(map[string][]string, len(d.columns))}
	for name, values := range d.columns {
		kept := make([]string, 0, len(values))
		for i, v := range values {
			if keep[i] {
				kept = append(kept, v)
			}
		}
		out.columns[name] = kept
		out.n = len(kept)
	}
	if len(d.columns) == 0 {
		out.n = 0
	}
	return out, nil
}
