package domain

import (
	"errors"
	"fmt"
	"math"
)

// Forced split thresholds in degrees. Consecutive fixes further apart than this
// cannot belong to one storm, whatever the identifying columns say.
const (
	MaxTrackLonJump = 15.0
	MaxTrackLatJump = 5.0
)

// ErrNoTrackColumns is returned when none of the boundary strategies can run.
var ErrNoTrackColumns = errors.New("insufficient columns to delimit tracks: need one of index, tcserialno, season+num or num")

// Indicator marks observations that begin a new track.
type Indicator []bool

// Count returns the number of flagged observations.
func (ind Indicator) Count() int {
	n := 0
	for _, v := range ind {
		if v {
			n++
		}
	}
	return n
}

// Floats returns the indicator as 0/1 values.
func (ind Indicator) Floats() []float64 {
	out := make([]float64, len(ind))
	for i, v := range ind {
		if v {
			out[i] = 1
		}
	}
	return out
}

// BoundaryStrategy detects track starts from one group of identifying columns.
type BoundaryStrategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// CanRun reports whether the dataset provides the columns the strategy needs.
	CanRun(ds *Dataset) bool
	// Boundaries computes the track indicator.
	Boundaries(ds *Dataset) (Indicator, error)
}

// DefaultBoundaryStrategies lists the strategies in priority order.
var DefaultBoundaryStrategies = []BoundaryStrategy{
	IndexStrategy{},
	SerialStrategy{},
	SeasonNumberStrategy{},
	NumberStrategy{},
}

// IndexStrategy uses an explicit per-observation start flag verbatim.
type IndexStrategy struct{}

func (IndexStrategy) Name() string { return "index" }

func (IndexStrategy) CanRun(ds *Dataset) bool { return ds.Has(ColIndex) }

func (IndexStrategy) Boundaries(ds *Dataset) (Indicator, error) {
	flags, err := ds.Floats(ColIndex)
	if err != nil {
		return nil, err
	}
	ind := make(Indicator, len(flags))
	for i, f := range flags {
		ind[i] = !IsMissing(f) && f != 0
	}
	return ind, nil
}

// SerialStrategy starts a new track whenever the serial identifier changes.
type SerialStrategy struct{}

func (SerialStrategy) Name() string { return "serial" }

func (SerialStrategy) CanRun(ds *Dataset) bool { return ds.Has(ColSerial) }

func (SerialStrategy) Boundaries(ds *Dataset) (Indicator, error) {
	serial, err := ds.Strings(ColSerial)
	if err != nil {
		return nil, err
	}
	ind := make(Indicator, len(serial))
	for i := range serial {
		ind[i] = i == 0 || serial[i] != serial[i-1]
	}
	return ind, nil
}

// SeasonNumberStrategy starts a new track when either season or storm number changes.
type SeasonNumberStrategy struct{}

func (SeasonNumberStrategy) Name() string { return "season+num" }

func (SeasonNumberStrategy) CanRun(ds *Dataset) bool { return ds.HasAll(ColSeason, ColNumber) }

func (SeasonNumberStrategy) Boundaries(ds *Dataset) (Indicator, error) {
	season, err := ds.Ints(ColSeason)
	if err != nil {
		return nil, err
	}
	num, err := ds.Ints(ColNumber)
	if err != nil {
		return nil, err
	}
	ind := make(Indicator, len(num))
	for i := range num {
		ind[i] = i == 0 || season[i] != season[i-1] || num[i] != num[i-1]
	}
	return ind, nil
}

// NumberStrategy treats any increase of the storm number as a new track. It is
// the fallback for sources without season information; a decrease or repeat
// continues the current track.
type NumberStrategy struct{}

func (NumberStrategy) Name() string { return "num" }

func (NumberStrategy) CanRun(ds *Dataset) bool { return ds.Has(ColNumber) }

func (NumberStrategy) Boundaries(ds *Dataset) (Indicator, error) {
	num, err := ds.Ints(ColNumber)
	if err != nil {
		return nil, err
	}
	ind := make(Indicator, len(num))
	for i := range num {
		ind[i] = i == 0 || num[i] > num[i-1]
	}
	return ind, nil
}

// PrimaryIndicator runs the first applicable strategy and returns its indicator
// and name. The first observation always starts a track.
func PrimaryIndicator(ds *Dataset, strategies []BoundaryStrategy) (Indicator, string, error) {
	for _, s := range strategies {
		if !s.CanRun(ds) {
			continue
		}
		ind, err := s.Boundaries(ds)
		if err != nil {
			return nil, s.Name(), fmt.Errorf("%s boundaries: %w", s.Name(), err)
		}
		if len(ind) > 0 {
			ind[0] = true
		}
		return ind, s.Name(), nil
	}
	return nil, "", ErrNoTrackColumns
}

// ForceSplits returns a copy of ind with a track start forced wherever
// consecutive fixes jump more than MaxTrackLonJump in longitude or
// MaxTrackLatJump in latitude. It also returns the number of starts it added.
func ForceSplits(ind Indicator, lon, lat []float64) (Indicator, int) {
	out := append(Indicator(nil), ind...)
	added := 0
	for i := 1; i < len(out); i++ {
		if math.Abs(lon[i]-lon[i-1]) > MaxTrackLonJump || math.Abs(lat[i]-lat[i-1]) > MaxTrackLatJump {
			if !out[i] {
				added++
			}
			out[i] = true
		}
	}
	return out, added
}

// InitialIndex flags track starts whose track has at least two members. The
// last observation can never be flagged.
func InitialIndex(ind Indicator) Indicator {
	out := make(Indicator, len(ind))
	for i := 0; i < len(ind)-1; i++ {
		out[i] = ind[i] && !ind[i+1]
	}
	return out
}

// FilterSeasons drops observations whose season is below minSeason. The first
// kept observation after a dropped one starts a new track. A minSeason of 0 or a
// dataset without a season column leaves the input untouched.
func FilterSeasons(ds *Dataset, ind Indicator, minSeason int) (*Dataset, Indicator, int, error) {
	if minSeason <= 0 || !ds.Has(ColSeason) {
		return ds, ind, 0, nil
	}
	season, err := ds.Ints(ColSeason)
	if err != nil {
		return nil, nil, 0, err
	}

	keep := make([]bool, len(season))
	filtered := make(Indicator, 0, len(season))
	dropped := 0
	prevDropped := false
	for i, s := range season {
		if s < minSeason {
			dropped++
			prevDropped = true
			continue
		}
		keep[i] = true
		filtered = append(filtered, ind[i] || prevDropped)
		prevDropped = false
	}
	if len(filtered) > 0 {
		filtered[0] = true
	}

	out, err := ds.Filter(keep)
	if err != nil {
		return nil, nil, 0, err
	}
	if out.Len() != len(filtered) {
		return nil, nil, 0, fmt.Errorf("%w: filtered dataset has %d rows, indicator %d", ErrLengthMismatch, out.Len(), len(filtered))
	}
	return out, filtered, dropped, nil
}
