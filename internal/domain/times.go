package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// DefaultDateFormat matches the ISO-like timestamps most best-track archives use.
const DefaultDateFormat = "%Y-%m-%d %H:%M:%S"

// Year-less sources (e.g. synthetic WindRiskTech sets) get a placeholder year:
// each track starts in yearlessEpoch and rolls to the next year once it reaches
// January. This only accommodates that source format; it is not calendar inference.
const yearlessEpoch = 2000

// Times holds the per-observation time information every derived rate needs.
type Times struct {
	// Elapsed is hours since the previous observation; Elapsed[0] is 0.
	Elapsed []float64
	// Year and JulianDay are nil when the source has no calendar fields (age only).
	Year      []int
	JulianDay []int
	// Strategy names the representation the times were resolved from.
	Strategy string
}

// HasCalendar reports whether calendar year and day-of-year are available.
func (t Times) HasCalendar() bool { return t.Year != nil && t.JulianDay != nil }

// ResolveTimes derives elapsed hours (and calendar fields when available) using
// the first matching representation: age, date string, then year/month/day/hour
// fields. ind is used only by the year-less placeholder heuristic.
func ResolveTimes(ds *Dataset, ind Indicator, dateFormat string, logger *slog.Logger) (Times, error) {
	switch {
	case ds.Has(ColAge):
		return timesFromAge(ds)
	case ds.Has(ColDate):
		stamps, err := parseDates(ds, dateFormat)
		if err != nil {
			return Times{}, err
		}
		return timesFromStamps(stamps, "date"), nil
	case ds.HasAll(ColMonth, ColDay, ColHour):
		stamps, err := stampsFromFields(ds, ind, logger)
		if err != nil {
			return Times{}, err
		}
		return timesFromStamps(stamps, "fields"), nil
	default:
		return Times{}, fmt.Errorf("%w: need one of age, date or month/day/hour", ErrMissingColumn)
	}
}

func timesFromAge(ds *Dataset) (Times, error) {
	age, err := ds.Floats(ColAge)
	if err != nil {
		return Times{}, err
	}
	elapsed := make([]float64, len(age))
	for i := 1; i < len(age); i++ {
		elapsed[i] = age[i] - age[i-1]
	}
	return Times{Elapsed: elapsed, Strategy: "age"}, nil
}

func timesFromStamps(stamps []time.Time, strategy string) Times {
	t := Times{
		Elapsed:   make([]float64, len(stamps)),
		Year:      make([]int, len(stamps)),
		JulianDay: make([]int, len(stamps)),
		Strategy:  strategy,
	}
	for i, s := range stamps {
		t.Year[i] = s.Year()
		t.JulianDay[i] = s.YearDay()
		if i > 0 {
			t.Elapsed[i] = s.Sub(stamps[i-1]).Hours()
		}
	}
	return t
}

// parseDates parses every date string. Any failure aborts the run so that all
// per-observation arrays stay index-aligned.
func parseDates(ds *Dataset, format string) ([]time.Time, error) {
	raw, err := ds.Strings(ColDate)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = DefaultDateFormat
	}
	stamps := make([]time.Time, len(raw))
	for i, s := range raw {
		ts, err := parseDate(strings.TrimSpace(s), format)
		if err != nil {
			return nil, &RecordError{Index: i, Field: ColDate, Err: err}
		}
		stamps[i] = ts
	}
	return stamps, nil
}

// parseDate accepts strftime-style formats ("%Y-%m-%d %H:%M") as well as Go
// reference layouts ("2006-01-02 15:04").
func parseDate(value, format string) (time.Time, error) {
	if strings.Contains(format, "%") {
		return strftime.Parse(format, value)
	}
	return time.Parse(format, value)
}

func stampsFromFields(ds *Dataset, ind Indicator, logger *slog.Logger) ([]time.Time, error) {
	month, err := ds.Ints(ColMonth)
	if err != nil {
		return nil, err
	}
	day, err := ds.Ints(ColDay)
	if err != nil {
		return nil, err
	}
	hour, err := ds.Ints(ColHour)
	if err != nil {
		return nil, err
	}

	var year []int
	if ds.Has(ColYear) {
		if year, err = ds.Ints(ColYear); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("no year column, assigning placeholder years", "epoch", yearlessEpoch)
		year = placeholderYears(month, ind)
	}

	var minute []int
	if ds.Has(ColMinute) {
		if minute, err = ds.Ints(ColMinute); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("missing minute data, setting minutes to 00 for all times")
		minute = make([]int, len(hour))
	}

	stamps := make([]time.Time, len(month))
	for i := range month {
		ts, err := calendarTime(year[i], month[i], day[i], hour[i], minute[i])
		if err != nil {
			return nil, &RecordError{Index: i, Field: "date fields", Err: err}
		}
		stamps[i] = ts
	}
	return stamps, nil
}

// placeholderYears carries a synthetic year forward: reset to the epoch at every
// track start, bumped by one once the track is observed in January.
func placeholderYears(month []int, ind Indicator) []int {
	year := make([]int, len(month))
	fill := yearlessEpoch
	for i := range month {
		if i < len(ind) && ind[i] {
			fill = yearlessEpoch
		}
		if month[i] == 1 {
			fill = yearlessEpoch + 1
		}
		year[i] = fill
	}
	return year
}

var errInvalidCalendar = errors.New("invalid calendar date")

// calendarTime builds a UTC time, rejecting combinations time.Date would
// silently normalize (e.g. 31 April).
func calendarTime(year, month, day, hour, minute int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: month %d", errInvalidCalendar, month)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: time %02d:%02d", errInvalidCalendar, hour, minute)
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if day < 1 || ts.Day() != day || ts.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", errInvalidCalendar, year, month, day)
	}
	return ts, nil
}
