package domain

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveTimes_Age(t *testing.T) {
	ds := mustDataset(t, map[string][]string{
		ColAge:  {"0", "6", "12", "0", "3"},
		ColDate: {"not", "used", "because", "age", "wins"},
	})

	times, err := ResolveTimes(ds, Indicator{true, false, false, true, false}, "", discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "age", times.Strategy)
	assert.Equal(t, []float64{0, 6, 6, -12, 3}, times.Elapsed)
	assert.False(t, times.HasCalendar())
}

func TestResolveTimes_DateStrings(t *testing.T) {
	ds := mustDataset(t, map[string][]string{
		ColDate: {"1999-12-31 18:00:00", "2000-01-01 00:00:00", "2000-03-01 06:30:00"},
	})

	times, err := ResolveTimes(ds, Indicator{true, false, false}, DefaultDateFormat, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "date", times.Strategy)
	require.True(t, times.HasCalendar())
	assert.Equal(t, []int{1999, 2000, 2000}, times.Year)
	assert.Equal(t, []int{365, 1, 61}, times.JulianDay)
	assert.InDelta(t, 0, times.Elapsed[0], 1e-9)
	assert.InDelta(t, 6, times.Elapsed[1], 1e-9)
	assert.InDelta(t, 60*24+6.5, times.Elapsed[2], 1e-9)
}

func TestResolveTimes_GoLayout(t *testing.T) {
	ds := mustDataset(t, map[string][]string{
		ColDate: {"2005-08-28T12:00", "2005-08-28T18:00"},
	})

	times, err := ResolveTimes(ds, Indicator{true, false}, "2006-01-02T15:04", discardLogger())
	require.NoError(t, err)
	assert.InDelta(t, 6, times.Elapsed[1], 1e-9)
}

func TestResolveTimes_BadDateIsFatal(t *testing.T) {
	ds := mustDataset(t, map[string][]string{
		ColDate: {"2000-01-01 00:00:00", "2000-13-45 00:00:00", "2000-01-02 00:00:00"},
	})

	_, err := ResolveTimes(ds, Indicator{true, false, false}, DefaultDateFormat, discardLogger())
	require.Error(t, err)

	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 1, recErr.Index)
	assert.Equal(t, ColDate, recErr.Field)
	assert.Contains(t, err.Error(), "record 1")
}

func TestResolveTimes_Fields(t *testing.T) {
	ds := mustDataset(t, map[string][]string{
		ColYear:   {"2003", "2003", "2004"},
		ColMonth:  {"12", "12", "1"},
		ColDay:    {"31", "31", "1"},
		ColHour:   {"6", "18", "0"},
		ColMinute: {"0", "30", "0"},
	})

	times, err := ResolveTimes(ds, Indicator{true, false, false}, "", discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "fields", times.Strategy)
	assert.InDelta(t, 12.5, times.Elapsed[1], 1e-9)
	assert.InDelta(t, 5.5, times.Elapsed[2], 1e-9)
	assert.Equal(t, []int{365, 365, 1}, times.JulianDay)
}

func TestResolveTimes_MissingMinuteDefaultsToZero(t *testing.T) {
	ds := mustDataset(t, map[string][]string{
		ColYear:  {"2010", "2010"},
		ColMonth: {"2", "3"},
		ColDay:   {"28", "1"},
		ColHour:  {"0", "0"},
	})

	times, err := ResolveTimes(ds, Indicator{true, false}, "", discardLogger())
	require.NoError(t, err)
	assert.InDelta(t, 24, times.Elapsed[1], 1e-9)
}

func TestResolveTimes_InvalidCalendarIsFatal(t *testing.T) {
	ds := mustDataset(t, map[string][]string{
		ColYear:  {"2010", "2010"},
		ColMonth: {"4", "4"},
		ColDay:   {"30", "31"},
		ColHour:  {"0", "0"},
	})

	_, err := ResolveTimes(ds, Indicator{true, false}, "", discardLogger())
	require.Error(t, err)

	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 1, recErr.Index)
	assert.ErrorIs(t, err, errInvalidCalendar)
}

func TestResolveTimes_NoTimeColumns(t *testing.T) {
	ds := mustDataset(t, map[string][]string{ColLon: {"1"}})
	_, err := ResolveTimes(ds, Indicator{true}, "", discardLogger())
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestPlaceholderYears(t *testing.T) {
	month := []int{11, 12, 1, 2, 12, 12, 1}
	ind := Indicator{true, false, false, false, true, false, false}

	assert.Equal(t, []int{2000, 2000, 2001, 2001, 2000, 2000, 2001}, placeholderYears(month, ind))
}

func TestResolveTimes_YearlessSpansNewYear(t *testing.T) {
	ds := mustDataset(t, map[string][]string{
		ColMonth: {"12", "1"},
		ColDay:   {"31", "1"},
		ColHour:  {"18", "0"},
	})

	times, err := ResolveTimes(ds, Indicator{true, false}, "", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []int{2000, 2001}, times.Year)
	assert.InDelta(t, 6, times.Elapsed[1], 1e-9)
}
