package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenesisFrequency(t *testing.T) {
	years := []int{2000, 2000, 2001, 2001, 2001}
	ind := Indicator{true, false, true, false, false}

	h, ok := GenesisFrequency(years, ind)
	require.True(t, ok)
	assert.Equal(t, []int{2000, 2001}, h.Years)
	assert.Equal(t, []int{1, 1}, h.Counts)
	assert.InDelta(t, 1, h.Mean, 1e-9)
	assert.InDelta(t, 0, h.StdDev, 1e-9)
}

func TestGenesisFrequency_EmptyYearsIncluded(t *testing.T) {
	years := []int{1990, 1990, 1993, 1993}
	ind := Indicator{true, true, true, false}

	h, ok := GenesisFrequency(years, ind)
	require.True(t, ok)
	assert.Equal(t, []int{1990, 1991, 1992, 1993}, h.Years)
	assert.Equal(t, []int{2, 0, 0, 1}, h.Counts)
	assert.InDelta(t, 0.75, h.Mean, 1e-9)
	assert.InDelta(t, 0.8292, h.StdDev, 1e-4)
}

func TestGenesisFrequency_RangeSpansAllObservations(t *testing.T) {
	// a storm forming in 2000 and running into 2001
	h, ok := GenesisFrequency([]int{2000, 2000, 2001}, Indicator{true, false, false})
	require.True(t, ok)
	assert.Equal(t, []int{2000, 2001}, h.Years)
	assert.Equal(t, []int{1, 0}, h.Counts)
	assert.InDelta(t, 0.5, h.Mean, 1e-9)
	assert.InDelta(t, 0.5, h.StdDev, 1e-9)

	// trailing year without genesis still counts as a zero bin
	h, ok = GenesisFrequency([]int{2000, 2002, 2003}, Indicator{true, true, false})
	require.True(t, ok)
	assert.Equal(t, []int{2000, 2001, 2002, 2003}, h.Years)
	assert.Equal(t, []int{1, 0, 1, 0}, h.Counts)
	assert.InDelta(t, 0.5, h.Mean, 1e-9)
}

func TestGenesisFrequency_SingleYear(t *testing.T) {
	_, ok := GenesisFrequency([]int{2005, 2005}, Indicator{true, true})
	assert.False(t, ok)

	_, ok = GenesisFrequency(nil, Indicator{})
	assert.False(t, ok)
}

func TestShiftLeapDays(t *testing.T) {
	jdays := []int{59, 60, 366, 60, 60}
	years := []int{2000, 2000, 2000, 2001, 1900}

	out := ShiftLeapDays(jdays, years)
	assert.Equal(t, []int{59, 59, 365, 60, 59}, out)
	assert.Equal(t, []int{59, 60, 366, 60, 60}, jdays, "input must not be modified")
}

func TestJulianDays(t *testing.T) {
	jdays := []int{1, 2, 61, 61, 365}
	years := []int{2001, 2001, 2004, 2005, 2005}
	ind := Indicator{true, false, true, true, false}

	d := JulianDays(jdays, years, ind)
	require.Len(t, d.Days, DaysPerYear)
	assert.Equal(t, 1, d.Days[0])
	assert.Equal(t, DaysPerYear, d.Days[DaysPerYear-1])

	assert.Equal(t, []int{1, 60, 61}, d.GenesisDays)
	assert.Equal(t, 1, d.GenesisCounts[0])
	assert.Equal(t, 1, d.GenesisCounts[59])
	assert.Equal(t, 1, d.GenesisCounts[60])
	assert.Equal(t, 1, d.ObservedCounts[1])
	assert.Equal(t, 1, d.ObservedCounts[364])

	total := 0
	for _, c := range d.ObservedCounts {
		total += c
	}
	assert.Equal(t, len(jdays), total)
}
