package domain

import "math"

// DaysPerYear is the number of day-of-year bins after the leap-day shift.
const DaysPerYear = 365

// FrequencyHistogram counts genesis events per year (or season).
type FrequencyHistogram struct {
	Years  []int
	Counts []int
	Mean   float64
	StdDev float64
}

// GenesisFrequency bins genesis years into one-year bins spanning every
// observed year, so years without a genesis count as zero. It returns ok=false
// when the data covers a single year, in which case no histogram can be built.
func GenesisFrequency(years []int, ind Indicator) (FrequencyHistogram, bool) {
	if len(years) == 0 {
		return FrequencyHistogram{}, false
	}
	lo, hi := years[0], years[0]
	for _, y := range years {
		lo = min(lo, y)
		hi = max(hi, y)
	}
	if lo == hi {
		return FrequencyHistogram{}, false
	}

	h := FrequencyHistogram{
		Years:  make([]int, hi-lo+1),
		Counts: make([]int, hi-lo+1),
	}
	for i := range h.Years {
		h.Years[i] = lo + i
	}
	for i, y := range years {
		if ind[i] {
			h.Counts[y-lo]++
		}
	}
	h.Mean, h.StdDev = meanStd(h.Counts)
	return h, true
}

// meanStd returns the mean and population standard deviation.
func meanStd(counts []int) (float64, float64) {
	var sum float64
	for _, c := range counts {
		sum += float64(c)
	}
	mean := sum / float64(len(counts))
	var ss float64
	for _, c := range counts {
		d := float64(c) - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(counts)))
}

// JulianDistribution holds day-of-year histograms of genesis and all fixes.
type JulianDistribution struct {
	Days           []int // 1..DaysPerYear
	GenesisCounts  []int
	ObservedCounts []int
	GenesisDays    []int
}

// ShiftLeapDays moves every day-of-year from 60 (29 February) onward back by one
// in years divisible by 4, so leap and common years share bins. Century years
// that are not leap years (1900, 2100) are shifted too; see DESIGN.md.
func ShiftLeapDays(jdays, years []int) []int {
	out := append([]int(nil), jdays...)
	for i := range out {
		if years[i]%4 == 0 && out[i] >= 60 {
			out[i]--
		}
	}
	return out
}

// JulianDays builds day-of-year histograms over genesis fixes and all fixes.
func JulianDays(jdays, years []int, ind Indicator) JulianDistribution {
	shifted := ShiftLeapDays(jdays, years)
	d := JulianDistribution{
		Days:           make([]int, DaysPerYear),
		GenesisCounts:  make([]int, DaysPerYear),
		ObservedCounts: make([]int, DaysPerYear),
	}
	for i := range d.Days {
		d.Days[i] = i + 1
	}
	for i, day := range shifted {
		bin := min(max(day, 1), DaysPerYear) - 1
		d.ObservedCounts[bin]++
		if ind[i] {
			d.GenesisCounts[bin]++
			d.GenesisDays = append(d.GenesisDays, day)
		}
	}
	return d
}
