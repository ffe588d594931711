package domain

import (
	"errors"
	"fmt"
	"log/slog"
)

// Surface is the land/sea classification of a position.
type Surface int

const (
	Sea Surface = iota
	Land
)

// LandSampler classifies a position as land or sea.
type LandSampler interface {
	SampleLandFlag(lon, lat float64) Surface
}

// SeaEverywhere is the sampler used when no land mask is configured.
type SeaEverywhere struct{}

func (SeaEverywhere) SampleLandFlag(float64, float64) Surface { return Sea }

// Options carries per-source settings for one engine run.
type Options struct {
	SpeedUnit    string
	PressureUnit string
	LengthUnit   string
	DateFormat   string
	MinSeason    int
	Longitudes   LongitudeConvention
	Strategies   []BoundaryStrategy
	Convert      ConvertFunc
	Land         LandSampler
}

// TrackSet is everything the engine derives from one observation batch.
// Per-observation series are index-aligned with Indicator.
type TrackSet struct {
	Strategy     string
	Indicator    Indicator
	InitialIndex Indicator
	ForcedSplits int
	Dropped      int

	Lon      []float64
	Lat      []float64
	LandFlag []float64
	Times    Times

	Bearing  Partitioned
	Speed    Partitioned
	Pressure Partitioned
	MaxWind  Partitioned
	RMax     Partitioned

	PressureRate []float64
	SpeedRate    []float64
	BearingRate  []float64
	RMaxRate     []float64

	// GenesisYears is the season (or calendar year) at each track start,
	// labelled by GenesisLabel. Empty when neither is available.
	GenesisYears []int
	GenesisLabel string

	Frequency  *FrequencyHistogram
	JulianDays *JulianDistribution
}

// Tracks returns the number of tracks.
func (ts *TrackSet) Tracks() int { return ts.Indicator.Count() }

// Process runs the segmentation and derivation engine over one dataset.
func Process(ds *Dataset, opts Options, logger *slog.Logger) (*TrackSet, error) {
	if opts.Convert == nil {
		return nil, errors.New("no unit converter configured")
	}
	if opts.Strategies == nil {
		opts.Strategies = DefaultBoundaryStrategies
	}
	if opts.Land == nil {
		opts.Land = SeaEverywhere{}
	}
	if !ds.HasAll(ColLon, ColLat, ColPressure) {
		return nil, fmt.Errorf("%w: lon, lat and pressure are required", ErrMissingColumn)
	}

	ind, strategy, err := PrimaryIndicator(ds, opts.Strategies)
	if err != nil {
		return nil, err
	}
	logger.Info("determined track starts", "strategy", strategy, "tracks", ind.Count())

	ds, ind, dropped, err := FilterSeasons(ds, ind, opts.MinSeason)
	if err != nil {
		return nil, fmt.Errorf("filter seasons: %w", err)
	}
	if dropped > 0 {
		logger.Info("filtered observations before start season", "min_season", opts.MinSeason, "dropped", dropped)
	}

	times, err := ResolveTimes(ds, ind, opts.DateFormat, logger)
	if err != nil {
		return nil, fmt.Errorf("resolve times: %w", err)
	}

	rawLon, err := ds.Floats(ColLon)
	if err != nil {
		return nil, err
	}
	lat, err := ds.Floats(ColLat)
	if err != nil {
		return nil, err
	}
	lon := NormalizeLongitudes(rawLon)

	ind, forced := ForceSplits(ind, lon, lat)
	if forced > 0 {
		logger.Info("split tracks at large position jumps", "splits", forced)
	}
	initIdx := InitialIndex(ind)

	ts := &TrackSet{
		Strategy:     strategy,
		Indicator:    ind,
		InitialIndex: initIdx,
		ForcedSplits: forced,
		Dropped:      dropped,
		Lon:          lon,
		Lat:          lat,
		Times:        times,
	}

	logger.Info("extracting longitudes and latitudes")
	ts.LandFlag = make([]float64, len(lon))
	for i := range lon {
		if opts.Land.SampleLandFlag(EastLongitude(lon[i], opts.Longitudes), lat[i]) == Land {
			ts.LandFlag[i] = 1
		}
	}

	if err := ts.derivePressure(ds, opts, logger); err != nil {
		return nil, err
	}
	if err := ts.deriveMaxWind(ds, opts, logger); err != nil {
		return nil, err
	}
	if err := ts.deriveRMax(ds, opts, logger); err != nil {
		return nil, err
	}
	ts.deriveMotion(opts.Longitudes, logger)

	if err := ts.deriveSeasonality(ds, logger); err != nil {
		return nil, err
	}
	return ts, nil
}

func (ts *TrackSet) derivePressure(ds *Dataset, opts Options, logger *slog.Logger) error {
	logger.Info("extracting pressures")
	raw, err := ds.Floats(ColPressure)
	if err != nil {
		return err
	}
	p, err := Pressures(raw, opts.PressureUnit, opts.Convert)
	if err != nil {
		return fmt.Errorf("convert pressure: %w", err)
	}
	ts.Pressure = partitionAtInstant(p, ts.Indicator)
	ts.PressureRate = PressureRate(p, ts.Times.Elapsed, ts.Indicator)
	return nil
}

func (ts *TrackSet) deriveMaxWind(ds *Dataset, opts Options, logger *slog.Logger) error {
	logger.Info("extracting maximum sustained wind speeds")
	if !ds.Has(ColMaxWind) {
		logger.Warn("no max wind speed data")
		ts.MaxWind = partitionAtInstant(missingSeries(ds.Len()), ts.Indicator)
		return nil
	}
	raw, err := ds.Floats(ColMaxWind)
	if err != nil {
		return err
	}
	v, err := MaxWinds(raw, opts.SpeedUnit, opts.Convert)
	if err != nil {
		return fmt.Errorf("convert max wind: %w", err)
	}
	ts.MaxWind = partitionAtInstant(v, ts.Indicator)
	return nil
}

func (ts *TrackSet) deriveRMax(ds *Dataset, opts Options, logger *slog.Logger) error {
	logger.Info("extracting radii to maximum winds")
	r := missingSeries(ds.Len())
	if ds.Has(ColRMax) {
		raw, err := ds.Floats(ColRMax)
		if err != nil {
			return err
		}
		if r, err = RMaxes(raw, opts.LengthUnit, opts.Convert); err != nil {
			return fmt.Errorf("convert rmax: %w", err)
		}
	} else {
		logger.Warn("no rmax data available, downstream will use published distributions")
	}
	ts.RMax = partitionAtInstant(r, ts.Indicator)
	ts.RMaxRate = RMaxRate(r, ts.Times.Elapsed, ts.Indicator)
	return nil
}

func (ts *TrackSet) deriveMotion(conv LongitudeConvention, logger *slog.Logger) {
	bearing, distance := Legs(ts.Lon, ts.Lat, conv)

	logger.Info("extracting bearings")
	ts.Bearing = partitionMotion(Bearings(bearing, ts.Indicator), ts.Indicator, ts.InitialIndex)
	ts.BearingRate = BearingRate(bearing, ts.Times.Elapsed, ts.Indicator)

	logger.Info("extracting speeds")
	ts.Speed = partitionMotion(Speeds(distance, ts.Times.Elapsed, ts.Indicator), ts.Indicator, ts.InitialIndex)
	ts.SpeedRate = SpeedRate(distance, ts.Times.Elapsed, ts.Indicator)
}

func (ts *TrackSet) deriveSeasonality(ds *Dataset, logger *slog.Logger) error {
	var years []int
	switch {
	case ds.Has(ColSeason):
		season, err := ds.Ints(ColSeason)
		if err != nil {
			return err
		}
		years, ts.GenesisLabel = season, "Season"
	case ts.Times.HasCalendar():
		years, ts.GenesisLabel = ts.Times.Year, "Year"
	default:
		logger.Warn("no season or calendar year, skipping genesis year outputs")
		return nil
	}
	for i, y := range years {
		if ts.Indicator[i] {
			ts.GenesisYears = append(ts.GenesisYears, y)
		}
	}

	logger.Info("extracting annual frequency of events")
	if h, ok := GenesisFrequency(years, ts.Indicator); ok {
		ts.Frequency = &h
		logger.Info("annual frequency", "mean", h.Mean, "std_dev", h.StdDev)
	} else {
		logger.Info("first and last year are the same, cannot generate frequency histogram")
	}

	if !ts.Times.HasCalendar() {
		logger.Warn("no calendar information, skipping julian day distribution")
		return nil
	}
	logger.Info("calculating annual distribution of observations")
	jd := JulianDays(ts.Times.JulianDay, ts.Times.Year, ts.Indicator)
	ts.JulianDays = &jd
	return nil
}
