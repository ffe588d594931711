package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
	"github.com/couchcryptid/storm-track-etl/internal/observability"
)

// Extractor reads one observation batch from the source.
type Extractor interface {
	Extract(ctx context.Context) (*domain.Dataset, error)
}

// Transformer derives tracks and per-observation quantities from a batch.
type Transformer interface {
	Transform(ctx context.Context, ds *domain.Dataset) (*domain.TrackSet, error)
}

// Loader persists the output series of a run.
type Loader interface {
	Name() string
	Load(ctx context.Context, run domain.Run, series []Series) error
}

// Result summarizes a completed run.
type Result struct {
	Run          domain.Run
	Observations int
	Tracks       int
	Series       int
}

// Pipeline orchestrates a single extract-transform-load pass.
type Pipeline struct {
	source      string
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline for the named source with the given stages and observability.
func New(source string, e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:      source,
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run processes the source once and writes every series to the loader.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := domain.Now()
	run := domain.NewRun(p.source)
	logger := p.logger.With("run_id", run.ID, "source", run.Source)

	logger.Info("pipeline started", "sink", p.loader.Name())
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ds, err := p.extractor.Extract(ctx)
	if err != nil {
		p.metrics.RunFailures.WithLabelValues("extract").Inc()
		return Result{}, fmt.Errorf("extract: %w", err)
	}
	p.metrics.ObservationsRead.Add(float64(ds.Len()))
	logger.Info("observations read", "count", ds.Len(), "columns", ds.Columns())

	ts, err := p.transformer.Transform(ctx, ds)
	if err != nil {
		p.metrics.RunFailures.WithLabelValues("transform").Inc()
		return Result{}, fmt.Errorf("transform: %w", err)
	}
	p.metrics.ObservationsFiltered.Add(float64(ts.Dropped))
	p.metrics.TracksDetected.Add(float64(ts.Tracks()))
	p.metrics.ForcedSplits.Add(float64(ts.ForcedSplits))

	series := BuildSeries(ts)
	for _, s := range series {
		if n := s.Missing(); n > 0 {
			p.metrics.MaskedValues.WithLabelValues(s.Name).Add(float64(n))
		}
		logger.Debug("series ready", "series", s.Name, "rows", s.Rows())
	}

	if err := p.loader.Load(ctx, run, series); err != nil {
		p.metrics.RunFailures.WithLabelValues("load").Inc()
		return Result{}, fmt.Errorf("load %s: %w", p.loader.Name(), err)
	}
	p.metrics.SeriesWritten.WithLabelValues(p.loader.Name()).Add(float64(len(series)))

	elapsed := domain.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	logger.Info("pipeline finished",
		"tracks", ts.Tracks(),
		"forced_splits", ts.ForcedSplits,
		"series", len(series),
		"duration", elapsed,
	)

	return Result{
		Run:          run,
		Observations: ds.Len(),
		Tracks:       ts.Tracks(),
		Series:       len(series),
	}, nil
}
