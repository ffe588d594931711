package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/storm-track-etl/internal/domain"
	"github.com/couchcryptid/storm-track-etl/internal/units"
)

// TrackTransformer implements Transformer by running the segmentation and
// derivation engine with fixed per-source options.
type TrackTransformer struct {
	opts   domain.Options
	logger *slog.Logger
}

// NewTransformer creates a TrackTransformer. A nil land sampler classifies
// every position as sea; a nil converter uses the units package.
func NewTransformer(opts domain.Options, logger *slog.Logger) *TrackTransformer {
	if opts.Convert == nil {
		opts.Convert = units.Convert
	}
	if opts.Land == nil {
		logger.Warn("no land mask configured, all positions flagged as sea")
		opts.Land = domain.SeaEverywhere{}
	}
	return &TrackTransformer{opts: opts, logger: logger}
}

func (t *TrackTransformer) Transform(ctx context.Context, ds *domain.Dataset) (*domain.TrackSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return domain.Process(ds, t.opts, t.logger)
}
