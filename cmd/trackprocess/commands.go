package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/storm-track-etl/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/storm-track-etl/internal/adapter/kafka"
	"github.com/couchcryptid/storm-track-etl/internal/adapter/landmask"
	"github.com/couchcryptid/storm-track-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/storm-track-etl/internal/adapter/textfile"
	"github.com/couchcryptid/storm-track-etl/internal/config"
	"github.com/couchcryptid/storm-track-etl/internal/domain"
	"github.com/couchcryptid/storm-track-etl/internal/observability"
	"github.com/couchcryptid/storm-track-etl/internal/pipeline"
)

// landCacheSize bounds the land/sea lookup cache.
const landCacheSize = 1 << 16

type processCmd struct {
	Source string `required:"" type:"existingfile" help:"Source description (YAML)."`
	Input  string `arg:"" type:"existingfile" help:"Best-track observation file."`
}

func (c *processCmd) Run(a *app) error {
	src, err := config.LoadSource(c.Source)
	if err != nil {
		return err
	}
	loader, closeLoader, err := openLoader(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer closeLoader()

	metrics := observability.NewMetrics()
	result, runErr := runPipeline(a.ctx, a.cfg, src, c.Input, loader, a.logger, metrics)

	// Push even on failure so the run_failures counter reaches the gateway.
	pushCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	pusher := observability.NewPusher(a.cfg.PushgatewayURL, a.cfg.PushTimeout, a.logger)
	if err := pusher.Push(pushCtx, metrics, src.Name); err != nil {
		a.logger.Warn("metrics push failed", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("run complete",
		"run_id", result.Run.ID,
		"observations", result.Observations,
		"tracks", result.Tracks,
		"series", result.Series,
		"sink", loader.Name(),
	)
	return nil
}

type checkCmd struct {
	Source string `required:"" type:"existingfile" help:"Source description (YAML)."`
	Input  string `arg:"" type:"existingfile" help:"Best-track observation file."`
}

func (c *checkCmd) Run(a *app) error {
	src, err := config.LoadSource(c.Source)
	if err != nil {
		return err
	}
	summary := &summaryLoader{out: a.stdout}
	_, err = runPipeline(a.ctx, a.cfg, src, c.Input, summary, a.logger, observability.NewMetricsWith(prometheus.NewRegistry()))
	return err
}

type showCmd struct {
	DB     string `required:"" type:"existingfile" help:"SQLite database written by the sqlite sink."`
	Source string `required:"" help:"Source name whose latest run is shown."`
	Series string `arg:"" help:"Series name, e.g. pressure_rate."`
}

func (c *showCmd) Run(a *app) error {
	store, err := sqlite.Open(c.DB, a.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := store.LatestRun(a.ctx, c.Source)
	if err != nil {
		return fmt.Errorf("latest run for %s: %w", c.Source, err)
	}
	s, err := store.Series(a.ctx, runID, c.Series)
	if err != nil {
		return err
	}
	return textfile.WriteSeries(a.stdout, s, a.cfg.OutputDelimiter, a.cfg.OutputMissingValue)
}

// runPipeline wires the reader, land mask and engine for one source file and
// runs a single pass into loader.
func runPipeline(
	ctx context.Context,
	cfg *config.Config,
	src *config.Source,
	input string,
	loader pipeline.Loader,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (pipeline.Result, error) {
	reader, err := csvfile.NewReader(input, csvfile.Options{
		Columns:    src.Columns,
		Delimiter:  src.Delim(),
		HeaderRows: src.HeaderRows,
	})
	if err != nil {
		return pipeline.Result{}, err
	}

	opts := src.EngineOptions()
	if cfg.LandmaskPath != "" {
		mask, err := landmask.Load(cfg.LandmaskPath)
		if err != nil {
			return pipeline.Result{}, err
		}
		logger.Info("land mask loaded", "path", cfg.LandmaskPath, "polygons", mask.Len())
		opts.Land = landmask.NewCachedSampler(mask, landCacheSize)
	}

	transformer := pipeline.NewTransformer(opts, logger)
	return pipeline.New(src.Name, reader, transformer, loader, logger, metrics).Run(ctx)
}

// openLoader builds the sink selected by OUTPUT_FORMAT. The returned func
// releases it.
func openLoader(cfg *config.Config, logger *slog.Logger) (pipeline.Loader, func(), error) {
	switch cfg.OutputFormat {
	case config.OutputText:
		w, err := textfile.NewWriter(cfg.OutputDir, cfg.OutputDelimiter, cfg.OutputMissingValue)
		if err != nil {
			return nil, nil, err
		}
		return w, func() {}, nil
	case config.OutputSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, closeWith(store, "sqlite store", logger), nil
	case config.OutputKafka:
		w := kafkaadapter.NewWriter(cfg, logger)
		return w, closeWith(w, "kafka writer", logger), nil
	default:
		return nil, nil, fmt.Errorf("unsupported output format %q", cfg.OutputFormat)
	}
}

func closeWith(c io.Closer, what string, logger *slog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Error(what+" close error", "error", err)
		}
	}
}

// summaryLoader prints one line per series instead of persisting anything.
type summaryLoader struct {
	out io.Writer
}

func (s *summaryLoader) Name() string { return "summary" }

func (s *summaryLoader) Load(_ context.Context, run domain.Run, series []pipeline.Series) error {
	if len(series) == 0 {
		return errors.New("no series produced")
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "source\t%s\n", run.Source)
	fmt.Fprintln(tw, "SERIES\tROWS\tCOLUMNS\tMISSING")
	for _, sr := range series {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", sr.Name, sr.Rows(), len(sr.Columns), sr.Missing())
	}
	return tw.Flush()
}
