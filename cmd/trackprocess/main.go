// Command trackprocess segments best-track observations into tropical
// cyclone tracks and writes the derived statistical series.
//
// Usage:
//
//	trackprocess process --source configs/ibtracs.yaml data/ibtracs.csv
//	trackprocess check --source configs/ibtracs.yaml data/ibtracs.csv
//	trackprocess show --db output/tracks.db --source ibtracs pressure_rate
//
// Runtime settings (output sink, land mask, Kafka, Pushgateway) come from the
// environment, optionally seeded from a .env file.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/storm-track-etl/internal/config"
	"github.com/couchcryptid/storm-track-etl/internal/observability"
)

type cli struct {
	Process processCmd `cmd:"" help:"Process a best-track file and write every output series."`
	Check   checkCmd   `cmd:"" help:"Process a best-track file and print a summary without writing output."`
	Show    showCmd    `cmd:"" help:"Print a series from the latest run stored in a SQLite database."`
}

// app carries process-wide dependencies into each command's Run method.
type app struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
}

func main() {
	_ = godotenv.Load()

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("trackprocess"),
		kong.Description("Tropical cyclone track segmentation and derivation."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = kctx.Run(&app{ctx: ctx, cfg: cfg, logger: logger, stdout: os.Stdout})
	stop()
	if err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
