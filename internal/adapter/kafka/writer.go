package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/storm-track-etl/internal/config"
	"github.com/couchcryptid/storm-track-etl/internal/domain"
	"github.com/couchcryptid/storm-track-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
)

// DefaultChunkRows bounds the number of rows carried by one message so large
// per-observation series stay under the broker's message size limit.
const DefaultChunkRows = 5000

const defaultRetryTimeout = 30 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes output series to a Kafka topic, one JSON message per
// series chunk. It implements pipeline.Loader.
type Writer struct {
	writer       messageWriter
	logger       *slog.Logger
	chunkRows    int
	retryTimeout time.Duration
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	retry := cfg.KafkaRetryTimeout
	if retry <= 0 {
		retry = defaultRetryTimeout
	}
	return &Writer{
		writer:       w,
		logger:       logger,
		chunkRows:    DefaultChunkRows,
		retryTimeout: retry,
	}
}

func (w *Writer) Name() string { return "kafka" }

// Load serializes every series and publishes them in a single WriteMessages
// call, retrying transient broker failures with exponential backoff.
func (w *Writer) Load(ctx context.Context, run domain.Run, series []pipeline.Series) error {
	var msgs []kafkago.Message
	for _, s := range series {
		chunk, err := serializeSeries(run, s, w.chunkRows)
		if err != nil {
			return err
		}
		msgs = append(msgs, chunk...)
	}
	if len(msgs) == 0 {
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = w.retryTimeout
	attempt := 0
	operation := func() error {
		attempt++
		err := w.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		w.logger.Warn("kafka write failed, retrying", "error", err, "attempt", attempt)
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.logger.Debug("series published", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// seriesMessage is the JSON payload of one series chunk. Missing values are null.
type seriesMessage struct {
	RunID       string       `json:"run_id"`
	Source      string       `json:"source"`
	ProcessedAt time.Time    `json:"processed_at"`
	Series      string       `json:"series"`
	Header      string       `json:"header"`
	Format      string       `json:"format"`
	Part        int          `json:"part"`
	Parts       int          `json:"parts"`
	FirstRow    int          `json:"first_row"`
	TotalRows   int          `json:"total_rows"`
	Columns     [][]*float64 `json:"columns"`
}

// serializeSeries splits a series into messages of at most chunkRows rows.
// An empty series still produces one message so consumers see every name.
func serializeSeries(run domain.Run, s pipeline.Series, chunkRows int) ([]kafkago.Message, error) {
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}
	total := s.Rows()
	parts := (total + chunkRows - 1) / chunkRows
	if parts == 0 {
		parts = 1
	}

	msgs := make([]kafkago.Message, 0, parts)
	for part := 0; part < parts; part++ {
		lo := part * chunkRows
		hi := min(lo+chunkRows, total)

		payload := seriesMessage{
			RunID:       run.ID,
			Source:      run.Source,
			ProcessedAt: run.ProcessedAt,
			Series:      s.Name,
			Header:      s.Header,
			Format:      s.Format,
			Part:        part,
			Parts:       parts,
			FirstRow:    lo,
			TotalRows:   total,
			Columns:     make([][]*float64, len(s.Columns)),
		}
		for c, col := range s.Columns {
			payload.Columns[c] = nullableSlice(col[lo:hi])
		}

		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("serialize series %s: %w", s.Name, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(s.Name),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "run_id", Value: []byte(run.ID)},
				{Key: "series", Value: []byte(s.Name)},
				{Key: "part", Value: []byte(strconv.Itoa(part))},
				{Key: "processed_at", Value: []byte(run.ProcessedAt.Format(time.RFC3339))},
			},
		})
	}
	return msgs, nil
}

func nullableSlice(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if domain.IsMissing(values[i]) {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	return out
}
