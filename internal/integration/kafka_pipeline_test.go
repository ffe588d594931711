//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/storm-track-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/storm-track-etl/internal/adapter/kafka"
	"github.com/couchcryptid/storm-track-etl/internal/config"
	"github.com/couchcryptid/storm-track-etl/internal/observability"
	"github.com/couchcryptid/storm-track-etl/internal/pipeline"
)

const (
	testTopic = "test-track-series"
	mockDir   = "../../data/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("storm-track-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(kc); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// seriesPayload mirrors the published JSON.
type seriesPayload struct {
	RunID     string       `json:"run_id"`
	Source    string       `json:"source"`
	Series    string       `json:"series"`
	Header    string       `json:"header"`
	Part      int          `json:"part"`
	Parts     int          `json:"parts"`
	TotalRows int          `json:"total_rows"`
	Columns   [][]*float64 `json:"columns"`
}

// TestKafkaPipeline runs the sample archive end to end and consumes every
// series back from the topic.
func TestKafkaPipeline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{
		KafkaBrokers:      []string{broker},
		KafkaTopic:        testTopic,
		KafkaRetryTimeout: 30 * time.Second,
	}

	src, err := config.LoadSource(filepath.Join(mockDir, "ibtracs_sample.yaml"))
	require.NoError(t, err)
	reader, err := csvfile.NewReader(filepath.Join(mockDir, "ibtracs_sample.csv"), csvfile.Options{
		Columns:    src.Columns,
		Delimiter:  src.Delim(),
		HeaderRows: src.HeaderRows,
	})
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	defer writer.Close()

	p := pipeline.New(src.Name, reader,
		pipeline.NewTransformer(src.EngineOptions(), discardLogger()),
		writer, discardLogger(), observability.NewMetricsForTesting())
	result, err := p.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, result.Tracks)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer consumer.Close()

	got := make(map[string]seriesPayload, result.Series)
	for len(got) < result.Series {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read series %d of %d", len(got)+1, result.Series)

		var payload seriesPayload
		require.NoError(t, json.Unmarshal(msg.Value, &payload))
		assert.Equal(t, payload.Series, string(msg.Key))
		got[payload.Series] = payload
	}

	years := got["origin_year"]
	assert.Equal(t, result.Run.ID, years.RunID)
	assert.Equal(t, "ibtracs", years.Source)
	assert.Equal(t, "Season", years.Header)
	require.Len(t, years.Columns, 1)
	require.Len(t, years.Columns[0], 4)
	assert.InDelta(t, 2005, *years.Columns[0][0], 0)

	pressure := got["all_pressure"]
	assert.Equal(t, 13, pressure.TotalRows)
	assert.Nil(t, pressure.Columns[0][6], "missing pressure is published as null")
}
