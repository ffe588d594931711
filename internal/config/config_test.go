package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, OutputText, cfg.OutputFormat)
	assert.Equal(t, "output/process", cfg.OutputDir)
	assert.Equal(t, ",", cfg.OutputDelimiter)
	assert.InDelta(t, 2147483647, cfg.OutputMissingValue, 0)
	assert.Equal(t, "output/tracks.db", cfg.SQLitePath)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "track-series", cfg.KafkaTopic)
	assert.Equal(t, 30*time.Second, cfg.KafkaRetryTimeout)
	assert.Empty(t, cfg.LandmaskPath)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.Equal(t, 10*time.Second, cfg.PushTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("OUTPUT_FORMAT", "kafka")
	t.Setenv("OUTPUT_DIR", "/tmp/process")
	t.Setenv("OUTPUT_DELIMITER", "\t")
	t.Setenv("OUTPUT_MISSING_VALUE", "-9999")
	t.Setenv("SQLITE_PATH", "/tmp/tracks.db")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-series")
	t.Setenv("KAFKA_RETRY_TIMEOUT", "1m")
	t.Setenv("LANDMASK_PATH", "/data/land.shp")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgateway:9091")
	t.Setenv("PUSH_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, OutputKafka, cfg.OutputFormat)
	assert.Equal(t, "/tmp/process", cfg.OutputDir)
	assert.Equal(t, "\t", cfg.OutputDelimiter)
	assert.InDelta(t, -9999, cfg.OutputMissingValue, 0)
	assert.Equal(t, "/tmp/tracks.db", cfg.SQLitePath)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-series", cfg.KafkaTopic)
	assert.Equal(t, time.Minute, cfg.KafkaRetryTimeout)
	assert.Equal(t, "/data/land.shp", cfg.LandmaskPath)
	assert.Equal(t, "http://pushgateway:9091", cfg.PushgatewayURL)
	assert.Equal(t, 3*time.Second, cfg.PushTimeout)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, message string
	}{
		{"OUTPUT_FORMAT", "netcdf", "OUTPUT_FORMAT"},
		{"OUTPUT_MISSING_VALUE", "none", "OUTPUT_MISSING_VALUE"},
		{"KAFKA_RETRY_TIMEOUT", "soon", "KAFKA_RETRY_TIMEOUT"},
		{"KAFKA_RETRY_TIMEOUT", "-1s", "KAFKA_RETRY_TIMEOUT"},
		{"PUSH_TIMEOUT", "0s", "PUSH_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
