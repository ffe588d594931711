package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Output formats.
const (
	OutputText   = "txt"
	OutputSQLite = "sqlite"
	OutputKafka  = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	OutputFormat       string
	OutputDir          string
	OutputDelimiter    string
	OutputMissingValue float64

	SQLitePath string

	KafkaBrokers      []string
	KafkaTopic        string
	KafkaRetryTimeout time.Duration

	// LandmaskPath points at a shapefile or GeoJSON file of land polygons.
	// Empty disables land/sea classification.
	LandmaskPath string

	// Pushgateway configuration. Empty URL disables pushing.
	PushgatewayURL string
	PushTimeout    time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	kafkaRetry, err := parsePositiveDuration("KAFKA_RETRY_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	pushTimeout, err := parsePositiveDuration("PUSH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	missingStr := sharedcfg.EnvOrDefault("OUTPUT_MISSING_VALUE", "2147483647")
	missing, err := strconv.ParseFloat(missingStr, 64)
	if err != nil {
		return nil, errors.New("invalid OUTPUT_MISSING_VALUE")
	}

	cfg := &Config{
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OutputFormat:       sharedcfg.EnvOrDefault("OUTPUT_FORMAT", OutputText),
		OutputDir:          sharedcfg.EnvOrDefault("OUTPUT_DIR", "output/process"),
		OutputDelimiter:    sharedcfg.EnvOrDefault("OUTPUT_DELIMITER", ","),
		OutputMissingValue: missing,

		SQLitePath: sharedcfg.EnvOrDefault("SQLITE_PATH", "output/tracks.db"),

		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:        sharedcfg.EnvOrDefault("KAFKA_TOPIC", "track-series"),
		KafkaRetryTimeout: kafkaRetry,

		LandmaskPath: sharedcfg.EnvOrDefault("LANDMASK_PATH", ""),

		PushgatewayURL: sharedcfg.EnvOrDefault("PUSHGATEWAY_URL", ""),
		PushTimeout:    pushTimeout,
	}

	switch cfg.OutputFormat {
	case OutputText:
		if cfg.OutputDir == "" {
			return nil, errors.New("OUTPUT_DIR is required for txt output")
		}
	case OutputSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLITE_PATH is required for sqlite output")
		}
	case OutputKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required for kafka output")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required for kafka output")
		}
	default:
		return nil, fmt.Errorf("invalid OUTPUT_FORMAT %q: want txt, sqlite or kafka", cfg.OutputFormat)
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
