package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	TracksPath    string
	TriggersPath  string
	ImpactsPath   string
	OutputPath    string
	OverridesPath string

	// Threshold pair for the trigger table. Negative values mean "pick the
	// lenient pair present in the table".
	ThresholdDistanceKm int
	ThresholdWind       int

	PatternCacheSize int

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	distance, err := parseThreshold("THRESHOLD_DISTANCE_KM")
	if err != nil {
		return nil, err
	}
	wind, err := parseThreshold("THRESHOLD_WIND")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePatternCacheSize()
	if err != nil {
		return nil, err
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	var brokerList []string
	if brokers != "" {
		brokerList = sharedcfg.ParseBrokers(brokers)
	}
	kafkaEnabled := brokers != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		TracksPath:    sharedcfg.EnvOrDefault("TRACKS_PATH", "data/ibtracs_tracks.csv"),
		TriggersPath:  sharedcfg.EnvOrDefault("TRIGGERS_PATH", "data/all_adm0_thresholds.csv"),
		ImpactsPath:   sharedcfg.EnvOrDefault("IMPACTS_PATH", "data/emdat_tropicalcyclone.csv"),
		OutputPath:    sharedcfg.EnvOrDefault("OUTPUT_PATH", "data/emdat_with_sid.csv"),
		OverridesPath: os.Getenv("OVERRIDES_PATH"),

		ThresholdDistanceKm: distance,
		ThresholdWind:       wind,
		PatternCacheSize:    cacheSize,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   brokerList,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "resolved-storm-impacts"),

		HTTPAddr:           os.Getenv("HTTP_ADDR"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.TracksPath == "" {
		return nil, errors.New("TRACKS_PATH is required")
	}
	if cfg.TriggersPath == "" {
		return nil, errors.New("TRIGGERS_PATH is required")
	}
	if cfg.ImpactsPath == "" {
		return nil, errors.New("IMPACTS_PATH is required")
	}
	if (cfg.ThresholdDistanceKm < 0) != (cfg.ThresholdWind < 0) {
		return nil, errors.New("THRESHOLD_DISTANCE_KM and THRESHOLD_WIND must be set together")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if !cfg.KafkaEnabled && cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required when Kafka is disabled")
	}

	return cfg, nil
}

// ExplicitThreshold reports whether a threshold pair was configured.
func (c *Config) ExplicitThreshold() bool {
	return c.ThresholdDistanceKm >= 0 && c.ThresholdWind >= 0
}

func parseThreshold(key string) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parsePatternCacheSize() (int, error) {
	s := os.Getenv("PATTERN_CACHE_SIZE")
	if s == "" {
		return 512, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid PATTERN_CACHE_SIZE: %q", s)
	}
	return n, nil
}
