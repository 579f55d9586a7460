// Package config defines service configuration structures and loading hooks.
//
// Values are layered by Load: built-in defaults, then an optional YAML file,
// then SKILLMATCH_* environment variables.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/skillmatch/internal/domain/scoring"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const weightSumTolerance = 1e-6

// Weights is the rerank weight table.
type Weights struct {
	Mutual      float64 `koanf:"mutual"`
	Reliability float64 `koanf:"reliability"`
	Timezone    float64 `koanf:"timezone"`
	Age         float64 `koanf:"age"`
	Gender      float64 `koanf:"gender"`
	Embedding   float64 `koanf:"embedding"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches the log handler to JSON.
	LogJSON bool `koanf:"log_json"`

	// StoreDriver selects the datastore: sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	SQLiteDSN   string `koanf:"sqlite_dsn"`
	PostgresDSN string `koanf:"postgres_dsn"`

	// PoolMultiplier and MinPoolSize size the search pool as
	// max(limit*PoolMultiplier, MinPoolSize).
	PoolMultiplier int `koanf:"pool_multiplier"`
	MinPoolSize    int `koanf:"min_pool_size"`

	// DefaultLimit and MaxLimit bound the number of matches returned.
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	// ReliabilityWindowDays is how far back candidate swipes are counted.
	ReliabilityWindowDays int `koanf:"reliability_window_days"`
	// ViewerHistorySize is how many of the viewer's own swipes are read.
	ViewerHistorySize int `koanf:"viewer_history_size"`
	// PreferenceMinHistory gates the age and gender preferences.
	PreferenceMinHistory int `koanf:"preference_min_history"`

	Weights Weights `koanf:"weights"`

	// EnrichmentQueueSize bounds the in-memory enrichment queue.
	EnrichmentQueueSize int `koanf:"enrichment_queue_size"`
	// EnrichmentWorkers sets the number of enrichment workers.
	EnrichmentWorkers int `koanf:"enrichment_workers"`
	// DedupeSize sets how many enrichment record ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// DefaultTimezone is assigned to new users that do not name one.
	DefaultTimezone string `koanf:"default_timezone"`
}

// New creates a Config populated with defaults.
func New() *Config {
	w := scoring.DefaultWeights()
	return &Config{
		LogLevel:              "info",
		StoreDriver:           DriverSQLite,
		SQLiteDSN:             "file:skillmatch.db?_pragma=foreign_keys(1)",
		PoolMultiplier:        3,
		MinPoolSize:           100,
		DefaultLimit:          30,
		MaxLimit:              100,
		ReliabilityWindowDays: 30,
		ViewerHistorySize:     3,
		PreferenceMinHistory:  scoring.DefaultMinHistory,
		Weights: Weights{
			Mutual:      w.Mutual,
			Reliability: w.Reliability,
			Timezone:    w.Timezone,
			Age:         w.Age,
			Gender:      w.Gender,
			Embedding:   w.Embedding,
		},
		EnrichmentQueueSize: 1024,
		EnrichmentWorkers:   2,
		DedupeSize:          10_000,
		DefaultTimezone:     "Asia/Singapore",
	}
}

// ScoringWeights converts the configured table for the scoring model.
func (c *Config) ScoringWeights() scoring.Weights {
	return scoring.Weights{
		Mutual:      c.Weights.Mutual,
		Reliability: c.Weights.Reliability,
		Timezone:    c.Weights.Timezone,
		Age:         c.Weights.Age,
		Gender:      c.Weights.Gender,
		Embedding:   c.Weights.Embedding,
	}
}

// Validate checks c for values the service cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.StoreDriver) {
	case DriverSQLite:
		if c.SQLiteDSN == "" {
			return fmt.Errorf("%w: sqlite_dsn must not be empty", ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	w := c.ScoringWeights()
	if err := w.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if math.Abs(w.Sum()-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidConfig, w.Sum())
	}

	checks := []struct {
		name string
		v    int
	}{
		{"pool_multiplier", c.PoolMultiplier},
		{"min_pool_size", c.MinPoolSize},
		{"default_limit", c.DefaultLimit},
		{"max_limit", c.MaxLimit},
		{"reliability_window_days", c.ReliabilityWindowDays},
		{"viewer_history_size", c.ViewerHistorySize},
		{"preference_min_history", c.PreferenceMinHistory},
		{"enrichment_queue_size", c.EnrichmentQueueSize},
		{"enrichment_workers", c.EnrichmentWorkers},
		{"dedupe_size", c.DedupeSize},
	}
	for _, ch := range checks {
		if ch.v < 1 {
			return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidConfig, ch.name, ch.v)
		}
	}
	if c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("%w: default_limit %d exceeds max_limit %d", ErrInvalidConfig, c.DefaultLimit, c.MaxLimit)
	}
	if !scoring.KnownTimezone(c.DefaultTimezone) {
		return fmt.Errorf("%w: unknown default_timezone %q", ErrInvalidConfig, c.DefaultTimezone)
	}
	return nil
}
