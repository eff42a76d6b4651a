// Package config defines service configuration and its loading rules.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/features"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
	"github.com/brianfmorissette/chatgpt-champion/pkg/metrics"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RecordsPath points at the weekly export.
	RecordsPath string `koanf:"records_path"`

	// RecordsFormat is csv or sqlite.
	RecordsFormat string `koanf:"records_format"`

	// SQLiteTable names the table read when RecordsFormat is sqlite.
	SQLiteTable string `koanf:"sqlite_table"`

	// UsageParseMode is strict or repair.
	UsageParseMode string `koanf:"usage_parse_mode"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// DefaultTopN is the leaderboard size when no limit is given.
	DefaultTopN int `koanf:"default_top_n"`

	// CacheSize bounds the number of memoized analyses.
	CacheSize int `koanf:"cache_size"`

	// Watch reloads the dataset when RecordsPath changes.
	Watch bool `koanf:"watch"`

	// Weights is the initial weight configuration.
	Weights scoring.Weights `koanf:"weights"`

	// Metrics shapes the Prometheus collectors.
	Metrics Metrics `koanf:"metrics"`
}

// Metrics configures the metrics manager.
type Metrics struct {
	Enabled   bool              `koanf:"enabled"`
	Namespace string            `koanf:"namespace"`
	Subsystem string            `koanf:"subsystem"`
	Prefix    string            `koanf:"prefix"`
	Buckets   []float64         `koanf:"buckets"` // latency histogram buckets, ms
	Labels    map[string]string `koanf:"labels"`  // constant labels on every metric
}

// Options translates the block into metrics manager options.
func (m Metrics) Options() []metrics.Option {
	return []metrics.Option{
		metrics.WithMetricsEnabled(m.Enabled),
		metrics.WithNamespace(m.Namespace),
		metrics.WithSubsystem(m.Subsystem),
		metrics.WithMetricPrefix(m.Prefix),
		metrics.WithHistogramBuckets(m.Buckets),
		metrics.WithCustomLabels(m.Labels),
	}
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		RecordsPath:         "data/weekly_export.csv",
		RecordsFormat:       "csv",
		SQLiteTable:         "weekly_activity",
		UsageParseMode:      string(features.ModeStrict),
		MaxLeaderboardLimit: 100,
		DefaultTopN:         10,
		CacheSize:           64,
		Weights:             scoring.DefaultWeights(),
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "champion",
		},
	}
}

// Validate reports every invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	switch strings.ToLower(c.RecordsFormat) {
	case "csv", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("records_format must be csv or sqlite, got %q", c.RecordsFormat))
	}
	if _, ok := features.ParseMode(c.UsageParseMode); !ok {
		errs = append(errs, fmt.Errorf("usage_parse_mode must be strict or repair, got %q", c.UsageParseMode))
	}
	if c.MaxLeaderboardLimit < 1 {
		errs = append(errs, fmt.Errorf("max_leaderboard_limit must be positive, got %d", c.MaxLeaderboardLimit))
	}
	if c.DefaultTopN < 1 || c.DefaultTopN > c.MaxLeaderboardLimit {
		errs = append(errs, fmt.Errorf("default_top_n must be in [1,%d], got %d", c.MaxLeaderboardLimit, c.DefaultTopN))
	}
	if c.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("cache_size must be positive, got %d", c.CacheSize))
	}
	if err := c.Weights.Validate(); err != nil {
		errs = append(errs, err)
	}
	for i := 1; i < len(c.Metrics.Buckets); i++ {
		if c.Metrics.Buckets[i] <= c.Metrics.Buckets[i-1] {
			errs = append(errs, errors.New("metrics.buckets must be strictly increasing"))
			break
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
