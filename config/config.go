package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Config holds all environment-driven settings.
type Config struct {
	Server struct {
		Port string `env:"SERVER_PORT" envDefault:"5250"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"database/pricegrid.db"`
	}

	Clustering struct {
		// Below this many records in the viewport, individual points are
		// returned instead of clusters
		TargetClusterCount int `env:"CLUSTER_TARGET_COUNT" envDefault:"10"`

		// Aggregate applied to member prices: mean or median
		PriceAggregate string `env:"CLUSTER_PRICE_AGGREGATE" envDefault:"mean"`

		// Optional YAML file overriding the zoom-to-cell-size profile
		GridProfilePath string `env:"CLUSTER_GRID_PROFILE" envDefault:""`
	}

	Statistics struct {
		// Trend bucket granularity: day, month or year
		TrendGranularity string `env:"STATS_TREND_GRANULARITY" envDefault:"month"`

		// Dispersion measure for county comparison: stddev or iqr
		DispersionMeasure string `env:"STATS_DISPERSION" envDefault:"stddev"`

		// Number of equal-frequency price brackets
		PriceBracketCount int `env:"STATS_PRICE_BRACKETS" envDefault:"5"`
	}

	Index struct {
		// Cron spec for periodic spatial index rebuilds
		RebuildSchedule string `env:"INDEX_REBUILD_SCHEDULE" envDefault:"@every 15m"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engines cannot work with.
func (c *Config) Validate() error {
	if c.Clustering.TargetClusterCount < 1 {
		return fmt.Errorf("cluster target count must be positive, got %d", c.Clustering.TargetClusterCount)
	}
	switch c.Clustering.PriceAggregate {
	case "mean", "median":
	default:
		return fmt.Errorf("unknown price aggregate: %s", c.Clustering.PriceAggregate)
	}
	switch c.Statistics.TrendGranularity {
	case "day", "month", "year":
	default:
		return fmt.Errorf("unknown trend granularity: %s", c.Statistics.TrendGranularity)
	}
	switch c.Statistics.DispersionMeasure {
	case "stddev", "iqr":
	default:
		return fmt.Errorf("unknown dispersion measure: %s", c.Statistics.DispersionMeasure)
	}
	if c.Statistics.PriceBracketCount < 2 {
		return fmt.Errorf("price bracket count must be at least 2, got %d", c.Statistics.PriceBracketCount)
	}
	return nil
}
