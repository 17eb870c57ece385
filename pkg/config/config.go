// Package config loads the small YAML configuration shared by the CLI
// commands: history store location, table page size, and the relevance weights
// used by conversation search.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/dbchat/pkg/results"
	"github.com/go-go-golems/dbchat/pkg/search"
)

type Config struct {
	StorePath     string        `yaml:"store_path"`
	PageSize      int           `yaml:"page_size"`
	SearchWeights WeightsConfig `yaml:"search_weights"`
}

type WeightsConfig struct {
	RawText    int `yaml:"raw_text"`
	QueryText  int `yaml:"query_text"`
	Summary    int `yaml:"summary"`
	Insights   int `yaml:"insights"`
	ExactBonus int `yaml:"exact_bonus"`
}

func Default() Config {
	w := search.DefaultWeights()
	return Config{
		PageSize: results.DefaultPageSize,
		SearchWeights: WeightsConfig{
			RawText:    w.RawText,
			QueryText:  w.QueryText,
			Summary:    w.Summary,
			Insights:   w.Insights,
			ExactBonus: w.ExactBonus,
		},
	}
}

// Load reads the config file at path, overlaying it onto the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "config: read file")
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrap(err, "config: parse yaml")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = results.DefaultPageSize
	}
	return cfg, nil
}

// Weights converts the configured weights, falling back to the defaults for
// any weight left at zero.
func (c Config) Weights() search.Weights {
	w := search.DefaultWeights()
	if c.SearchWeights.RawText > 0 {
		w.RawText = c.SearchWeights.RawText
	}
	if c.SearchWeights.QueryText > 0 {
		w.QueryText = c.SearchWeights.QueryText
	}
	if c.SearchWeights.Summary > 0 {
		w.Summary = c.SearchWeights.Summary
	}
	if c.SearchWeights.Insights > 0 {
		w.Insights = c.SearchWeights.Insights
	}
	if c.SearchWeights.ExactBonus > 0 {
		w.ExactBonus = c.SearchWeights.ExactBonus
	}
	return w
}
