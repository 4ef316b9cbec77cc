// Package config loads the run configuration. Settings live in a TOML
// file; command-line flags override individual fields afterwards.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/h-escoffier/WILDkCAT/internal/kcat"
)

// Interval is a closed [min, max] range in the config file.
type Interval struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

// Config is the full run configuration.
type Config struct {
	Organism     string   `toml:"organism"`
	Temperature  Interval `toml:"temperature"` // °C
	PH           Interval `toml:"ph"`
	Variant      string   `toml:"variant"`
	Aggregation  string   `toml:"aggregation"`
	Sources      []string `toml:"sources"`
	MLScoreLimit int      `toml:"ml_score_limit"`
	Threads      int      `toml:"threads"`
}

// Default returns the configuration used when no file is given. The
// condition ranges cover common mesophilic assay conditions.
func Default() Config {
	return Config{
		Temperature:  Interval{Min: 20, Max: 40},
		PH:           Interval{Min: 6, Max: 8},
		Variant:      "wildtype",
		Aggregation:  "min",
		Sources:      []string{string(kcat.SourceSabioRK), string(kcat.SourceBrenda)},
		MLScoreLimit: 6,
		Threads:      4,
	}
}

// Load reads a TOML file on top of the defaults. Only file-level problems
// (decode errors, unknown keys) are reported here: flags may still override
// fields afterwards, so callers run Validate once the config is final.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate checks the fields that have no safe fallback.
func (c Config) Validate() error {
	if c.Organism == "" {
		return fmt.Errorf("config: organism is required")
	}
	if c.Temperature.Min > c.Temperature.Max {
		return fmt.Errorf("config: temperature range %g..%g is inverted", c.Temperature.Min, c.Temperature.Max)
	}
	if c.PH.Min > c.PH.Max {
		return fmt.Errorf("config: ph range %g..%g is inverted", c.PH.Min, c.PH.Max)
	}
	if c.Threads < 1 {
		return fmt.Errorf("config: threads must be at least 1")
	}
	if _, err := kcat.ParseAggregation(c.Aggregation); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, s := range c.Sources {
		switch kcat.SourceDB(s) {
		case kcat.SourceSabioRK, kcat.SourceBrenda:
		default:
			return fmt.Errorf("config: unknown source %q", s)
		}
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: at least one source is required")
	}
	return nil
}

// Criteria converts the config into the batch matching criteria.
func (c Config) Criteria() kcat.Criteria {
	return kcat.Criteria{
		Organism:  c.Organism,
		TempRange: kcat.Range{Min: c.Temperature.Min, Max: c.Temperature.Max},
		PHRange:   kcat.Range{Min: c.PH.Min, Max: c.PH.Max},
		Variant:   kcat.ParseVariant(c.Variant),
	}
}

// Agg returns the parsed aggregation policy. Call Validate first.
func (c Config) Agg() kcat.Aggregation {
	a, _ := kcat.ParseAggregation(c.Aggregation)
	return a
}

// HasSource reports whether a database is enabled for this run.
func (c Config) HasSource(s kcat.SourceDB) bool {
	for _, have := range c.Sources {
		if kcat.SourceDB(have) == s {
			return true
		}
	}
	return false
}
