// Package config loads analyzer configuration from a file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Contact  ContactConfig  `mapstructure:"contact"`
	Parallel ParallelConfig `mapstructure:"parallel"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
}

type ContactConfig struct {
	// Tolerance is the contact distance threshold in model units.
	Tolerance  float64 `mapstructure:"tolerance"`
	BBoxFilter bool    `mapstructure:"bbox_filter"`
}

type ParallelConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	Workers   int  `mapstructure:"workers"`
	BatchSize int  `mapstructure:"batch_size"`
}

type AnalysisConfig struct {
	Centrality bool `mapstructure:"centrality"`
	Bridges    bool `mapstructure:"bridges"`

	// MaxDetailedParts caps the assembly size for the per-part
	// sections of the text summary.
	MaxDetailedParts int `mapstructure:"max_detailed_parts"`
}

type OutputConfig struct {
	Dir          string `mapstructure:"dir"`
	CSVDelimiter string `mapstructure:"csv_delimiter"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Contact:  ContactConfig{Tolerance: 1e-3, BBoxFilter: true},
		Parallel: ParallelConfig{Enabled: false, Workers: 4, BatchSize: 100},
		Analysis: AnalysisConfig{Centrality: true, Bridges: true, MaxDetailedParts: 50},
		Output:   OutputConfig{Dir: "outputs", CSVDelimiter: ","},
		Log:      LogConfig{Level: "info", Format: "console"},
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Contact.Tolerance < 0 {
		warnings = append(warnings, fmt.Sprintf("contact tolerance %g is negative", c.Contact.Tolerance))
	}
	if c.Parallel.Workers < 0 {
		warnings = append(warnings, fmt.Sprintf("parallel workers %d is negative", c.Parallel.Workers))
	}
	if c.Parallel.BatchSize < 0 {
		warnings = append(warnings, fmt.Sprintf("parallel batch_size %d is negative", c.Parallel.BatchSize))
	}
	if len(c.Output.CSVDelimiter) != 1 {
		warnings = append(warnings, fmt.Sprintf("csv_delimiter %q is not a single character", c.Output.CSVDelimiter))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}

	return warnings
}

// Delimiter returns the CSV delimiter as a rune, falling back to a
// comma when the configured value is unusable.
func (c *Config) Delimiter() rune {
	if len(c.Output.CSVDelimiter) != 1 {
		return ','
	}
	return rune(c.Output.CSVDelimiter[0])
}

// Load reads configuration from file and environment. An empty path
// loads defaults plus environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ABUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("contact.tolerance", def.Contact.Tolerance)
	v.SetDefault("contact.bbox_filter", def.Contact.BBoxFilter)
	v.SetDefault("parallel.enabled", def.Parallel.Enabled)
	v.SetDefault("parallel.workers", def.Parallel.Workers)
	v.SetDefault("parallel.batch_size", def.Parallel.BatchSize)
	v.SetDefault("analysis.centrality", def.Analysis.Centrality)
	v.SetDefault("analysis.bridges", def.Analysis.Bridges)
	v.SetDefault("analysis.max_detailed_parts", def.Analysis.MaxDetailedParts)
	v.SetDefault("output.dir", def.Output.Dir)
	v.SetDefault("output.csv_delimiter", def.Output.CSVDelimiter)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
