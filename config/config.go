// Package config layers the vastats settings: defaults, then an optional
// YAML file, then VASTATS_* environment variables, then command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "VASTATS"

type Config struct {
	Workers          int           `mapstructure:"workers"`
	BatchSize        int           `mapstructure:"batch_size"`
	MergePlus        bool          `mapstructure:"merge_plus"`
	CheckpointEvery  int64         `mapstructure:"checkpoint_every"`
	CheckpointDir    string        `mapstructure:"checkpoint_dir"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFile          string        `mapstructure:"log_file"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
	Format           string        `mapstructure:"format"`
	PGURL            string        `mapstructure:"pg_url"`
	MinCount         int64         `mapstructure:"min_count"`
}

var defaults = map[string]any{
	"workers":           0,
	"batch_size":        1000,
	"merge_plus":        true,
	"checkpoint_every":  0,
	"checkpoint_dir":    "",
	"log_level":         "info",
	"log_file":          "",
	"progress_interval": 5 * time.Second,
	"format":            "csv",
	"pg_url":            "",
	"min_count":         5,
}

// Keys lists every setting name.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	return keys
}

// FlagName is the command-line spelling of key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Load resolves the configuration. configFile may be empty. Flags that exist
// in flags under FlagName(key) override everything else when set.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	for k := range defaults {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if flags != nil {
		for k := range defaults {
			if f := flags.Lookup(FlagName(k)); f != nil {
				if err := v.BindPFlag(k, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", c.BatchSize)
	}
	if c.CheckpointEvery < 0 {
		return fmt.Errorf("checkpoint_every must be >= 0, got %d", c.CheckpointEvery)
	}
	switch c.Format {
	case "csv", "parquet":
	default:
		return fmt.Errorf("format must be \"csv\" or \"parquet\", got %q", c.Format)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// Checkpointing reports whether periodic checkpoints are enabled.
func (c *Config) Checkpointing() bool {
	return c.CheckpointEvery > 0 && c.CheckpointDir != ""
}
