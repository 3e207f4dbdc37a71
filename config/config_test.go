package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BatchSize != 1000 {
		t.Errorf("expected default batch size 1000, got %d", cfg.BatchSize)
	}
	if !cfg.MergePlus {
		t.Error("expected plus merging on by default")
	}
	if cfg.ProgressInterval != 5*time.Second {
		t.Errorf("expected 5s progress interval, got %s", cfg.ProgressInterval)
	}
	if cfg.Format != "csv" {
		t.Errorf("expected csv format, got %s", cfg.Format)
	}
	if cfg.Checkpointing() {
		t.Error("checkpoints should be off by default")
	}
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "vastats.yaml")
	content := "workers: 3\nbatch_size: 50\nlog_level: debug\nprogress_interval: 2s\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VASTATS_BATCH_SIZE", "75")
	t.Setenv("VASTATS_WORKERS", "4")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int(FlagName("workers"), 0, "")
	if err := flags.Parse([]string{"--workers=8"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file, flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("flag should win, got workers=%d", cfg.Workers)
	}
	if cfg.BatchSize != 75 {
		t.Errorf("env should beat the file, got batch_size=%d", cfg.BatchSize)
	}
	if cfg.ProgressInterval != 2*time.Second {
		t.Errorf("expected interval from file, got %s", cfg.ProgressInterval)
	}
	lvl, err := cfg.Level()
	if err != nil || lvl != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %v (%v)", lvl, err)
	}
}

func TestLoad_UnsetFlagKeepsLowerLayers(t *testing.T) {
	t.Setenv("VASTATS_FORMAT", "parquet")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(FlagName("format"), "csv", "")

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != "parquet" {
		t.Errorf("expected env format, got %s", cfg.Format)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{BatchSize: 1, Format: "csv", LogLevel: "info"}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"negative checkpoint", func(c *Config) { c.CheckpointEvery = -5 }},
		{"unknown format", func(c *Config) { c.Format = "xlsx" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
