// Package config loads document processing settings from YAML files.
//
// A file looks like:
//
//	leniency:
//	  strict_numbers: false
//	  tolerate_generation_mismatch: true
//	  max_reference_depth: 32
//	recovery: true
//	workers: 8
//	log_level: warn
//
// Keys that are left out keep their defaults.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/reader"
)

// Config holds the settings used to open and process documents.
type Config struct {
	// Leniency selects how damaged files are handled
	Leniency core.Leniency `yaml:"leniency"`

	// Recovery enables rebuilding a broken cross-reference table
	Recovery bool `yaml:"recovery"`

	// Workers bounds how many documents are processed at once
	Workers int `yaml:"workers"`

	// LogLevel is one of debug, info, warn or error
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Leniency: core.DefaultLeniency(),
		Recovery: true,
		Workers:  runtime.GOMAXPROCS(0),
		LogLevel: "warn",
	}
}

// Load reads a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Leniency.MaxReferenceDepth < 0 {
		return fmt.Errorf("leniency.max_reference_depth must not be negative, got %d", c.Leniency.MaxReferenceDepth)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// ReaderOptions translates the configuration into reader options. A nil
// logger keeps the reader's default.
func (c *Config) ReaderOptions(logger *slog.Logger) []reader.Option {
	opts := []reader.Option{
		reader.WithLeniency(c.Leniency),
		reader.WithRecovery(c.Recovery),
	}
	if logger != nil {
		opts = append(opts, reader.WithLogger(logger))
	}
	return opts
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
