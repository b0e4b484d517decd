package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tsawler/pdfgraph/core"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  func(*Config)
	}{
		{
			name:  "empty keeps defaults",
			input: "",
			want:  func(*Config) {},
		},
		{
			name:  "strict leniency",
			input: "leniency:\n  strict_numbers: true\n  tolerate_generation_mismatch: false\n",
			want: func(c *Config) {
				c.Leniency.StrictNumbers = true
				c.Leniency.TolerateGenerationMismatch = false
			},
		},
		{
			name:  "partial leniency keeps the rest",
			input: "leniency:\n  max_reference_depth: 4\n",
			want: func(c *Config) {
				c.Leniency.MaxReferenceDepth = 4
			},
		},
		{
			name:  "workers and logging",
			input: "workers: 3\nlog_level: debug\nrecovery: false\n",
			want: func(c *Config) {
				c.Workers = 3
				c.LogLevel = "debug"
				c.Recovery = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			want := Default()
			tt.want(want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not yaml", "leniency: [unclosed"},
		{"negative workers", "workers: -1"},
		{"negative depth", "leniency:\n  max_reference_depth: -2"},
		{"unknown level", "log_level: loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfgraph.yaml")
	if err := os.WriteFile(path, []byte("workers: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Workers)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		c := &Config{LogLevel: tt.input}
		if got := c.Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := (&Config{LogLevel: "warn"}).Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "object", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "object=7") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestReaderOptions(t *testing.T) {
	cfg := Default()
	if got := len(cfg.ReaderOptions(nil)); got != 2 {
		t.Errorf("expected 2 options without a logger, got %d", got)
	}
	if got := len(cfg.ReaderOptions(slog.Default())); got != 3 {
		t.Errorf("expected 3 options with a logger, got %d", got)
	}
}

func TestDefaultLeniency(t *testing.T) {
	if diff := cmp.Diff(core.DefaultLeniency(), Default().Leniency); diff != "" {
		t.Errorf("default leniency mismatch (-want +got):\n%s", diff)
	}
}
