package reader

import (
	"io"
	"log/slog"

	"github.com/tsawler/pdfgraph/core"
)

// options holds configuration for opening a document.
type options struct {
	leniency core.Leniency
	logger   *slog.Logger
	recovery bool
}

// defaultOptions returns the options used when none are given.
func defaultOptions() options {
	return options{
		leniency: core.DefaultLeniency(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recovery: true,
	}
}

// Option configures a Reader.
type Option func(*options)

// WithLeniency sets how edge cases in damaged files are handled.
func WithLeniency(l core.Leniency) Option {
	return func(o *options) {
		o.leniency = l
	}
}

// WithLogger sets the logger for diagnostics. Recovery, skipped page tree
// nodes and tolerated mismatches are logged at debug and warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecovery enables or disables rebuilding the cross-reference table by
// scanning the file when the recorded one is unusable. It is on by default.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recovery = enabled
	}
}
