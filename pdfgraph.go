// Package pdfgraph opens PDF files as lazily resolved object graphs.
//
// Basic usage:
//
//	r, err := pdfgraph.Open("document.pdf")
//	if err != nil {
//	    // handle error
//	}
//	defer r.Close()
//	n, err := r.PageCount()
//
// Many files can be processed in parallel, each with its own Reader:
//
//	err := pdfgraph.ProcessAll(ctx, paths, func(ctx context.Context, path string, r *reader.Reader) error {
//	    log.Println(path, pdfgraph.FormatWarnings(r.Warnings()))
//	    return nil
//	}, pdfgraph.WithWorkers(4))
//
// For more control, the lower-level reader package is also available.
package pdfgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/pdfgraph/config"
	"github.com/tsawler/pdfgraph/reader"
)

// Option configures Open and ProcessAll.
type Option func(*settings)

type settings struct {
	cfg       *config.Config
	cfgGiven  bool
	logger    *slog.Logger
	logOutput io.Writer
	workers   int
	extra     []reader.Option
}

func newSettings(opts []Option) *settings {
	s := &settings{cfg: config.Default(), logOutput: os.Stderr}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil && s.cfgGiven {
		s.logger = s.cfg.Logger(s.logOutput)
	}
	return s
}

// readerOptions returns the reader options derived from the configuration
// followed by any given explicitly, so explicit ones win.
func (s *settings) readerOptions() []reader.Option {
	return append(s.cfg.ReaderOptions(s.logger), s.extra...)
}

func (s *settings) limit() int {
	if s.workers > 0 {
		return s.workers
	}
	if s.cfg.Workers > 0 {
		return s.cfg.Workers
	}
	return 1
}

// WithConfig uses cfg for leniency, recovery and worker settings. Unless
// WithLogger is also given, a logger at cfg.LogLevel writes to standard
// error (see WithLogOutput).
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		if cfg != nil {
			s.cfg = cfg
			s.cfgGiven = true
		}
	}
}

// WithLogOutput sets where the logger built from the configuration writes.
func WithLogOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.logOutput = w
		}
	}
}

// WithLogger sets the logger handed to every Reader.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithWorkers bounds how many files ProcessAll opens at once. It overrides
// the configured value.
func WithWorkers(n int) Option {
	return func(s *settings) {
		s.workers = n
	}
}

// WithReaderOptions passes options straight to reader.OpenFile.
func WithReaderOptions(opts ...reader.Option) Option {
	return func(s *settings) {
		s.extra = append(s.extra, opts...)
	}
}

// Open opens the PDF file at path. The returned Reader must be closed.
//
// Example:
//
//	r, err := pdfgraph.Open("scan.pdf", pdfgraph.WithConfig(cfg))
func Open(path string, opts ...Option) (*reader.Reader, error) {
	return reader.OpenFile(path, newSettings(opts).readerOptions()...)
}

// FileError records which file a ProcessAll failure belongs to.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ProcessFunc handles one opened document. The Reader is closed after it
// returns and must not be retained.
type ProcessFunc func(ctx context.Context, path string, r *reader.Reader) error

// ProcessAll opens every file in paths concurrently and calls fn for each
// one that opens. A Reader is never shared between goroutines.
//
// A file that fails to open, or whose fn returns an error, does not stop
// the others. The failures are returned joined, each as a *FileError, in
// the order of paths. Cancelling ctx stops files that have not started.
func ProcessAll(ctx context.Context, paths []string, fn ProcessFunc, opts ...Option) error {
	s := newSettings(opts)
	readerOpts := s.readerOptions()
	failures := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(s.limit())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failures[i] = &FileError{Path: path, Err: err}
				return nil
			}
			if err := processFile(ctx, path, fn, readerOpts); err != nil {
				if s.logger != nil {
					s.logger.Warn("failed to process file", "path", path, "error", err)
				}
				failures[i] = &FileError{Path: path, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(failures...)
}

func processFile(ctx context.Context, path string, fn ProcessFunc, opts []reader.Option) (err error) {
	r, err := reader.OpenFile(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close: %w", cerr)
		}
	}()
	return fn(ctx, path, r)
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := pdfgraph.Must(pdfgraph.Must(pdfgraph.Open("document.pdf")).PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// FormatWarnings renders warnings one per line.
func FormatWarnings(warnings []reader.Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, w := range warnings {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(w.String())
	}
	return sb.String()
}
