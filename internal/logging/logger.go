package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// New creates a configured application logger.
// It writes to Stderr (to keep Stdout free for command output).
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Options mirrors the logging section of the configuration file.
type Options struct {
	Enabled bool
	Verbose bool
	File    string
}

// Level returns debug when verbose, info otherwise.
func (o Options) Level() slog.Level {
	if o.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Open builds the logger described by opts. When logging is enabled and a
// file is named, records go to both Stderr and the file (appended). The
// returned closer releases the file and is never nil.
func Open(opts Options) (*slog.Logger, io.Closer, error) {
	if !opts.Enabled {
		return NewNop(), io.NopCloser(nil), nil
	}
	if opts.File == "" {
		return New(opts.Level()), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return New(opts.Level()), io.NopCloser(nil), fmt.Errorf("open log file: %w", err)
	}
	return NewWriter(io.MultiWriter(os.Stderr, f), opts.Level()), f, nil
}
