// Package logging configures structured logging with log/slog.
//
// Text output uses tint for coloured, human-friendly lines; JSON output uses
// the standard slog JSON handler. Either can be written to a rotating file
// instead of stderr.
//
// Usage:
//
//	closer, err := logging.Setup(logging.Options{Level: "debug"})
//	defer closer.Close()
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB = 10
	defaultMaxFiles  = 5
)

// Options controls the default logger.
type Options struct {
	// Level is one of debug, info, warn, error (default: info).
	Level string
	// Format is "text" (tint) or "json" (default: text).
	Format string
	// File, when set, sends logs to a size-rotated file instead of stderr.
	File      string
	MaxSizeMB int
	MaxFiles  int
	// AddSource includes file:line in every record.
	AddSource bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the default slog logger. The returned Closer flushes and
// closes the log file, if any.
func Setup(opts Options) (io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
		color            = true
	)
	if opts.File != "" {
		writer, err := newRotatingWriter(opts)
		if err != nil {
			return nil, err
		}
		out, closer, color = writer, writer, false
	}

	handler, err := newHandler(out, opts.Format, level, opts.AddSource, color)
	if err != nil {
		closer.Close()
		return nil, err
	}
	slog.SetDefault(slog.New(handler))
	return closer, nil
}

func newHandler(w io.Writer, format string, level slog.Level, addSource, color bool) (slog.Handler, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  addSource,
			NoColor:    !color,
		}), nil
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: addSource,
		}), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
}

func newRotatingWriter(opts Options) (*lumberjack.Logger, error) {
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = defaultMaxSizeMB
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = defaultMaxFiles
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxFiles,
	}, nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
// An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
