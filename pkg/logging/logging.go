// Package logging provides structured logging configuration and initialization.
// Records go to stdout in the configured format; when a log file is configured
// they are fanned out to a JSON file as well.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// New creates a configured slog.Logger along with a close function that
// releases the log file, if one was opened. Failing to open the file falls
// back to stdout only.
func New(cfg *Config) (*slog.Logger, func() error) {
	stdout := newHandler(os.Stdout, cfg.Format, cfg.Level)

	if cfg.File == "" {
		return slog.New(stdout), func() error { return nil }
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(stdout)
		logger.Error("open log file failed, using stdout only", "file", cfg.File, "error", err)
		return logger, func() error { return nil }
	}

	fileHandler := newHandler(file, FormatJSON, cfg.Level)
	return slog.New(slogmulti.Fanout(stdout, fileHandler)), file.Close
}

// NewWithWriter creates a logger that writes only to w.
func NewWithWriter(w io.Writer, cfg *Config) *slog.Logger {
	return slog.New(newHandler(w, cfg.Format, cfg.Level))
}

func newHandler(w io.Writer, format Format, level Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level.ToSlogLevel(),
	}

	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Level represents a logging severity level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Validate checks if the level is a valid logging level.
func (l Level) Validate() error {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return nil
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", l)
	}
}

// ToSlogLevel converts the Level to its slog.Level equivalent.
// Unknown levels default to slog.LevelInfo.
func (l Level) ToSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Format represents the log output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Validate checks if the format is a valid logging format.
func (f Format) Validate() error {
	switch f {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", f)
	}
}
