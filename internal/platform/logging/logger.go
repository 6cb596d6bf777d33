// Package logging provides structured logging using Go's slog package,
// enriched with backdrop context snapshots.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	charm "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace is a custom level below slog.LevelDebug for very verbose
// output.
const LevelTrace = slog.Level(-8)

// Config holds logging configuration.
type Config struct {
	Level   string // trace, debug, info, warn, error
	Format  string // json, text, pretty
	Service string // service name for default attrs
	Version string // service version for default attrs

	// ContextPrefix renders the backdrop snapshot as a literal
	// "[k=v][k2=v2]" prefix on the message instead of structured attrs.
	ContextPrefix bool

	// File configures an optional rolling JSON log file written in
	// addition to the primary writer.
	File FileConfig
}

// FileConfig contains rolling log file settings (lumberjack).
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New creates a new configured slog.Logger writing to stdout.
func New(cfg *Config) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter creates a new configured slog.Logger with a custom writer.
// Every record is enriched from the backdrop stack bound to the logging
// context; secrets are redacted by default.
func NewWithWriter(cfg *Config, w io.Writer) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: NewReplaceAttr(),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "pretty":
		handler = charm.NewWithOptions(w, charm.Options{
			Level:           slogToCharmLevel(level),
			ReportTimestamp: true,
		})
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	if cfg.File.Enabled {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		handler = NewMultiHandler(handler, slog.NewJSONHandler(fileWriter, opts))
	}

	handler = NewBackdropHandler(handler, BackdropHandlerOptions{
		Prefix: cfg.ContextPrefix,
	})

	logger := slog.New(handler).With(
		slog.String("service_name", cfg.Service),
		slog.String("service_version", cfg.Version),
	)

	return logger
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slogToCharmLevel maps an slog.Level onto the closest charmbracelet/log
// level for the pretty handler.
func slogToCharmLevel(level slog.Level) charm.Level {
	switch {
	case level < slog.LevelInfo:
		return charm.DebugLevel
	case level < slog.LevelWarn:
		return charm.InfoLevel
	case level < slog.LevelError:
		return charm.WarnLevel
	default:
		return charm.ErrorLevel
	}
}
