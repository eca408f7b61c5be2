// Package xlog provides structured logging shared across the tunnelling
// session, the routing engine, and the example gateway binary.
//
// It wraps log/slog the same way the rest of this stack does: JSON
// output for production, text output for development, a fixed set of
// default fields, and level-based filtering, configured via
// config.LoggingConfig.
package xlog

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level names accepted in configuration.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Options configures a Logger.
type Options struct {
	Level  string // debug, info, warn, error (default info)
	Format string // json, text (default json)
	Output string // stdout, stderr (default stdout)

	// Component is attached to every record, e.g. "tunnel", "routing".
	Component string
}

// Logger wraps slog.Logger with this stack's default fields.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from Options.
func New(opts Options) *Logger {
	var output io.Writer
	switch strings.ToLower(opts.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "text":
		handler = slog.NewTextHandler(output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(output, handlerOpts)
	}

	attrs := []slog.Attr{slog.String("service", "knxnetip")}
	if opts.Component != "" {
		attrs = append(attrs, slog.String("component", opts.Component))
	}
	handler = handler.WithAttrs(attrs)

	return &Logger{Logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn, "warning":
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child Logger carrying additional default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a JSON logger at info level for use before
// configuration is available.
func Default() *Logger {
	return New(Options{})
}
