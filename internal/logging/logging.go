package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

type Options struct {
	Writer io.Writer
	Level  string
	// Color selects the tint text handler; otherwise records are JSON.
	Color     bool
	AddSource bool
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func New(opts Options) *slog.Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	level := ParseLevel(opts.Level)

	var handler slog.Handler
	if opts.Color {
		handler = tint.NewHandler(opts.Writer, &tint.Options{
			Level:      level,
			AddSource:  opts.AddSource,
			TimeFormat: time.DateTime,
		})
	} else {
		handler = slog.NewJSONHandler(opts.Writer, &slog.HandlerOptions{
			Level:     level,
			AddSource: opts.AddSource,
		})
	}
	return slog.New(handler)
}

// Component returns a child logger tagged with the component name.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", name)
}

// Discard is a logger for tests and callers that pass nil.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
