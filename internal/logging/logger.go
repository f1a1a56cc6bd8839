package logging

import (
	"io"
	"log/slog"
	"os"
	"sort"
)

// Logger wraps slog.Logger with the field helpers used by handlers.
type Logger struct {
	*slog.Logger
}

// NewLogger writes human-readable text in development and JSON otherwise.
func NewLogger(isDevelopment bool) *Logger {
	return New(os.Stdout, isDevelopment)
}

func New(w io.Writer, isDevelopment bool) *Logger {
	var handler slog.Handler
	if isDevelopment {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithFields returns a child logger that always includes fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return &Logger{Logger: l.Logger.With(args...)}
}
