// Package logger provides structured logging utilities for the application.
// It wraps log/slog with JSON formatting, enriches records with tracing
// values from the context and can ship logs to Better Stack.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger
	remote *AsyncHandler
}

// Options configures optional log sinks.
type Options struct {
	// BetterStackToken enables log shipping when non-empty.
	BetterStackToken string
	// BetterStackEndpoint overrides the ingesting host.
	BetterStackEndpoint string
	// Async tunes the remote shipping buffer.
	Async AsyncOptions
}

// New creates a new logger instance with JSON formatting on stdout
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a new logger writing JSON to the provided writer
func NewWithWriter(level string, w io.Writer) *Logger {
	return NewWithOptions(level, w, Options{})
}

// NewWithOptions creates a logger writing JSON to w and, when a Better Stack
// token is set, fanning records out to Better Stack through an async queue.
func NewWithOptions(level string, w io.Writer, opts Options) *Logger {
	logLevel := ParseLevel(level)

	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       logLevel,
		ReplaceAttr: replaceAttr,
	})

	var remote *AsyncHandler
	if opts.BetterStackToken != "" {
		remote = NewAsyncHandler(newBetterStackHandler(logLevel, opts), opts.Async)
		handler = NewMultiHandler(handler, remote)
	}

	return &Logger{
		Logger: slog.New(NewContextHandler(handler)),
		remote: remote,
	}
}

// ParseLevel maps a configuration string to a slog level. Unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// replaceAttr renames the built-in keys to the names our log pipeline indexes.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.LevelKey:
		a.Key = "level"
		lvl := a.Value.String()
		if lvl == "WARN" {
			lvl = "warning"
		}
		a.Value = slog.StringValue(strings.ToLower(lvl))
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

func (l *Logger) derive(inner *slog.Logger) *Logger {
	return &Logger{Logger: inner, remote: l.remote}
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return l.derive(l.With("module", module))
}

// WithRequestID creates a new entry with request ID field
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.derive(l.With("request_id", requestID))
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.With("error", err))
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.With(key, value))
}

// WithFields creates a new entry with multiple fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.derive(l.With(args...))
}

// Shutdown flushes records still queued for remote shipping.
// Safe to call when remote shipping is disabled.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l == nil || l.remote == nil {
		return nil
	}
	return l.remote.Shutdown(ctx)
}
