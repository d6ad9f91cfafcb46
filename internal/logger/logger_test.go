package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		level string
		want  slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"warning alias", "WARNING", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"invalid defaults to info", "invalid", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseLevel(tt.level); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter_KeyNames(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Warn("careful")

	entry := decodeLine(t, &buf)
	if entry["message"] != "careful" {
		t.Errorf("message = %v, want careful", entry["message"])
	}
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("timestamp key missing")
	}
}

func TestNewWithWriter_FiltersBelowLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)

	log.Info("dropped")

	if buf.Len() != 0 {
		t.Errorf("expected no output below level, got %q", buf.String())
	}
}

func TestLogger_WithHelpers(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.WithModule("bot").
		WithRequestID("req-1").
		WithError(errors.New("boom")).
		WithField("turns", 3).
		WithFields(map[string]any{"provider": "openai"}).
		Info("turn failed")

	entry := decodeLine(t, &buf)
	want := map[string]any{
		"module":     "bot",
		"request_id": "req-1",
		"error":      "boom",
		"turns":      float64(3),
		"provider":   "openai",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestLogger_ShutdownWithoutRemote(t *testing.T) {
	t.Parallel()
	log := NewWithWriter("info", &bytes.Buffer{})
	if err := log.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	var nilLogger *Logger
	if err := nilLogger.Shutdown(context.Background()); err != nil {
		t.Errorf("nil Shutdown() error = %v", err)
	}
}

func TestNewWithOptions_RemoteEnabled(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithOptions("info", &buf, Options{
		BetterStackToken:    "token",
		BetterStackEndpoint: "http://127.0.0.1:1",
	})
	if log.remote == nil {
		t.Fatal("expected remote handler when token is set")
	}

	log.Info("local copy")
	entry := decodeLine(t, &buf)
	if entry["message"] != "local copy" {
		t.Errorf("message = %v, want local copy", entry["message"])
	}
}
