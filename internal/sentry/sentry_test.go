package sentry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyellow/codered-bot-go/internal/ctxutil"
)

func TestInitialize_EmptyDSN(t *testing.T) {
	t.Parallel()

	if err := Initialize(Config{DSN: ""}); err != nil {
		t.Errorf("Expected nil error for empty DSN, got %v", err)
	}
}

func TestInitialize_InvalidDSN(t *testing.T) {
	t.Parallel()

	for _, dsn := range []string{"not a dsn", "https://host-only.example/1", "://broken"} {
		if err := Initialize(Config{DSN: dsn}); err == nil {
			t.Errorf("Initialize(%q) expected error", dsn)
		}
	}
}

func TestInitialize_ValidConfig(t *testing.T) {
	// Cannot use t.Parallel() as Sentry uses global state

	err := Initialize(Config{
		DSN:         "https://public@errors.example.com/1",
		Environment: "test",
	})
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if !IsEnabled() {
		t.Error("Expected IsEnabled() to return true after initialization")
	}

	ctx := ctxutil.WithUserID(context.Background(), "42")
	ctx = ctxutil.WithPlatform(ctx, "telegram")
	CaptureExceptionWithContext(ctx, errors.New("provider down"), map[string]string{"provider": "openai"})
	CaptureExceptionWithContext(ctx, nil, nil)

	if err := RecoverPanic(ctx, "boom"); err == nil || err.Error() != "panic: boom" {
		t.Errorf("RecoverPanic() = %v, want panic: boom", err)
	}

	Flush(time.Second)
}
