// Package sentry wraps the Sentry Go SDK for error tracking of failed turns.
// Any Sentry-compatible backend (sentry.io, Better Stack Errors, GlitchTip)
// works through its DSN.
package sentry

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/garyellow/codered-bot-go/internal/ctxutil"
)

// Config holds Sentry configuration.
type Config struct {
	// DSN is the project DSN. Empty disables Sentry.
	DSN string

	// Environment identifies the deployment environment (e.g., "production", "staging").
	Environment string

	// Release identifies the application release version.
	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0 = 100%).
	SampleRate float64

	// Debug enables Sentry SDK debug logging.
	Debug bool
}

// Initialize sets up the Sentry SDK.
// If DSN is empty, Sentry is disabled and nil is returned.
func Initialize(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}

	u, err := url.Parse(cfg.DSN)
	if err != nil || u.Scheme == "" || u.Host == "" || u.User == nil {
		return fmt.Errorf("sentry DSN must look like https://key@host/project")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
		// Student messages never leave the process through error reports.
		SendDefaultPII: false,
	})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureExceptionWithContext captures an error tagged with the tracing
// values found in ctx. Extra tags (provider, command, ...) are attached as-is.
func CaptureExceptionWithContext(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		if platform := ctxutil.GetPlatform(ctx); platform != "" {
			scope.SetTag("platform", platform)
		}
		if requestID, ok := ctxutil.GetRequestID(ctx); ok {
			scope.SetTag("request_id", requestID)
		}
		if userID := ctxutil.GetUserID(ctx); userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// RecoverPanic reports a recovered panic value and returns it as an error.
func RecoverPanic(ctx context.Context, recovered any) error {
	err := fmt.Errorf("panic: %v", recovered)
	CaptureExceptionWithContext(ctx, err, map[string]string{"kind": "panic"})
	return err
}
