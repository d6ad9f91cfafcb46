// Package config provides centralized timeout constants for the application.
//
// Telegram delivers updates through long polling, so the only latency budget
// that matters to the user is the completion call. LINE webhooks must be
// acknowledged quickly and are processed asynchronously afterwards.
package config

import "time"

// Completion timeouts
const (
	// CompletionRequest bounds a single completion call including retries
	// and provider fallback.
	CompletionRequest = 30 * time.Second

	// CompletionRetryInitial is the base delay for full-jitter backoff.
	CompletionRetryInitial = 500 * time.Millisecond

	// CompletionRetryMax caps a single backoff delay.
	CompletionRetryMax = 3 * time.Second
)

// Front end timeouts
const (
	// TelegramPollTimeout is the long-polling timeout passed to getUpdates.
	TelegramPollTimeout = 60 * time.Second

	// SendMessage bounds delivery of one reply after the turn finished.
	SendMessage = 10 * time.Second

	// WebhookProcessing bounds processing of one LINE webhook event.
	// Must exceed CompletionRequest so the apology can still be sent.
	WebhookProcessing = 45 * time.Second
)

// HTTP server timeouts
const (
	// HTTPRead is the ops server read timeout. Request bodies are small.
	HTTPRead = 10 * time.Second

	// HTTPReadHeader limits slow header attacks on the ops server.
	HTTPReadHeader = 5 * time.Second

	// HTTPWrite is the ops server write timeout.
	HTTPWrite = 15 * time.Second

	// HTTPIdle is the keep-alive idle timeout.
	HTTPIdle = 120 * time.Second

	// HealthcheckRequest bounds the container healthcheck probe.
	HealthcheckRequest = 5 * time.Second
)

// Background job intervals
const (
	// ConversationCleanupInterval is how often idle histories are evicted
	// when HISTORY_IDLE_TTL is set.
	ConversationCleanupInterval = 5 * time.Minute

	// MetricsUpdateInterval is how often gauge metrics are refreshed.
	MetricsUpdateInterval = 30 * time.Second
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
