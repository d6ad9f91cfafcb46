// Package genai sends conversation histories to hosted language models.
//
// Every provider is an adapter behind the Completer interface:
//   - openai: github.com/openai/openai-go/v3
//   - openrouter: plain HTTPS against the OpenAI-compatible endpoint, reply read with gjson
//   - gemini: google.golang.org/genai
//   - anthropic: github.com/anthropics/anthropic-sdk-go
//
// FallbackCompleter chains adapters with two layers of recovery:
// retry on the same provider with full-jitter backoff, then the next
// provider in LLM_PROVIDERS order.
package genai

import (
	"context"
	"net/http"
	"time"

	"github.com/garyellow/codered-bot-go/internal/conversation"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderOpenAI is the OpenAI Chat Completions API.
	ProviderOpenAI Provider = "openai"
	// ProviderOpenRouter is OpenRouter's OpenAI-compatible API.
	ProviderOpenRouter Provider = "openrouter"
	// ProviderGemini is Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderAnthropic is Anthropic's Messages API.
	ProviderAnthropic Provider = "anthropic"
)

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Completer produces the next assistant reply for a history.
type Completer interface {
	// Complete sends the whole history and returns the reply text.
	// Failures are *ProviderError.
	Complete(ctx context.Context, history []conversation.Turn) (string, error)
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Close releases any resources held by the completer.
	Close() error
}

// Options configures one provider adapter.
type Options struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64

	// BaseURL overrides the provider endpoint (OpenRouter, tests).
	BaseURL string

	// HTTPClient overrides the transport. Defaults to a client without
	// timeout; calls are bounded by the context.
	HTTPClient *http.Client
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per provider (including initial).
	// Default: 2 (1 initial + 1 retry)
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	// Default: 500ms
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	// Default: 3s
	MaxDelay time.Duration
}

// Retry configuration defaults
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// Request defaults, matching the mentor persona's long-form replies.
const (
	DefaultMaxTokens   = 400
	DefaultTemperature = 0.9
)

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// withDefaults fills zero request fields.
func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	return o
}

// splitSystem separates the system turn from the dialogue turns. Providers
// with a dedicated system field (Gemini, Anthropic) need it apart.
func splitSystem(history []conversation.Turn) (system string, dialogue []conversation.Turn) {
	dialogue = make([]conversation.Turn, 0, len(history))
	for _, turn := range history {
		if turn.Role == conversation.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += turn.Content
			continue
		}
		dialogue = append(dialogue, turn)
	}
	return system, dialogue
}
