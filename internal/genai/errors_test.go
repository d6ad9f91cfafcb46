package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected ErrorAction
	}{
		{name: "nil error", err: nil, expected: ActionFail},

		// Context errors
		{name: "context canceled", err: context.Canceled, expected: ActionFail},
		{name: "context deadline exceeded", err: context.DeadlineExceeded, expected: ActionRetry},
		{name: "timeout provider error", err: timeoutError(ProviderOpenAI, "m", context.DeadlineExceeded), expected: ActionRetry},

		// Reply problems
		{name: "empty reply", err: newProviderError(ProviderGemini, "m", 0, apperrors.ErrEmptyReply), expected: ActionFallback},
		{name: "malformed reply", err: newProviderError(ProviderOpenRouter, "m", 200, ErrMalformedResponse), expected: ActionFallback},

		// Status codes
		{name: "429", err: newProviderError(ProviderOpenAI, "m", http.StatusTooManyRequests, errors.New("rate limited")), expected: ActionRetry},
		{name: "429 quota", err: newProviderError(ProviderOpenAI, "m", http.StatusTooManyRequests, errors.New("You exceeded your current quota")), expected: ActionFallback},
		{name: "402", err: newProviderError(ProviderOpenRouter, "m", http.StatusPaymentRequired, errors.New("pay")), expected: ActionFallback},
		{name: "500", err: newProviderError(ProviderAnthropic, "m", http.StatusInternalServerError, errors.New("boom")), expected: ActionRetry},
		{name: "503", err: newProviderError(ProviderGemini, "m", http.StatusServiceUnavailable, errors.New("busy")), expected: ActionRetry},
		{name: "400", err: newProviderError(ProviderOpenAI, "m", http.StatusBadRequest, errors.New("bad")), expected: ActionFail},
		{name: "401", err: newProviderError(ProviderOpenAI, "m", http.StatusUnauthorized, errors.New("no")), expected: ActionFail},
		{name: "404", err: newProviderError(ProviderOpenAI, "m", http.StatusNotFound, errors.New("no model")), expected: ActionFail},
		{name: "408", err: newProviderError(ProviderOpenAI, "m", http.StatusRequestTimeout, errors.New("slow")), expected: ActionRetry},

		// Message-based classification
		{name: "quota message", err: errors.New("daily limit reached"), expected: ActionFallback},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), expected: ActionRetry},
		{name: "invalid api key", err: errors.New("Invalid API key provided"), expected: ActionFail},
		{name: "unknown", err: errors.New("something odd"), expected: ActionRetry},
		{name: "wrapped provider error", err: fmt.Errorf("outer: %w", newProviderError(ProviderOpenAI, "m", 403, errors.New("forbidden"))), expected: ActionFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ClassifyError(tt.err))
		})
	}
}

func TestErrorActionString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "retry", ActionRetry.String())
	assert.Equal(t, "fallback", ActionFallback.String())
	assert.Equal(t, "fail", ActionFail.String())
	assert.Equal(t, "unknown", ErrorAction(99).String())
}

func TestProviderError(t *testing.T) {
	t.Parallel()

	cause := errors.New("upstream exploded")
	err := &ProviderError{Provider: ProviderOpenRouter, Model: "openai/gpt-4o-mini", StatusCode: 502, Err: cause}

	assert.Equal(t, "openrouter (openai/gpt-4o-mini): upstream exploded (status: 502)", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsProviderError(fmt.Errorf("wrap: %w", err)))
	assert.False(t, IsProviderError(cause))

	bare := &ProviderError{Provider: ProviderGemini}
	assert.Equal(t, "gemini: completion failed", bare.Error())
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	err := timeoutError(ProviderAnthropic, "claude", context.DeadlineExceeded)
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "timeout", statusLabel(err))
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err      error
		expected string
	}{
		{nil, "success"},
		{context.Canceled, "canceled"},
		{newProviderError(ProviderOpenAI, "", 0, apperrors.ErrEmptyReply), "bad_response"},
		{newProviderError(ProviderOpenAI, "", 429, errors.New("x")), "rate_limit"},
		{newProviderError(ProviderOpenAI, "", 500, errors.New("x")), "server_error"},
		{newProviderError(ProviderOpenAI, "", 401, errors.New("x")), "auth_error"},
		{newProviderError(ProviderOpenAI, "", 422, errors.New("x")), "client_error"},
		{newProviderError(ProviderOpenAI, "", 0, errors.New("dial tcp")), "transport_error"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, statusLabel(tt.err))
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		headers  http.Header
		expected time.Duration
	}{
		{name: "absent", headers: http.Header{}, expected: 0},
		{name: "seconds", headers: http.Header{"Retry-After": {"3"}}, expected: 3 * time.Second},
		{name: "milliseconds win", headers: http.Header{"Retry-After-Ms": {"250"}, "Retry-After": {"3"}}, expected: 250 * time.Millisecond},
		{name: "garbage", headers: http.Header{"Retry-After": {"soon"}}, expected: 0},
		{name: "negative", headers: http.Header{"Retry-After": {"-4"}}, expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseRetryAfter(tt.headers))
		})
	}
}
