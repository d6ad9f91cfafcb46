package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
)

// ErrMalformedResponse indicates a 2xx response without the reply field.
var ErrMalformedResponse = errors.New("malformed completion response")

// ErrorAction defines the action to take based on error type.
type ErrorAction int

const (
	// ActionRetry indicates the request should be retried with the same provider.
	ActionRetry ErrorAction = iota
	// ActionFallback indicates fallback to another provider should be attempted.
	ActionFallback
	// ActionFail indicates the request should fail immediately (permanent error).
	ActionFail
)

// String returns a human-readable string for the error action.
func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// ProviderError is returned by every Completer on failure: transport
// errors, non-2xx statuses, missing reply fields and timeouts.
type ProviderError struct {
	Provider   Provider
	Model      string
	StatusCode int // 0 unless the provider answered with a non-2xx status
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Provider))
	if e.Model != "" {
		b.WriteString(" (" + e.Model + ")")
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("completion failed")
	}
	if e.StatusCode > 0 {
		b.WriteString(" (status: " + strconv.Itoa(e.StatusCode) + ")")
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newProviderError(p Provider, model string, status int, err error) *ProviderError {
	return &ProviderError{Provider: p, Model: model, StatusCode: status, Err: err}
}

// IsProviderError reports whether err wraps a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// ClassifyError determines the appropriate action based on the error:
//   - Transient errors (429, 5xx, network, timeouts) → Retry
//   - Quota exhaustion, empty or malformed replies → Fallback to next provider
//   - Permanent errors (400, 401, 403, 404, 422) → Fail immediately
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}

	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, apperrors.ErrTimeout) {
		return ActionRetry
	}
	if errors.Is(err, apperrors.ErrEmptyReply) || errors.Is(err, ErrMalformedResponse) {
		return ActionFallback
	}

	var pe *ProviderError
	if errors.As(err, &pe) && pe.StatusCode > 0 {
		return classifyStatusCode(pe.StatusCode, err)
	}

	errStr := strings.ToLower(err.Error())

	if containsAny(errStr, "quota", "daily limit", "monthly limit", "billing", "insufficient credits") {
		return ActionFallback
	}
	if containsAny(errStr, "rate limit", "too many requests", "resource_exhausted", "overloaded", "unavailable", "timeout", "connection", "eof") {
		return ActionRetry
	}
	if containsAny(errStr, "unauthorized", "unauthenticated", "invalid api key", "forbidden", "permission denied") {
		return ActionFail
	}

	// Unknown errors are retried
	return ActionRetry
}

// classifyStatusCode determines action based on HTTP status code.
func classifyStatusCode(statusCode int, err error) ErrorAction {
	switch {
	case statusCode == http.StatusTooManyRequests:
		// Providers report exhausted quotas as 429 too
		if containsAny(strings.ToLower(err.Error()), "quota", "billing", "credits") {
			return ActionFallback
		}
		return ActionRetry
	case statusCode == http.StatusPaymentRequired:
		return ActionFallback
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusConflict:
		return ActionRetry
	case statusCode >= 500 && statusCode < 600:
		return ActionRetry
	case statusCode >= 400 && statusCode < 500:
		return ActionFail
	default:
		return ActionRetry
	}
}

// statusLabel maps an error to a metric status label.
func statusLabel(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, apperrors.ErrTimeout) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, apperrors.ErrEmptyReply) || errors.Is(err, ErrMalformedResponse) {
		return "bad_response"
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch {
		case pe.StatusCode == http.StatusTooManyRequests:
			return "rate_limit"
		case pe.StatusCode >= 500:
			return "server_error"
		case pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden:
			return "auth_error"
		case pe.StatusCode >= 400:
			return "client_error"
		}
	}
	return "transport_error"
}

// ParseRetryAfter parses the Retry-After header value.
// Supports integer seconds and HTTP-date formats; returns 0 when absent.
func ParseRetryAfter(headers http.Header) time.Duration {
	if msStr := headers.Get("retry-after-ms"); msStr != "" {
		if ms, err := strconv.Atoi(msStr); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	if secStr := headers.Get("retry-after"); secStr != "" {
		if sec, err := strconv.Atoi(secStr); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
		if t, err := http.ParseTime(secStr); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
		}
	}
	return 0
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// timeoutError converts a context failure into a ProviderError.
func timeoutError(p Provider, model string, ctxErr error) *ProviderError {
	return newProviderError(p, model, 0, fmt.Errorf("%w: %w", apperrors.ErrTimeout, ctxErr))
}
