package genai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/garyellow/codered-bot-go/internal/conversation"
	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
	"github.com/garyellow/codered-bot-go/internal/logger"
	"github.com/garyellow/codered-bot-go/internal/metrics"
	"github.com/garyellow/codered-bot-go/internal/telemetry"
)

// FallbackCompleter chains completers in priority order.
// It implements two layers of recovery:
//  1. Retry with backoff on the same provider (transient errors)
//  2. Provider fallback to the next completer (quota, bad replies, exhausted retries)
//
// Permanent errors (auth, invalid request) stop the chain.
type FallbackCompleter struct {
	completers  []Completer
	retryConfig RetryConfig
	timeout     time.Duration
	logger      *logger.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

// FallbackOption customises a FallbackCompleter.
type FallbackOption func(*FallbackCompleter)

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg RetryConfig) FallbackOption {
	return func(f *FallbackCompleter) { f.retryConfig = cfg }
}

// WithTimeout bounds every provider attempt.
func WithTimeout(d time.Duration) FallbackOption {
	return func(f *FallbackCompleter) { f.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) FallbackOption {
	return func(f *FallbackCompleter) { f.logger = log }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) FallbackOption {
	return func(f *FallbackCompleter) { f.metrics = m }
}

// NewFallbackCompleter creates a fallback chain. Nil completers are skipped.
func NewFallbackCompleter(completers []Completer, opts ...FallbackOption) *FallbackCompleter {
	f := &FallbackCompleter{
		retryConfig: DefaultRetryConfig(),
		tracer:      telemetry.Tracer(),
	}
	for _, c := range completers {
		if c != nil {
			f.completers = append(f.completers, c)
		}
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.New("info")
	}
	f.logger = f.logger.WithModule("genai")
	return f
}

// Complete tries each completer in order until one returns a reply.
func (f *FallbackCompleter) Complete(ctx context.Context, history []conversation.Turn) (string, error) {
	if f == nil || len(f.completers) == 0 {
		return "", apperrors.ErrNoProvider
	}

	start := time.Now()
	var lastErr error

	for i, c := range f.completers {
		if i > 0 {
			from, to := f.completers[i-1].Provider(), c.Provider()
			f.logger.InfoContext(ctx, "Falling back to next provider",
				"from", from,
				"to", to,
				"error", lastErr)
			f.metrics.RecordFallback(from.String(), to.String())
		}

		reply, err := f.completeWithRetry(ctx, c, history)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		action := ClassifyError(err)
		f.logger.WarnContext(ctx, "Provider failed",
			"provider", c.Provider(),
			"error", err,
			"action", action,
			"duration", time.Since(start))

		if action == ActionFail || ctx.Err() != nil {
			return "", err
		}
	}

	f.logger.ErrorContext(ctx, "All providers failed",
		"providers", len(f.completers),
		"error", lastErr,
		"duration", time.Since(start))
	return "", fmt.Errorf("all providers failed: %w", lastErr)
}

// completeWithRetry runs one provider under the retry policy.
func (f *FallbackCompleter) completeWithRetry(ctx context.Context, c Completer, history []conversation.Turn) (string, error) {
	var reply string
	onRetry := func(attempt int, err error) {
		f.logger.DebugContext(ctx, "Retrying completion",
			"provider", c.Provider(),
			"attempt", attempt,
			"error", err)
		f.metrics.RecordCompletionRetry(c.Provider().String())
	}

	err := WithRetry(ctx, f.retryConfig, onRetry, func() error {
		var err error
		reply, err = f.attempt(ctx, c, history)
		return err
	})
	return reply, err
}

// attempt performs one traced, timed provider call.
func (f *FallbackCompleter) attempt(ctx context.Context, c Completer, history []conversation.Turn) (string, error) {
	provider := c.Provider()
	ctx, span := f.tracer.Start(ctx, "genai.Complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", provider.String()),
			attribute.Int("llm.history_turns", len(history)),
		))
	defer span.End()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := c.Complete(ctx, history)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !IsProviderError(err) {
		err = timeoutError(provider, "", err)
	}
	f.metrics.RecordCompletion(provider.String(), statusLabel(err), time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, statusLabel(err))
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, nil
}

// Provider returns the first provider in the chain.
func (f *FallbackCompleter) Provider() Provider {
	if f == nil || len(f.completers) == 0 {
		return ""
	}
	return f.completers[0].Provider()
}

// Providers returns the chain order.
func (f *FallbackCompleter) Providers() []Provider {
	if f == nil {
		return nil
	}
	out := make([]Provider, len(f.completers))
	for i, c := range f.completers {
		out[i] = c.Provider()
	}
	return out
}

// Close closes every completer in the chain.
func (f *FallbackCompleter) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, c := range f.completers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.Provider(), err))
		}
	}
	return errors.Join(errs...)
}
