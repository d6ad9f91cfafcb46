package genai

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"
)

// CalculateBackoff calculates the delay before the next retry attempt.
// Uses AWS-recommended Full Jitter algorithm:
//
//	delay = random(0, min(maxDelay, initialDelay * 2^(attempt-1)))
//
// Reference: https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
func CalculateBackoff(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}

	exp := math.Pow(2, float64(attempt-1))
	delay := time.Duration(float64(initial) * exp)
	if delay > maxDelay {
		delay = maxDelay
	}
	if delay <= 0 {
		return 0
	}

	// crypto/rand gives an unbiased uniform draw
	jitter, err := rand.Int(rand.Reader, big.NewInt(int64(delay)))
	if err != nil {
		return delay / 2
	}
	return time.Duration(jitter.Int64())
}

// Sleep waits for the specified duration, respecting context cancellation.
// Returns ctx.Err() if context is cancelled during sleep.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasSufficientBudget checks if there's enough time remaining for an operation.
func HasSufficientBudget(ctx context.Context, required time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return time.Until(deadline) >= required
}

// WithRetry executes fn until it succeeds, returns a non-retryable error or
// cfg.MaxAttempts is reached. onRetry, when set, runs before each retry.
func WithRetry(ctx context.Context, cfg RetryConfig, onRetry func(attempt int, err error), fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)
	var lastErr error

	for attempt := range attempts {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if ClassifyError(err) != ActionRetry || attempt == attempts-1 {
			return err
		}

		delay := CalculateBackoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay)
		if ra := retryAfter(err); ra > delay {
			delay = min(ra, cfg.MaxDelay)
		}
		if !HasSufficientBudget(ctx, delay) {
			return err
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}
		if Sleep(ctx, delay) != nil {
			return err
		}
	}
	return lastErr
}

func retryAfter(err error) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}
