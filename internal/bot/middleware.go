package bot

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/garyellow/codered-bot-go/internal/logger"
	"github.com/garyellow/codered-bot-go/internal/metrics"
	"github.com/garyellow/codered-bot-go/internal/sentry"
)

// Middleware wraps a TurnHandler.
type Middleware func(next TurnHandler) TurnHandler

// Chain applies middlewares so that the first one listed runs outermost.
func Chain(h TurnHandler, middlewares ...Middleware) TurnHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// LoggingMiddleware logs turn execution with timing and outcome.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next TurnHandler) TurnHandler {
		return func(ctx context.Context, userID, text string) Reply {
			start := time.Now()

			log.DebugContext(ctx, "Turn started", "text_length", len(text))

			reply := next(ctx, userID, text)

			log.DebugContext(ctx, "Turn completed",
				"outcome", reply.outcome,
				"duration_ms", time.Since(start).Milliseconds(),
				"reply_length", len(reply.Text))
			return reply
		}
	}
}

// MetricsMiddleware records turn counts and durations by outcome.
func MetricsMiddleware(m *metrics.Metrics) Middleware {
	return func(next TurnHandler) TurnHandler {
		return func(ctx context.Context, userID, text string) Reply {
			start := time.Now()
			reply := next(ctx, userID, text)
			m.RecordTurn(reply.outcome, time.Since(start).Seconds())
			return reply
		}
	}
}

// RecoveryMiddleware recovers from panics in a turn and returns the apology.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(next TurnHandler) TurnHandler {
		return func(ctx context.Context, userID, text string) (reply Reply) {
			defer func() {
				if r := recover(); r != nil {
					err := sentry.RecoverPanic(ctx, r)
					log.WithError(err).
						WithField("stack", string(debug.Stack())).
						ErrorContext(ctx, "Turn panicked")
					reply = Reply{Text: ApologyText, outcome: OutcomePanic}
				}
			}()
			return next(ctx, userID, text)
		}
	}
}
