package logger

import (
	"log/slog"

	slogbetterstack "github.com/samber/slog-betterstack"
)

func newBetterStackHandler(level slog.Level, opts Options) slog.Handler {
	return slogbetterstack.Option{
		Level:    level,
		Token:    opts.BetterStackToken,
		Endpoint: opts.BetterStackEndpoint,
	}.NewBetterstackHandler()
}
