package logger

import (
	"context"
	"log/slog"

	"github.com/garyellow/codered-bot-go/internal/ctxutil"
)

// ContextHandler is a slog.Handler decorator that copies tracing values
// (user, chat, request, platform) from the context onto every record, so call
// sites using slog.*Context never have to pass them by hand.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a new ContextHandler that wraps the provided handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds context values as attributes before delegating.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if userID := ctxutil.GetUserID(ctx); userID != "" {
		r.AddAttrs(slog.String("user_id", userID))
	}
	if chatID := ctxutil.GetChatID(ctx); chatID != "" {
		r.AddAttrs(slog.String("chat_id", chatID))
	}
	if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
		r.AddAttrs(slog.String("request_id", requestID))
	}
	if platform := ctxutil.GetPlatform(ctx); platform != "" {
		r.AddAttrs(slog.String("platform", platform))
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler wrapping the handler with attrs applied.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a new ContextHandler wrapping the handler with the group applied.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}
