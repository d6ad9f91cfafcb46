// Package webhook is the optional LINE front end. The gin handler verifies
// the signature, answers 200 at once and processes events asynchronously
// with the same turn processor as Telegram.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/garyellow/codered-bot-go/internal/bot"
	"github.com/garyellow/codered-bot-go/internal/config"
	"github.com/garyellow/codered-bot-go/internal/ctxutil"
	"github.com/garyellow/codered-bot-go/internal/logger"
	"github.com/garyellow/codered-bot-go/internal/metrics"
	"github.com/garyellow/codered-bot-go/internal/stringutil"
	"github.com/garyellow/codered-bot-go/internal/telemetry"
)

// Platform is the platform label used in logs, metrics and store keys.
const Platform = "line"

// maxEventsPerWebhook caps one delivery batch.
const maxEventsPerWebhook = 100

// TurnProcessor handles one inbound text. Implemented by *bot.Processor.
type TurnProcessor interface {
	HandleText(ctx context.Context, userID, text string) bot.Reply
}

// Handler handles LINE webhook events.
type Handler struct {
	channelSecret string
	messenger     Messenger
	processor     TurnProcessor
	metrics       *metrics.Metrics
	logger        *logger.Logger
	wg            sync.WaitGroup
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	ChannelSecret string
	Messenger     Messenger
	Processor     TurnProcessor
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.ChannelSecret == "" {
		return nil, errors.New("webhook: channel secret is required")
	}
	if cfg.Messenger == nil || cfg.Processor == nil {
		return nil, errors.New("webhook: messenger and processor are required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.New("info")
	}
	return &Handler{
		channelSecret: cfg.ChannelSecret,
		messenger:     cfg.Messenger,
		processor:     cfg.Processor,
		metrics:       cfg.Metrics,
		logger:        log.WithModule(Platform),
	}, nil
}

// Handle is the Gin handler for the webhook endpoint.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	// LINE expects 200 before any slow work
	c.Status(http.StatusOK)

	events := cb.Events
	if len(events) > maxEventsPerWebhook {
		h.logger.WithField("event_count", len(events)).Warn("Too many events in webhook batch; truncating")
		events = events[:maxEventsPerWebhook]
	}
	if len(events) == 0 {
		return
	}
	events = append([]webhook.EventInterface(nil), events...)

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async event processing")
			}
		}()
		for _, event := range events {
			h.processEvent(event)
		}
	})
}

// processEvent handles one event. Text messages and follows get a reply;
// everything else is counted and skipped.
func (h *Handler) processEvent(event webhook.EventInterface) {
	var (
		source     webhook.SourceInterface
		replyToken string
		eventID    string
		text       string
		kind       string
	)

	switch e := event.(type) {
	case webhook.MessageEvent:
		msg, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			h.metrics.RecordUpdate(Platform, "unsupported")
			return
		}
		source, replyToken, eventID = e.Source, e.ReplyToken, e.WebhookEventId
		kind = "text"

		addressed, mentioned := addressedText(msg)
		if !isPersonalChat(source) && !mentioned {
			// Groups only get a reply when the bot is mentioned
			h.metrics.RecordUpdate(Platform, "ignored")
			return
		}
		text = addressed
		if _, isCmd := bot.ParseCommand(text); isCmd {
			kind = "command"
		}
	case webhook.FollowEvent:
		source, replyToken, eventID = e.Source, e.ReplyToken, e.WebhookEventId
		kind = "follow"
		text = "/start"
	default:
		h.metrics.RecordUpdate(Platform, "unsupported")
		h.logger.WithField("event_type", fmt.Sprintf("%T", e)).Debug("Unsupported event type")
		return
	}
	h.metrics.RecordUpdate(Platform, kind)

	ctx := context.Background()
	ctx = ctxutil.WithPlatform(ctx, Platform)
	if eventID == "" {
		eventID = telemetry.NewRequestID()
	}
	ctx = ctxutil.WithRequestID(ctx, eventID)
	key := storeKey(source)
	ctx = ctxutil.WithUserID(ctx, key)
	ctx = ctxutil.WithChatID(ctx, chatID(source))

	if target := chatID(source); target != "" && isPersonalChat(source) {
		if err := h.messenger.ShowLoading(target); err != nil {
			h.logger.WithError(err).DebugContext(ctx, "Failed to show loading animation")
		}
	}

	start := time.Now()
	reply := h.processor.HandleText(ctx, key, text)
	if reply.Empty() || replyToken == "" {
		return
	}

	// LINE has no legacy Markdown; replies go out as plain text
	if err := h.messenger.Reply(replyToken, replyChunks(reply.Text)); err != nil {
		h.metrics.RecordSendError(Platform, sendErrorReason(err))
		h.logger.WithError(err).ErrorContext(ctx, "Failed to send reply")
		return
	}
	h.logger.DebugContext(ctx, "Event processed",
		"event_type", kind,
		"duration_ms", time.Since(start).Milliseconds())
}

// storeKey namespaces LINE users in the shared conversation store. Group
// members who hide their user ID share the group's history.
func storeKey(source webhook.SourceInterface) string {
	if id := userID(source); id != "" {
		return Platform + ":" + id
	}
	return Platform + ":chat:" + chatID(source)
}

// replyChunks splits text to LINE's per-message limit and folds any
// overflow into the last allowed message.
func replyChunks(text string) []string {
	chunks := stringutil.SplitMessage(text, config.LINEMaxTextMessageLength)
	limit := config.LINEMaxMessagesPerReply
	if len(chunks) <= limit {
		return chunks
	}
	tail := strings.Join(chunks[limit-1:], "\n")
	chunks = chunks[:limit]
	chunks[limit-1] = stringutil.Truncate(tail, config.LINEMaxTextMessageLength)
	return chunks
}

func sendErrorReason(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid reply token"):
		return "reply_token"
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return "rate_limit"
	default:
		return "api"
	}
}

// Shutdown waits for all async event processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
