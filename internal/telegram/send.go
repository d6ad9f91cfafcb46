package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/garyellow/codered-bot-go/internal/config"
	"github.com/garyellow/codered-bot-go/internal/stringutil"
)

// Send delivers plain text, split into Telegram-sized chunks.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range stringutil.SplitMessage(text, config.TelegramMaxMessageLength) {
		if err := b.send(ctx, chatID, chunk, ""); err != nil {
			return err
		}
	}
	return nil
}

// SendFormatted delivers Markdown text. When Telegram rejects the markup
// the chunk is re-sent as plain text.
func (b *Bot) SendFormatted(ctx context.Context, chatID int64, markdown string) error {
	for _, chunk := range stringutil.SplitMessage(markdown, config.TelegramMaxMessageLength) {
		err := b.send(ctx, chatID, chunk, tgbotapi.ModeMarkdown)
		if err == nil {
			continue
		}
		if !isParseError(err) {
			return err
		}
		b.logger.WithError(err).WarnContext(ctx, "Markdown rejected, resending as plain text")
		if err := b.send(ctx, chatID, chunk, ""); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) send(ctx context.Context, chatID int64, text, parseMode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		b.metrics.RecordSendError(Platform, sendErrorReason(err))
		return err
	}
	return nil
}

// isParseError reports whether Telegram refused the message's entities.
func isParseError(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "parse")
	}
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}

func sendErrorReason(err error) string {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return "transport"
	}
	switch {
	case apiErr.Code == 429:
		return "rate_limit"
	case apiErr.Code == 403:
		return "blocked"
	case apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "parse"):
		return "markup"
	default:
		return "api"
	}
}
