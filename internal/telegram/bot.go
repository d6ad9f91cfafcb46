// Package telegram is the long-polling Telegram front end. Each inbound
// text message is handled in its own goroutine; per-user ordering comes
// from the conversation store's turn lock.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/garyellow/codered-bot-go/internal/bot"
	"github.com/garyellow/codered-bot-go/internal/config"
	"github.com/garyellow/codered-bot-go/internal/ctxutil"
	"github.com/garyellow/codered-bot-go/internal/logger"
	"github.com/garyellow/codered-bot-go/internal/metrics"
	"github.com/garyellow/codered-bot-go/internal/telemetry"
)

// Platform is the platform label used in logs, metrics and store keys.
const Platform = "telegram"

// TurnProcessor handles one inbound text. Implemented by *bot.Processor.
type TurnProcessor interface {
	HandleText(ctx context.Context, userID, text string) bot.Reply
	Commands() []bot.Command
}

// botAPI is the subset of *tgbotapi.BotAPI used by the front end.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot polls Telegram for updates and relays processor replies.
type Bot struct {
	api       botAPI
	username  string
	processor TurnProcessor
	logger    *logger.Logger
	metrics   *metrics.Metrics

	pollTimeout int
	inflight    sync.WaitGroup
	running     atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(b *Bot) { b.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bot) { b.metrics = m }
}

// New authenticates with Telegram (getMe) and returns a bot ready to Run.
func New(token string, processor TurnProcessor, opts ...Option) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authenticate: %w", err)
	}
	b := newBot(api, api.Self.UserName, processor, opts...)
	_ = tgbotapi.SetLogger(botLogger{log: b.logger})
	return b, nil
}

func newBot(api botAPI, username string, processor TurnProcessor, opts ...Option) *Bot {
	b := &Bot{
		api:         api,
		username:    username,
		processor:   processor,
		pollTimeout: int(config.TelegramPollTimeout.Seconds()),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logger.New("info")
	}
	b.logger = b.logger.WithModule(Platform)
	return b
}

// Username returns the bot's @username without the '@'.
func (b *Bot) Username() string {
	return b.username
}

// Running reports whether the update loop is active.
func (b *Bot) Running() bool {
	return b.running.Load()
}

// Run registers the command menu and processes updates until ctx is done
// or Stop is called. It returns after in-flight turns have finished.
func (b *Bot) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	if b.cancel != nil {
		b.mu.Unlock()
		cancel()
		return errors.New("telegram: already running")
	}
	b.cancel = cancel
	b.mu.Unlock()
	defer cancel()

	if err := b.registerCommands(); err != nil {
		b.logger.WithError(err).WarnContext(ctx, "Failed to register command menu")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	u.AllowedUpdates = []string{"message"}
	updates := b.api.GetUpdatesChan(u)

	b.running.Store(true)
	b.logger.InfoContext(ctx, "Telegram polling started", "username", b.username)

	defer func() {
		b.running.Store(false)
		b.api.StopReceivingUpdates()
		b.inflight.Wait()
		b.logger.Info("Telegram polling stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(update)
		}
	}
}

// Stop ends the update loop. Run returns once in-flight turns finish.
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
}

// Wait blocks until every in-flight turn has finished.
func (b *Bot) Wait() {
	b.inflight.Wait()
}

// dispatch starts a goroutine for a text message. Other updates are counted
// and dropped.
func (b *Bot) dispatch(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		b.metrics.RecordUpdate(Platform, "unsupported")
		return
	}

	kind := "text"
	if msg.IsCommand() {
		kind = "command"
	}
	b.metrics.RecordUpdate(Platform, kind)

	b.inflight.Go(func() {
		b.handleMessage(msg)
	})
}

// handleMessage runs one turn detached from the poll loop's cancellation,
// so shutdown lets in-flight replies finish.
func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := userKey(msg)

	ctx := context.Background()
	ctx = ctxutil.WithPlatform(ctx, Platform)
	ctx = ctxutil.WithRequestID(ctx, telemetry.NewRequestID())
	ctx = ctxutil.WithUserID(ctx, userID)
	ctx = ctxutil.WithChatID(ctx, strconv.FormatInt(chatID, 10))

	text := b.stripMention(msg.Text)
	reply := b.processor.HandleText(ctx, userID, text)
	if reply.Empty() {
		return
	}

	var err error
	if reply.Markdown {
		err = b.SendFormatted(ctx, chatID, reply.Text)
	} else {
		err = b.Send(ctx, chatID, reply.Text)
	}
	if err != nil {
		b.logger.WithError(err).ErrorContext(ctx, "Failed to send reply")
	}
}

// stripMention removes a leading "@botname" so group messages addressed
// to the bot read as plain text.
func (b *Bot) stripMention(text string) string {
	if b.username == "" {
		return text
	}
	mention := "@" + b.username
	if len(text) >= len(mention) && strings.EqualFold(text[:len(mention)], mention) {
		return strings.TrimSpace(text[len(mention):])
	}
	return text
}

// userKey namespaces Telegram user IDs in the shared conversation store.
func userKey(msg *tgbotapi.Message) string {
	if msg.From != nil {
		return Platform + ":" + strconv.FormatInt(msg.From.ID, 10)
	}
	return Platform + ":chat:" + strconv.FormatInt(msg.Chat.ID, 10)
}

func (b *Bot) registerCommands() error {
	cmds := b.processor.Commands()
	if len(cmds) == 0 {
		return nil
	}
	menu := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		menu = append(menu, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	_, err := b.api.Request(tgbotapi.NewSetMyCommands(menu...))
	return err
}
