// Package bot runs one conversational turn: fixed commands, the policy
// pipeline (sensitivity, language, prompt), the completion call and the
// history commit. Front ends call Processor.HandleText and relay the Reply.
package bot

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/garyellow/codered-bot-go/internal/config"
	"github.com/garyellow/codered-bot-go/internal/conversation"
	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
	"github.com/garyellow/codered-bot-go/internal/genai"
	"github.com/garyellow/codered-bot-go/internal/langdetect"
	"github.com/garyellow/codered-bot-go/internal/logger"
	"github.com/garyellow/codered-bot-go/internal/metrics"
	"github.com/garyellow/codered-bot-go/internal/prompt"
	"github.com/garyellow/codered-bot-go/internal/sensitivity"
	"github.com/garyellow/codered-bot-go/internal/sentry"
)

// Turn outcomes, used as metric labels.
const (
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeCommand   = "command"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomePanic     = "panic"
)

// MaxMessageLength is the longest inbound text, in characters, that is
// sent to the model.
const MaxMessageLength = config.MaxInboundMessageLength

// Reply is the outcome of one turn. An empty Text means nothing is sent.
type Reply struct {
	Text     string
	Markdown bool

	outcome string
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool {
	return r.Text == ""
}

// Outcome returns the turn outcome label.
func (r Reply) Outcome() string {
	return r.outcome
}

// TurnHandler handles one inbound text for a user.
type TurnHandler func(ctx context.Context, userID, text string) Reply

// Processor orchestrates turns. It is safe for concurrent use; turns of
// the same user are serialized by the conversation store.
type Processor struct {
	store      *conversation.Store
	classifier *sensitivity.Classifier
	detector   *langdetect.Detector
	prompts    *prompt.Builder
	completer  genai.Completer
	commands   *Registry
	logger     *logger.Logger
	metrics    *metrics.Metrics
	errs       *apperrors.Wrapper

	turnTimeout time.Duration
	handler     TurnHandler
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	Store      *conversation.Store
	Classifier *sensitivity.Classifier
	Detector   *langdetect.Detector
	Prompts    *prompt.Builder
	Completer  genai.Completer
	Logger     *logger.Logger
	Metrics    *metrics.Metrics

	// TurnTimeout bounds a whole turn including retries and fallback.
	// Defaults to config.WebhookProcessing.
	TurnTimeout time.Duration
}

// NewProcessor creates a new turn processor. Missing policy components
// fall back to their built-in defaults.
func NewProcessor(cfg ProcessorConfig) *Processor {
	p := &Processor{
		store:       cfg.Store,
		classifier:  cfg.Classifier,
		detector:    cfg.Detector,
		prompts:     cfg.Prompts,
		completer:   cfg.Completer,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		turnTimeout: cfg.TurnTimeout,
		errs:        apperrors.NewWrapper("bot", "turn"),
	}
	if p.logger == nil {
		p.logger = logger.New("info")
	}
	if p.classifier == nil {
		p.classifier = sensitivity.Default()
	}
	if p.detector == nil {
		p.detector = langdetect.New("hi", langdetect.WithLogger(p.logger), langdetect.WithMetrics(p.metrics))
	}
	if p.prompts == nil {
		p.prompts = prompt.Default(p.detector.Regional())
	}
	if p.store == nil {
		p.store = conversation.NewStore(conversation.Config{
			SystemPrompt: p.prompts.SystemPrompt(),
			MaxExchanges: config.DefaultHistoryMaxExchanges,
			Metrics:      p.metrics,
		})
	}
	if p.turnTimeout <= 0 {
		p.turnTimeout = config.WebhookProcessing
	}

	p.commands = p.defaultCommands()
	p.handler = Chain(p.handle,
		MetricsMiddleware(p.metrics),
		RecoveryMiddleware(p.logger),
		LoggingMiddleware(p.logger),
	)
	return p
}

func (p *Processor) defaultCommands() *Registry {
	r := NewRegistry()
	r.Register(Command{Name: "start", Description: "Introduction", Handle: staticReply(welcomeText)})
	r.Register(Command{Name: "help", Description: "Guidance on how to talk to me", Handle: staticReply(helpText)})
	r.Register(Command{Name: "scholarships", Description: "Scholarship schemes", Handle: staticReply(scholarshipsText)})
	r.Register(Command{Name: "reset", Description: "Start the conversation afresh", Handle: p.reset})
	return r
}

// Commands returns the fixed commands, for registering them with a platform.
func (p *Processor) Commands() []Command {
	return p.commands.Commands()
}

// HandleText processes one inbound message and returns the reply to send.
// It never panics and never returns an error; failures become ApologyText.
func (p *Processor) HandleText(ctx context.Context, userID, text string) Reply {
	return p.handler(ctx, userID, text)
}

func (p *Processor) handle(ctx context.Context, userID, text string) Reply {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{outcome: OutcomeIgnored}
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		p.logger.WarnContext(ctx, "Inbound message too long", "length", utf8.RuneCountInString(text))
		return Reply{Text: tooLongText, outcome: OutcomeRejected}
	}

	if _, isCommand := ParseCommand(text); isCommand {
		cmd, ok := p.commands.Lookup(text)
		if !ok {
			// Unknown commands are not conversation
			return Reply{outcome: OutcomeIgnored}
		}
		reply := cmd.Handle(ctx, userID)
		reply.outcome = OutcomeCommand
		return reply
	}

	answer, err := p.converse(ctx, userID, text)
	if err != nil {
		p.logger.WithError(err).ErrorContext(ctx, "Turn failed")
		sentry.CaptureExceptionWithContext(ctx, err, map[string]string{"module": "bot"})
		return Reply{Text: apperrors.UserMessage(err, ApologyText), outcome: OutcomeFailed}
	}
	return Reply{Text: answer, outcome: OutcomeCompleted}
}

// converse runs the policy pipeline and the completion call under the
// user's turn lock. History changes only when a reply was obtained.
func (p *Processor) converse(ctx context.Context, userID, text string) (string, error) {
	if p.completer == nil {
		return "", p.errs.Wrap(apperrors.ErrNoProvider, ApologyText)
	}

	unlock := p.store.Lock(userID)
	defer unlock()

	history := p.store.GetOrCreate(userID)

	sensitive := p.classifier.Classify(text)
	if sensitive {
		p.metrics.RecordSensitive()
	}
	regional := p.detector.IsRegional(ctx, text)
	content := p.prompts.Build(text, sensitive, regional)

	p.logger.DebugContext(ctx, "Prompt built",
		"sensitive", sensitive,
		"regional", regional,
		"history_turns", len(history))

	request := append(history, conversation.Turn{Role: conversation.RoleUser, Content: content})

	turnCtx, cancel := context.WithTimeout(ctx, p.turnTimeout)
	defer cancel()

	answer, err := p.completer.Complete(turnCtx, request)
	if err != nil {
		return "", p.errs.Wrap(err, ApologyText)
	}

	if err := p.store.Commit(userID, content, answer); err != nil {
		return "", p.errs.Wrap(err, ApologyText)
	}
	p.metrics.ObserveHistoryTurns(len(request) + 1)
	return answer, nil
}

func (p *Processor) reset(ctx context.Context, userID string) Reply {
	unlock := p.store.Lock(userID)
	defer unlock()

	p.store.Reset(userID)
	p.logger.InfoContext(ctx, "Conversation reset")
	return Reply{Text: resetText}
}
