package genai

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/garyellow/codered-bot-go/internal/conversation"
	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
)

// AnthropicCompleter implements Completer using the Anthropic Messages API.
type AnthropicCompleter struct {
	client anthropic.Client
	opts   Options
}

// NewAnthropicCompleter creates an Anthropic completer.
func NewAnthropicCompleter(opts Options) (*AnthropicCompleter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	opts = opts.withDefaults()

	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(opts.HTTPClient),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &AnthropicCompleter{
		client: anthropic.NewClient(clientOpts...),
		opts:   opts,
	}, nil
}

// Complete sends the dialogue with the system turn in the system field and
// concatenates the text blocks of the reply.
func (c *AnthropicCompleter) Complete(ctx context.Context, history []conversation.Turn) (string, error) {
	system, dialogue := splitSystem(history)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.opts.Model),
		MaxTokens:   int64(c.opts.MaxTokens),
		Messages:    toAnthropicMessages(dialogue),
		Temperature: anthropic.Float(c.opts.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", c.wrapError(ctx, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", newProviderError(ProviderAnthropic, c.opts.Model, 0, apperrors.ErrEmptyReply)
	}
	return text, nil
}

func (c *AnthropicCompleter) wrapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return timeoutError(ProviderAnthropic, c.opts.Model, ctx.Err())
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		pe := newProviderError(ProviderAnthropic, c.opts.Model, apiErr.StatusCode, err)
		if apiErr.Response != nil {
			pe.RetryAfter = ParseRetryAfter(apiErr.Response.Header)
		}
		return pe
	}
	return newProviderError(ProviderAnthropic, c.opts.Model, 0, err)
}

// Provider returns the provider type.
func (c *AnthropicCompleter) Provider() Provider {
	return ProviderAnthropic
}

// Close is a no-op; the SDK holds no resources.
func (c *AnthropicCompleter) Close() error {
	return nil
}

func toAnthropicMessages(dialogue []conversation.Turn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(dialogue))
	for _, turn := range dialogue {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == conversation.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	return messages
}
