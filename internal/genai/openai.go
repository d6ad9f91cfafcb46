package genai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/garyellow/codered-bot-go/internal/conversation"
	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
)

// OpenAICompleter implements Completer using the OpenAI Chat Completions API.
type OpenAICompleter struct {
	client openai.Client
	opts   Options
}

// NewOpenAICompleter creates an OpenAI completer. Retries are handled by
// FallbackCompleter, so the SDK's own retry loop is disabled.
func NewOpenAICompleter(opts Options) (*OpenAICompleter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai: API key is required")
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

	return &OpenAICompleter{
		client: openai.NewClient(clientOpts...),
		opts:   opts,
	}, nil
}

// Complete sends the history as chat messages and returns the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, history []conversation.Turn) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.opts.Model),
		Messages:    toOpenAIMessages(history),
		Temperature: openai.Float(c.opts.Temperature),
		MaxTokens:   openai.Int(int64(c.opts.MaxTokens)),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", c.wrapError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", newProviderError(ProviderOpenAI, c.opts.Model, 0, ErrMalformedResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", newProviderError(ProviderOpenAI, c.opts.Model, 0, apperrors.ErrEmptyReply)
	}
	return text, nil
}

func (c *OpenAICompleter) wrapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return timeoutError(ProviderOpenAI, c.opts.Model, ctx.Err())
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		pe := newProviderError(ProviderOpenAI, c.opts.Model, apiErr.StatusCode, err)
		if apiErr.Response != nil {
			pe.RetryAfter = ParseRetryAfter(apiErr.Response.Header)
		}
		return pe
	}
	return newProviderError(ProviderOpenAI, c.opts.Model, 0, err)
}

// Provider returns the provider type.
func (c *OpenAICompleter) Provider() Provider {
	return ProviderOpenAI
}

// Close is a no-op; the SDK holds no resources.
func (c *OpenAICompleter) Close() error {
	return nil
}

func toOpenAIMessages(history []conversation.Turn) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case conversation.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case conversation.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	return messages
}
