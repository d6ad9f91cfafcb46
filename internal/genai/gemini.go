package genai

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/garyellow/codered-bot-go/internal/conversation"
	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
)

// GeminiCompleter implements Completer using the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	opts   Options
}

// NewGeminiCompleter creates a Gemini completer.
func NewGeminiCompleter(ctx context.Context, opts Options) (*GeminiCompleter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	opts = opts.withDefaults()

	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiCompleter{client: client, opts: opts}, nil
}

// Complete sends the dialogue with the system turn as SystemInstruction.
func (c *GeminiCompleter) Complete(ctx context.Context, history []conversation.Turn) (string, error) {
	system, contents := toGeminiContents(history)

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.opts.Temperature)),
		MaxOutputTokens: int32(c.opts.MaxTokens), //nolint:gosec // bounded by config validation
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.opts.Model, contents, config)
	if err != nil {
		return "", c.wrapError(ctx, err)
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", newProviderError(ProviderGemini, c.opts.Model, 0, ErrMalformedResponse)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", newProviderError(ProviderGemini, c.opts.Model, 0, apperrors.ErrEmptyReply)
	}
	return text, nil
}

func (c *GeminiCompleter) wrapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return timeoutError(ProviderGemini, c.opts.Model, ctx.Err())
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newProviderError(ProviderGemini, c.opts.Model, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return newProviderError(ProviderGemini, c.opts.Model, apiErrPtr.Code, err)
	}
	return newProviderError(ProviderGemini, c.opts.Model, 0, err)
}

// Provider returns the provider type.
func (c *GeminiCompleter) Provider() Provider {
	return ProviderGemini
}

// Close is a no-op; the genai client holds no closable resources.
func (c *GeminiCompleter) Close() error {
	return nil
}

func toGeminiContents(history []conversation.Turn) (string, []*genai.Content) {
	system, dialogue := splitSystem(history)
	contents := make([]*genai.Content, 0, len(dialogue))
	for _, turn := range dialogue {
		role := genai.Role(genai.RoleUser)
		if turn.Role == conversation.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	return system, contents
}
