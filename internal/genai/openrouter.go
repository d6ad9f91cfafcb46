package genai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/garyellow/codered-bot-go/internal/conversation"
	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
)

const (
	// DefaultOpenRouterBaseURL is OpenRouter's OpenAI-compatible API root.
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	openRouterTitle      = "CodeRed Student Support Bot"
	maxResponseBodyBytes = 1 << 20
)

// OpenRouterCompleter implements Completer with raw HTTPS calls to the
// OpenRouter chat completions endpoint. The reply is read from
// choices[0].message.content.
type OpenRouterCompleter struct {
	opts     Options
	endpoint string
}

// NewOpenRouterCompleter creates an OpenRouter completer.
func NewOpenRouterCompleter(opts Options) (*OpenRouterCompleter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openrouter: API key is required")
	}
	opts = opts.withDefaults()
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenRouterBaseURL
	}

	return &OpenRouterCompleter{
		opts:     opts,
		endpoint: strings.TrimRight(opts.BaseURL, "/") + "/chat/completions",
	}, nil
}

// Complete posts the history and extracts the first choice's content.
func (c *OpenRouterCompleter) Complete(ctx context.Context, history []conversation.Turn) (string, error) {
	body, err := c.buildRequestBody(history)
	if err != nil {
		return "", newProviderError(ProviderOpenRouter, c.opts.Model, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", newProviderError(ProviderOpenRouter, c.opts.Model, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Title", openRouterTitle)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", timeoutError(ProviderOpenRouter, c.opts.Model, ctx.Err())
		}
		return "", newProviderError(ProviderOpenRouter, c.opts.Model, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return "", newProviderError(ProviderOpenRouter, c.opts.Model, 0, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		pe := newProviderError(ProviderOpenRouter, c.opts.Model, resp.StatusCode, errors.New(msg))
		pe.RetryAfter = ParseRetryAfter(resp.Header)
		return "", pe
	}

	if !gjson.ValidBytes(data) {
		return "", newProviderError(ProviderOpenRouter, c.opts.Model, resp.StatusCode,
			fmt.Errorf("%w: invalid JSON", ErrMalformedResponse))
	}
	content := gjson.GetBytes(data, "choices.0.message.content")
	if !content.Exists() {
		return "", newProviderError(ProviderOpenRouter, c.opts.Model, resp.StatusCode,
			fmt.Errorf("%w: missing choices[0].message.content", ErrMalformedResponse))
	}
	if content.Type != gjson.String {
		return "", newProviderError(ProviderOpenRouter, c.opts.Model, resp.StatusCode,
			fmt.Errorf("%w: choices[0].message.content is %s, not a string", ErrMalformedResponse, content.Type))
	}

	text := strings.TrimSpace(content.String())
	if text == "" {
		return "", newProviderError(ProviderOpenRouter, c.opts.Model, resp.StatusCode, apperrors.ErrEmptyReply)
	}
	return text, nil
}

func (c *OpenRouterCompleter) buildRequestBody(history []conversation.Turn) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	if body, err = sjson.SetBytes(body, "model", c.opts.Model); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "max_tokens", c.opts.MaxTokens); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "temperature", c.opts.Temperature); err != nil {
		return nil, err
	}
	if body, err = sjson.SetRawBytes(body, "messages", []byte(`[]`)); err != nil {
		return nil, err
	}
	for _, turn := range history {
		msg := map[string]string{"role": string(turn.Role), "content": turn.Content}
		if body, err = sjson.SetBytes(body, "messages.-1", msg); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// Provider returns the provider type.
func (c *OpenRouterCompleter) Provider() Provider {
	return ProviderOpenRouter
}

// Close releases idle connections.
func (c *OpenRouterCompleter) Close() error {
	c.opts.HTTPClient.CloseIdleConnections()
	return nil
}
