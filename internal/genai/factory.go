package genai

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyellow/codered-bot-go/internal/config"
	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
	"github.com/garyellow/codered-bot-go/internal/logger"
	"github.com/garyellow/codered-bot-go/internal/metrics"
)

// CreateCompleter builds the provider chain from configuration.
//
// Provider selection logic:
//  1. Providers are taken in LLM_PROVIDERS order.
//  2. Providers without an API key are skipped.
//  3. A provider whose client fails to initialise is logged and skipped.
//  4. ErrNoProvider is returned when nothing usable remains.
func CreateCompleter(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*FallbackCompleter, error) {
	if log == nil {
		log = logger.New("info")
	}

	var completers []Completer
	for _, name := range cfg.ConfiguredProviders() {
		c, err := newCompleter(ctx, Provider(name), Options{
			APIKey:      cfg.APIKey(name),
			Model:       cfg.Model(name),
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			BaseURL:     baseURL(cfg, name),
		})
		if err != nil {
			log.WarnContext(ctx, "Failed to create completer",
				"provider", name,
				"error", err)
			continue
		}
		completers = append(completers, c)
	}

	if len(completers) == 0 {
		return nil, apperrors.ErrNoProvider
	}

	chain := NewFallbackCompleter(completers,
		WithRetryConfig(RetryConfig{
			MaxAttempts:  DefaultMaxRetryAttempts,
			InitialDelay: config.CompletionRetryInitial,
			MaxDelay:     config.CompletionRetryMax,
		}),
		WithTimeout(cfg.CompletionTimeout),
		WithLogger(log),
		WithMetrics(m),
	)

	log.InfoContext(ctx, "Completion chain configured",
		"primary", chain.Provider(),
		"providers", chain.Providers())
	return chain, nil
}

func newCompleter(ctx context.Context, p Provider, opts Options) (Completer, error) {
	switch p {
	case ProviderOpenAI:
		return NewOpenAICompleter(opts)
	case ProviderOpenRouter:
		return NewOpenRouterCompleter(opts)
	case ProviderGemini:
		return NewGeminiCompleter(ctx, opts)
	case ProviderAnthropic:
		return NewAnthropicCompleter(opts)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", errors.ErrUnsupported, p)
	}
}

func baseURL(cfg *config.Config, name string) string {
	if name == config.ProviderOpenRouter {
		return cfg.OpenRouterBaseURL
	}
	return ""
}
