package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
)

func validConfig() *Config {
	return &Config{
		TelegramToken:       "123:abc",
		LLMProviders:        []string{ProviderOpenAI, ProviderOpenRouter},
		OpenRouterAPIKey:    "or-key",
		LLMMaxTokens:        400,
		LLMTemperature:      0.9,
		CompletionTimeout:   30 * time.Second,
		HistoryMaxExchanges: 20,
		RegionalLanguage:    "hi",
		Port:                "10000",
		ShutdownTimeout:     30 * time.Second,
		SentrySampleRate:    1.0,
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvTelegramToken, "123:abc")
	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	t.Setenv(EnvLLMProviders, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, 400, cfg.LLMMaxTokens)
	assert.InDelta(t, 0.9, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, CompletionRequest, cfg.CompletionTimeout)
	assert.Equal(t, DefaultHistoryMaxExchanges, cfg.HistoryMaxExchanges)
	assert.Equal(t, time.Duration(0), cfg.HistoryIdleTTL)
	assert.Equal(t, "hi", cfg.RegionalLanguage)
	assert.Equal(t, DefaultProviderOrder, cfg.LLMProviders)
	assert.Equal(t, []string{ProviderOpenAI}, cfg.ConfiguredProviders())
	assert.False(t, cfg.LineEnabled())
	assert.False(t, cfg.MetricsAuthEnabled())
}

func TestLoad_MissingTelegramToken(t *testing.T) {
	t.Setenv(EnvTelegramToken, "")
	t.Setenv(EnvOpenAIAPIKey, "sk-test")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigError(err))
	assert.Contains(t, err.Error(), EnvTelegramToken)
}

func TestLoad_MissingProviderKey(t *testing.T) {
	t.Setenv(EnvTelegramToken, "123:abc")
	for _, key := range []string{EnvOpenAIAPIKey, EnvOpenRouterAPIKey, EnvGeminiAPIKey, EnvAnthropicAPIKey} {
		t.Setenv(key, "")
	}

	_, err := Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigError(err))
	assert.Contains(t, err.Error(), EnvOpenAIAPIKey)
}

func TestFromEnv_ProviderList(t *testing.T) {
	t.Setenv(EnvLLMProviders, " Gemini, openai ,gemini,, ")

	cfg := FromEnv()
	assert.Equal(t, []string{ProviderGemini, ProviderOpenAI}, cfg.LLMProviders)
}

func TestFromEnv_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv(EnvLLMMaxTokens, "lots")
	t.Setenv(EnvLLMTemperature, "warm")
	t.Setenv(EnvCompletionTimeout, "soon")

	cfg := FromEnv()
	assert.Equal(t, 400, cfg.LLMMaxTokens)
	assert.InDelta(t, 0.9, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, CompletionRequest, cfg.CompletionTimeout)
}

func TestFromEnv_TrimsBaseURL(t *testing.T) {
	t.Setenv(EnvOpenRouterBaseURL, "https://example.test/api/v1/")

	assert.Equal(t, "https://example.test/api/v1", FromEnv().OpenRouterBaseURL)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:        "unknown provider",
			mutate:      func(c *Config) { c.LLMProviders = append(c.LLMProviders, "groq") },
			errContains: `unknown provider "groq"`,
		},
		{
			name:        "key for unlisted provider only",
			mutate:      func(c *Config) { c.OpenRouterAPIKey = ""; c.GeminiAPIKey = "g" },
			errContains: EnvGeminiAPIKey,
		},
		{
			name:        "half configured LINE",
			mutate:      func(c *Config) { c.LineChannelSecret = "secret" },
			errContains: EnvLineChannelAccessToken,
		},
		{
			name:        "non-positive max tokens",
			mutate:      func(c *Config) { c.LLMMaxTokens = 0 },
			errContains: EnvLLMMaxTokens,
		},
		{
			name:        "temperature out of range",
			mutate:      func(c *Config) { c.LLMTemperature = 2.5 },
			errContains: EnvLLMTemperature,
		},
		{
			name:        "negative history cap",
			mutate:      func(c *Config) { c.HistoryMaxExchanges = -1 },
			errContains: EnvHistoryMaxExchanges,
		},
		{
			name:        "bad regional language",
			mutate:      func(c *Config) { c.RegionalLanguage = "hindi" },
			errContains: EnvRegionalLanguage,
		},
		{
			name:        "sentry sample rate",
			mutate:      func(c *Config) { c.SentrySampleRate = 1.5 },
			errContains: EnvSentrySampleRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errContains == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.TelegramToken = ""
	cfg.Port = ""

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.Contains(msg, EnvTelegramToken) && strings.Contains(msg, EnvPort), msg)
}

func TestAccessors(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.OpenAIModel = "gpt-4o-mini"
	cfg.AnthropicAPIKey = "ak"
	cfg.AnthropicModel = "claude"
	cfg.MetricsPassword = "pw"
	cfg.LineChannelToken = "tok"
	cfg.LineChannelSecret = "sec"

	assert.Equal(t, "gpt-4o-mini", cfg.Model(ProviderOpenAI))
	assert.Equal(t, "claude", cfg.Model(ProviderAnthropic))
	assert.Equal(t, "ak", cfg.APIKey(ProviderAnthropic))
	assert.Empty(t, cfg.APIKey("groq"))
	assert.Empty(t, cfg.Model("groq"))
	assert.True(t, cfg.MetricsAuthEnabled())
	assert.True(t, cfg.LineEnabled())
}
