// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and validates them before anything starts.
package config

import (
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/garyellow/codered-bot-go/internal/errors"
)

// Config holds all application configuration
type Config struct {
	// Telegram
	TelegramToken string

	// LINE (optional)
	LineChannelToken  string
	LineChannelSecret string

	// Completion providers
	LLMProviders      []string // Fallback order, filtered to known names
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string
	GeminiAPIKey      string
	GeminiModel       string
	AnthropicAPIKey   string
	AnthropicModel    string
	LLMMaxTokens      int
	LLMTemperature    float64
	CompletionTimeout time.Duration

	// Conversation policy
	HistoryMaxExchanges int           // 0 = unbounded
	HistoryIdleTTL      time.Duration // 0 = never evict
	RegionalLanguage    string        // ISO 639-1
	KeywordsFile        string
	PromptsFile         string

	// Server
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Metrics Authentication
	MetricsUsername string
	MetricsPassword string // empty = no auth

	// Sentry
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack
	BetterStackToken    string
	BetterStackEndpoint string

	// Tracing
	OTLPEndpoint string
}

// Load reads configuration from environment variables.
// It attempts to load .env file first, then reads from env vars.
func Load() (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment without validating it.
func FromEnv() *Config {
	return &Config{
		TelegramToken: getEnv(EnvTelegramToken, ""),

		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),

		LLMProviders:      getListEnv(EnvLLMProviders, DefaultProviderOrder),
		OpenAIAPIKey:      getEnv(EnvOpenAIAPIKey, ""),
		OpenAIModel:       getEnv(EnvOpenAIModel, "gpt-4o-mini"),
		OpenRouterAPIKey:  getEnv(EnvOpenRouterAPIKey, ""),
		OpenRouterModel:   getEnv(EnvOpenRouterModel, "openai/gpt-4o-mini"),
		OpenRouterBaseURL: strings.TrimRight(getEnv(EnvOpenRouterBaseURL, "https://openrouter.ai/api/v1"), "/"),
		GeminiAPIKey:      getEnv(EnvGeminiAPIKey, ""),
		GeminiModel:       getEnv(EnvGeminiModel, "gemini-2.5-flash"),
		AnthropicAPIKey:   getEnv(EnvAnthropicAPIKey, ""),
		AnthropicModel:    getEnv(EnvAnthropicModel, "claude-3-5-haiku-latest"),
		LLMMaxTokens:      getIntEnv(EnvLLMMaxTokens, 400),
		LLMTemperature:    getFloatEnv(EnvLLMTemperature, 0.9),
		CompletionTimeout: getDurationEnv(EnvCompletionTimeout, CompletionRequest),

		HistoryMaxExchanges: getIntEnv(EnvHistoryMaxExchanges, DefaultHistoryMaxExchanges),
		HistoryIdleTTL:      getDurationEnv(EnvHistoryIdleTTL, 0),
		RegionalLanguage:    strings.ToLower(getEnv(EnvRegionalLanguage, "hi")),
		KeywordsFile:        getEnv(EnvKeywordsFile, ""),
		PromptsFile:         getEnv(EnvPromptsFile, ""),

		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		OTLPEndpoint: getEnv(EnvOTLPEndpoint, ""),
	}
}

// Validate checks that required values are set and ranges are sane.
// All problems are reported together in a *errors.ConfigError.
func (c *Config) Validate() error {
	cfgErr := &apperrors.ConfigError{}

	if c.TelegramToken == "" {
		cfgErr.Add("%s is required", EnvTelegramToken)
	}
	for _, name := range c.LLMProviders {
		if !slices.Contains(DefaultProviderOrder, name) {
			cfgErr.Add("%s contains unknown provider %q", EnvLLMProviders, name)
		}
	}
	if len(c.ConfiguredProviders()) == 0 {
		cfgErr.Add("at least one of %s, %s, %s, %s is required for a provider listed in %s",
			EnvOpenAIAPIKey, EnvOpenRouterAPIKey, EnvGeminiAPIKey, EnvAnthropicAPIKey, EnvLLMProviders)
	}
	if (c.LineChannelToken == "") != (c.LineChannelSecret == "") {
		cfgErr.Add("%s and %s must be set together", EnvLineChannelAccessToken, EnvLineChannelSecret)
	}
	if c.LLMMaxTokens <= 0 {
		cfgErr.Add("%s must be positive, got %d", EnvLLMMaxTokens, c.LLMMaxTokens)
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		cfgErr.Add("%s must be within [0, 2], got %v", EnvLLMTemperature, c.LLMTemperature)
	}
	if c.CompletionTimeout <= 0 {
		cfgErr.Add("%s must be positive, got %v", EnvCompletionTimeout, c.CompletionTimeout)
	}
	if c.HistoryMaxExchanges < 0 {
		cfgErr.Add("%s cannot be negative, got %d", EnvHistoryMaxExchanges, c.HistoryMaxExchanges)
	}
	if c.HistoryIdleTTL < 0 {
		cfgErr.Add("%s cannot be negative, got %v", EnvHistoryIdleTTL, c.HistoryIdleTTL)
	}
	if len(c.RegionalLanguage) != 2 {
		cfgErr.Add("%s must be an ISO 639-1 code, got %q", EnvRegionalLanguage, c.RegionalLanguage)
	}
	if c.Port == "" {
		cfgErr.Add("%s is required", EnvPort)
	}
	if c.ShutdownTimeout <= 0 {
		cfgErr.Add("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout)
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		cfgErr.Add("%s must be within [0, 1], got %v", EnvSentrySampleRate, c.SentrySampleRate)
	}

	return cfgErr.ErrOrNil()
}

// ConfiguredProviders returns the providers from LLMProviders, in order,
// that have an API key.
func (c *Config) ConfiguredProviders() []string {
	out := make([]string, 0, len(c.LLMProviders))
	for _, name := range c.LLMProviders {
		if c.APIKey(name) != "" {
			out = append(out, name)
		}
	}
	return out
}

// APIKey returns the API key for a provider name.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return ""
	}
}

// Model returns the configured model for a provider name.
func (c *Config) Model(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAIModel
	case ProviderOpenRouter:
		return c.OpenRouterModel
	case ProviderGemini:
		return c.GeminiModel
	case ProviderAnthropic:
		return c.AnthropicModel
	default:
		return ""
	}
}

// LineEnabled reports whether the LINE webhook front end is configured.
func (c *Config) LineEnabled() bool {
	return c.LineChannelToken != "" && c.LineChannelSecret != ""
}

// MetricsAuthEnabled reports whether /metrics requires Basic Auth.
func (c *Config) MetricsAuthEnabled() bool {
	return c.MetricsPassword != ""
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv retrieves a comma-separated list, lower-cased and de-duplicated.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return slices.Clone(defaultValue)
	}
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" && !slices.Contains(out, item) {
			out = append(out, item)
		}
	}
	return out
}
