package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core (Required)
	EnvTelegramToken = "TELEGRAM_TOKEN"

	// LINE front end (optional, both or neither)
	EnvLineChannelAccessToken = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "LINE_CHANNEL_SECRET"

	// Completion providers
	EnvLLMProviders      = "LLM_PROVIDERS"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvOpenAIModel       = "OPENAI_MODEL"
	EnvOpenRouterAPIKey  = "OPENROUTER_API_KEY"
	EnvOpenRouterModel   = "OPENROUTER_MODEL"
	EnvOpenRouterBaseURL = "OPENROUTER_BASE_URL"
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
	EnvGeminiModel       = "GEMINI_MODEL"
	EnvAnthropicAPIKey   = "ANTHROPIC_API_KEY"
	EnvAnthropicModel    = "ANTHROPIC_MODEL"
	EnvLLMMaxTokens      = "LLM_MAX_TOKENS"
	EnvLLMTemperature    = "LLM_TEMPERATURE"
	EnvCompletionTimeout = "COMPLETION_TIMEOUT"

	// Conversation policy
	EnvHistoryMaxExchanges = "HISTORY_MAX_EXCHANGES"
	EnvHistoryIdleTTL      = "HISTORY_IDLE_TTL"
	EnvRegionalLanguage    = "REGIONAL_LANGUAGE"
	EnvKeywordsFile        = "KEYWORDS_FILE"
	EnvPromptsFile         = "PROMPTS_FILE"

	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Metrics Auth
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"

	// Sentry
	EnvSentryDSN         = "SENTRY_DSN"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Tracing
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
)
