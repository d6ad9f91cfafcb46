package config

// Messaging platform constraints.
const (
	// TelegramMaxMessageLength is the Bot API limit for one text message.
	TelegramMaxMessageLength = 4096

	// LINEMaxTextMessageLength is the Messaging API limit for one text message.
	LINEMaxTextMessageLength = 5000

	// LINEMaxMessagesPerReply is the Messaging API limit for one reply call.
	LINEMaxMessagesPerReply = 5
)

// Conversation defaults.
const (
	// MaxInboundMessageLength rejects oversized user messages before they
	// reach the classifier or the provider.
	MaxInboundMessageLength = 4096

	// DefaultHistoryMaxExchanges is how many user/assistant pairs are kept
	// after the system turn.
	DefaultHistoryMaxExchanges = 20
)

// Provider names accepted in LLM_PROVIDERS.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderAnthropic  = "anthropic"
)

// DefaultProviderOrder is the fallback order used when LLM_PROVIDERS is unset.
var DefaultProviderOrder = []string{ProviderOpenAI, ProviderOpenRouter, ProviderGemini, ProviderAnthropic}
