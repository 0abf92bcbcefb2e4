package constants

import "strings"

// Provider represents an LLM provider type
type Provider string

// LLM Providers
const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
	ProviderFriendli  Provider = "friendli"
)

// ProviderInfo contains display information about a provider
type ProviderInfo struct {
	Key         string
	Name        string
	Description string
	NeedsAPIKey bool
}

// AllProviders returns all available LLM providers in order
var AllProviders = []ProviderInfo{
	{
		Key:         "1",
		Name:        "Ollama",
		Description: "Free, local, private (Llama 3.2, DeepSeek, Qwen3)",
		NeedsAPIKey: false,
	},
	{
		Key:         "2",
		Name:        "Anthropic",
		Description: "Claude Opus 4.6, Sonnet 4.5, Haiku 4.5",
		NeedsAPIKey: true,
	},
	{
		Key:         "3",
		Name:        "OpenAI",
		Description: "GPT-5.2, GPT-4o",
		NeedsAPIKey: true,
	},
	{
		Key:         "4",
		Name:        "Gemini",
		Description: "Google Gemini (Flash, Pro, 1M context)",
		NeedsAPIKey: true,
	},
	{
		Key:         "5",
		Name:        "Friendli",
		Description: "FriendliAI serverless, OpenAI-compatible (Mixtral, Llama)",
		NeedsAPIKey: true,
	},
}

// GetProviderInfo returns information about a provider
func GetProviderInfo(provider Provider) *ProviderInfo {
	providerName := string(provider)
	for _, p := range AllProviders {
		if strings.EqualFold(p.Name, providerName) {
			return &p
		}
	}
	return nil
}

// ProviderDescription returns a human-readable description of a provider
func ProviderDescription(provider Provider) string {
	switch provider {
	case ProviderOllama:
		return "Ollama (local, free)"
	case ProviderOpenAI:
		return "OpenAI (GPT-5.2, GPT-4o)"
	case ProviderAnthropic:
		return "Anthropic (Claude Opus/Sonnet)"
	case ProviderGemini:
		return "Google Gemini (Flash, Pro)"
	case ProviderFriendli:
		return "FriendliAI (serverless, OpenAI-compatible)"
	default:
		return string(provider)
	}
}
