package llm

import (
	"context"
	"fmt"

	"github.com/ishaan812/contribsum/internal/constants"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for LLM operations.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ChatComplete(ctx context.Context, messages []Message) (string, error)
}

// Provider represents an LLM provider type.
type Provider = constants.Provider

const (
	ProviderOllama    = constants.ProviderOllama
	ProviderOpenAI    = constants.ProviderOpenAI
	ProviderAnthropic = constants.ProviderAnthropic
	ProviderGemini    = constants.ProviderGemini
	ProviderFriendli  = constants.ProviderFriendli
)

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider Provider
	Model    string
	BaseURL  string
	APIKey   string
}

// NewClient creates an LLM client from config.
func NewClient(cfg Config) (Client, error) {
	if defaults, ok := constants.DefaultModels[cfg.Provider]; ok {
		if cfg.Model == "" {
			cfg.Model = defaults.LLMModel
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaults.BaseURL
		}
	}

	switch cfg.Provider {
	case ProviderOllama:
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434"
		}
		return NewOllamaClient(cfg.BaseURL, cfg.Model), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Anthropic API key is required")
		}
		return NewAnthropicClient(cfg.APIKey, cfg.Model), nil
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Gemini API key is required")
		}
		return NewGeminiClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case ProviderFriendli:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Friendli API key is required")
		}
		return NewFriendliClient(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// AvailableProviders returns supported LLM providers.
func AvailableProviders() []Provider {
	return []Provider{
		ProviderOllama,
		ProviderOpenAI,
		ProviderAnthropic,
		ProviderGemini,
		ProviderFriendli,
	}
}

// ProviderDescription returns a description for a provider.
func ProviderDescription(p Provider) string {
	return constants.ProviderDescription(p)
}
