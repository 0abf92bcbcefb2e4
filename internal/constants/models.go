package constants

// ModelConfig holds model configuration for a provider
type ModelConfig struct {
	LLMModel string
	BaseURL  string
}

// DefaultModels contains default model configurations for each provider
var DefaultModels = map[Provider]ModelConfig{
	ProviderOllama: {
		LLMModel: "llama3.1",
		BaseURL:  "http://localhost:11434",
	},
	ProviderOpenAI: {
		LLMModel: "gpt-5.2",
		BaseURL:  "https://api.openai.com/v1",
	},
	ProviderAnthropic: {
		LLMModel: "claude-opus-4-6-20260205",
	},
	ProviderGemini: {
		LLMModel: "gemini-2.5-flash",
	},
	ProviderFriendli: {
		LLMModel: "mixtral-8x7b-instruct-v0-1",
		BaseURL:  "https://api.friendli.ai/serverless/v1",
	},
}
