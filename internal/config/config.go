package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Defaults for pipeline tuning knobs. Overridable via config file or flags.
const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 4
	DefaultMaxRetries  = 3
)

type Config struct {
	DefaultProvider string `json:"default_provider"`
	DefaultModel    string `json:"default_model"`

	// API Keys
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty"`
	OpenAIAPIKey    string `json:"openai_api_key,omitempty"`
	GeminiAPIKey    string `json:"gemini_api_key,omitempty"`
	FriendliAPIKey  string `json:"friendli_api_key,omitempty"`

	// Ollama config
	OllamaBaseURL string `json:"ollama_base_url,omitempty"`
	OllamaModel   string `json:"ollama_model,omitempty"`

	// GitHub ingestion
	GitHubToken  string   `json:"github_token,omitempty"`
	GitHubAPIURL string   `json:"github_api_url,omitempty"`
	Repos        []string `json:"repos,omitempty"` // owner/name pairs tracked for ingestion

	// Pipeline tuning
	BatchSize   int `json:"batch_size,omitempty"`
	Concurrency int `json:"concurrency,omitempty"`
	MaxRetries  int `json:"max_retries,omitempty"`
}

var configPath string

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		configPath = ".contribsum/config.json"
		return
	}
	configPath = filepath.Join(homeDir, ".contribsum", "config.json")
}

func GetConfigPath() string {
	return configPath
}

func Load() (*Config, error) {
	cfg := &Config{
		DefaultProvider: "ollama",
		OllamaBaseURL:   "http://localhost:11434",
		OllamaModel:     "llama3.1",
		GitHubAPIURL:    "https://api.github.com",
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Save() error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) GetAPIKey(provider string) string {
	switch provider {
	case "anthropic":
		if c.AnthropicAPIKey != "" {
			return c.AnthropicAPIKey
		}
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		if c.OpenAIAPIKey != "" {
			return c.OpenAIAPIKey
		}
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		if c.GeminiAPIKey != "" {
			return c.GeminiAPIKey
		}
		return os.Getenv("GEMINI_API_KEY")
	case "friendli":
		if c.FriendliAPIKey != "" {
			return c.FriendliAPIKey
		}
		return os.Getenv("FRIENDLI_API_KEY")
	default:
		return ""
	}
}

// GetGitHubToken returns the configured GitHub token, falling back to the environment
func (c *Config) GetGitHubToken() string {
	if c.GitHubToken != "" {
		return c.GitHubToken
	}
	return os.Getenv("GITHUB_TOKEN")
}

// GetBatchSize returns the configured batch size or the default
func (c *Config) GetBatchSize() int {
	if c.BatchSize > 0 {
		return c.BatchSize
	}
	return DefaultBatchSize
}

// GetConcurrency returns the configured concurrency limit or the default
func (c *Config) GetConcurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return DefaultConcurrency
}

// GetMaxRetries returns the configured per-record retry limit or the default
func (c *Config) GetMaxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return DefaultMaxRetries
}

// GetContribsumDir returns the base contribsum directory path
func GetContribsumDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".contribsum"
	}
	return filepath.Join(homeDir, ".contribsum")
}

// GetDBPath returns the default database path
func GetDBPath() string {
	return filepath.Join(GetContribsumDir(), "contribsum.db")
}

// AddRepo adds a repository (owner/name) to the tracked list
func (c *Config) AddRepo(repo string) {
	for _, r := range c.Repos {
		if r == repo {
			return
		}
	}
	c.Repos = append(c.Repos, repo)
}
