package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ishaan812/contribsum/internal/config"
	"github.com/ishaan812/contribsum/internal/constants"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure provider, model, and GitHub access",
	Long: `Interactive configuration wizard for ContribSum.

Lets you pick the LLM provider used for summarization, set its API key
and model, and store a GitHub token for ingestion. Settings are saved
to ~/.contribsum/config.json; API keys may alternatively be provided
via environment variables (e.g. ANTHROPIC_API_KEY, GITHUB_TOKEN).

Examples:
  contribsum configure`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	titleColor := color.New(color.FgHiCyan, color.Bold)
	dimColor := color.New(color.FgHiBlack)
	successColor := color.New(color.FgHiGreen)

	fmt.Println()
	titleColor.Println("ContribSum Configuration")
	dimColor.Printf("  current provider: %s\n\n", cfg.DefaultProvider)

	items := make([]string, len(constants.AllProviders))
	position := 0
	for i, p := range constants.AllProviders {
		items[i] = fmt.Sprintf("%s - %s", p.Name, p.Description)
		if strings.EqualFold(p.Name, cfg.DefaultProvider) {
			position = i
		}
	}

	providerSelect := promptui.Select{
		Label:     "LLM provider",
		Items:     items,
		CursorPos: position,
	}
	idx, _, err := providerSelect.Run()
	if err != nil {
		return fmt.Errorf("configuration canceled: %w", err)
	}
	chosen := constants.AllProviders[idx]
	providerKey := strings.ToLower(chosen.Name)
	cfg.DefaultProvider = providerKey

	if chosen.NeedsAPIKey && cfg.GetAPIKey(providerKey) == "" {
		keyPrompt := promptui.Prompt{Label: fmt.Sprintf("%s API key", chosen.Name), Mask: '*'}
		key, err := keyPrompt.Run()
		if err != nil {
			return fmt.Errorf("configuration canceled: %w", err)
		}
		setAPIKey(cfg, providerKey, key)
	}

	defaultModel := cfg.DefaultModel
	if defaults, ok := constants.DefaultModels[constants.Provider(providerKey)]; ok && defaultModel == "" {
		defaultModel = defaults.LLMModel
	}
	modelPrompt := promptui.Prompt{Label: "Model", Default: defaultModel}
	model, err := modelPrompt.Run()
	if err != nil {
		return fmt.Errorf("configuration canceled: %w", err)
	}
	cfg.DefaultModel = model

	if providerKey == string(constants.ProviderOllama) {
		urlPrompt := promptui.Prompt{Label: "Ollama base URL", Default: cfg.OllamaBaseURL}
		baseURL, err := urlPrompt.Run()
		if err != nil {
			return fmt.Errorf("configuration canceled: %w", err)
		}
		cfg.OllamaBaseURL = baseURL
	}

	if cfg.GetGitHubToken() == "" {
		tokenPrompt := promptui.Prompt{Label: "GitHub token (optional, Enter to skip)", Mask: '*'}
		token, err := tokenPrompt.Run()
		if err == nil && token != "" {
			cfg.GitHubToken = token
		}
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	successColor.Printf("✓ Configuration saved to %s\n", config.GetConfigPath())
	return nil
}

func setAPIKey(cfg *config.Config, provider, key string) {
	switch provider {
	case "anthropic":
		cfg.AnthropicAPIKey = key
	case "openai":
		cfg.OpenAIAPIKey = key
	case "gemini":
		cfg.GeminiAPIKey = key
	case "friendli":
		cfg.FriendliAPIKey = key
	}
}
