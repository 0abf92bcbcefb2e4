package cli

import (
	"fmt"

	"github.com/ishaan812/contribsum/internal/config"
	"github.com/ishaan812/contribsum/internal/constants"
	"github.com/ishaan812/contribsum/internal/db"
	"github.com/ishaan812/contribsum/internal/llm"
	"github.com/ishaan812/contribsum/internal/logger"
	"github.com/ishaan812/contribsum/internal/pipeline"
)

// newLogger returns a dev logger under --verbose, otherwise a no-op
// one: the commands render their own output and the structured log is
// a debugging aid.
func newLogger() *logger.Logger {
	if !verbose {
		return logger.Nop()
	}
	log, err := logger.New("dev")
	if err != nil {
		return logger.Nop()
	}
	return log
}

func buildLLMClient(cfg *config.Config) (llm.Client, error) {
	provider := constants.Provider(cfg.DefaultProvider)
	llmCfg := llm.Config{
		Provider: provider,
		Model:    cfg.DefaultModel,
		APIKey:   cfg.GetAPIKey(cfg.DefaultProvider),
	}
	if provider == constants.ProviderOllama {
		llmCfg.BaseURL = cfg.OllamaBaseURL
		if llmCfg.Model == "" {
			llmCfg.Model = cfg.OllamaModel
		}
	}

	client, err := llm.NewClient(llmCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w\n\nRun 'contribsum configure' to set up a provider", err)
	}
	return client, nil
}

func buildOrchestrator(cfg *config.Config, log *logger.Logger) (*pipeline.Orchestrator, error) {
	store, err := db.GetStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	client, err := buildLLMClient(cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.NewOrchestrator(store, pipeline.NewLLMSummarizer(client), pipeline.Options{
		BatchSize:   cfg.GetBatchSize(),
		Concurrency: cfg.GetConcurrency(),
		MaxRetries:  cfg.GetMaxRetries(),
		Logger:      log,
	}), nil
}
