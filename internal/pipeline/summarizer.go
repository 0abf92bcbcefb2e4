package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ishaan812/contribsum/internal/llm"
	"github.com/ishaan812/contribsum/internal/prompts"
)

// Summarizer is the generation capability the pipeline depends on.
// Technology detection and skills extraction are best-effort
// enrichments; callers tolerate their failure.
type Summarizer interface {
	Summarize(ctx context.Context, input string, phase Phase) (string, error)
	DetectTechnologies(ctx context.Context, filesChanged []string, commitMessage, diff string) ([]string, error)
	ExtractSkills(ctx context.Context, workSummary string) ([]string, error)
}

type llmSummarizer struct {
	client llm.Client
}

// NewLLMSummarizer wraps an LLM client as a pipeline Summarizer.
func NewLLMSummarizer(client llm.Client) Summarizer {
	return &llmSummarizer{client: client}
}

func (s *llmSummarizer) Summarize(ctx context.Context, input string, phase Phase) (string, error) {
	system, err := systemPromptFor(phase)
	if err != nil {
		return "", err
	}
	messages := []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: input},
	}
	out, err := s.client.ChatComplete(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (s *llmSummarizer) DetectTechnologies(ctx context.Context, filesChanged []string, commitMessage, diff string) ([]string, error) {
	messages := []llm.Message{
		{Role: "system", Content: prompts.TechnologyDetectionPrompt},
		{Role: "user", Content: prompts.TechnologyDetectionUserMessage(filesChanged, commitMessage, diff)},
	}
	out, err := s.client.ChatComplete(ctx, messages)
	if err != nil {
		return nil, err
	}
	return parseStringList(out), nil
}

func (s *llmSummarizer) ExtractSkills(ctx context.Context, workSummary string) ([]string, error) {
	messages := []llm.Message{
		{Role: "system", Content: prompts.SkillsExtractionPrompt},
		{Role: "user", Content: prompts.SkillsExtractionUserMessage(workSummary)},
	}
	out, err := s.client.ChatComplete(ctx, messages)
	if err != nil {
		return nil, err
	}
	return parseSkillCategories(out), nil
}

func systemPromptFor(phase Phase) (string, error) {
	switch phase {
	case PhaseIssues:
		return prompts.IssueSystemPrompt, nil
	case PhaseCommits:
		return prompts.CommitSystemPrompt, nil
	case PhaseRepositoryWork:
		return prompts.RepositoryWorkSystemPrompt, nil
	case PhaseContributors:
		return prompts.ContributorSystemPrompt, nil
	default:
		return "", fmt.Errorf("no prompt for phase %d", int(phase))
	}
}

// parseStringList reads a JSON array of strings, falling back to
// comma-splitting when the model ignores the format instruction.
func parseStringList(raw string) []string {
	cleaned := stripCodeFence(raw)

	var items []string
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return trimNonEmpty(items)
	}
	return trimNonEmpty(strings.Split(cleaned, ","))
}

// parseSkillCategories reads a JSON object of category -> []skill and
// flattens it, with the same comma-split fallback.
func parseSkillCategories(raw string) []string {
	cleaned := stripCodeFence(raw)

	var categories map[string][]string
	if err := json.Unmarshal([]byte(cleaned), &categories); err == nil {
		var skills []string
		for _, items := range categories {
			skills = append(skills, items...)
		}
		return trimNonEmpty(skills)
	}
	return trimNonEmpty(strings.Split(cleaned, ","))
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func trimNonEmpty(items []string) []string {
	var out []string
	for _, item := range items {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
