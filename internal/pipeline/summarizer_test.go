package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStringList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"json array", `["Go", "PostgreSQL", "Docker"]`, []string{"Go", "PostgreSQL", "Docker"}},
		{"fenced json", "```json\n[\"Go\", \"Redis\"]\n```", []string{"Go", "Redis"}},
		{"comma fallback", "Go, Kubernetes, gRPC", []string{"Go", "Kubernetes", "gRPC"}},
		{"single value", "Go", []string{"Go"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseStringList(tt.raw))
		})
	}
}

func TestParseSkillCategories(t *testing.T) {
	raw := `{"Programming Languages": ["Go", "Python"], "Tools & Technologies": ["Docker"]}`
	skills := parseSkillCategories(raw)
	assert.Len(t, skills, 3)
	assert.Contains(t, skills, "Go")
	assert.Contains(t, skills, "Python")
	assert.Contains(t, skills, "Docker")
}

func TestParseSkillCategoriesFallback(t *testing.T) {
	assert.Equal(t, []string{"Go", "SQL"}, parseSkillCategories("Go, SQL"))
}

func TestSystemPromptPerPhase(t *testing.T) {
	for _, phase := range []Phase{PhaseIssues, PhaseCommits, PhaseRepositoryWork, PhaseContributors} {
		prompt, err := systemPromptFor(phase)
		assert.NoError(t, err)
		assert.NotEmpty(t, prompt)
	}
	_, err := systemPromptFor(Phase(9))
	assert.Error(t, err)
}
