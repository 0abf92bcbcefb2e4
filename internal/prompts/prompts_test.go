package prompts

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCommitUserMessageTruncatesDiff(t *testing.T) {
	longDiff := strings.Repeat("x", 5000)
	msg := CommitUserMessage(CommitInput{
		Message: "fix parser",
		Diff:    longDiff,
		SHA:     "abc123",
	})
	assert.Contains(t, msg, "... (truncated)")
	assert.Less(t, len(msg), 3500)
	assert.Contains(t, msg, "fix parser")
}

func TestIssueUserMessageFillsUnknowns(t *testing.T) {
	msg := IssueUserMessage(IssueInput{Title: "crash on startup"})
	assert.Contains(t, msg, "Title: crash on startup")
	assert.Contains(t, msg, "Body: unknown")
	assert.Contains(t, msg, "State: unknown")
}

func TestRepositoryWorkUserMessageCapsSummaries(t *testing.T) {
	var commitSummaries []string
	for i := 0; i < 25; i++ {
		commitSummaries = append(commitSummaries, fmt.Sprintf("commit summary %d", i))
	}
	msg := RepositoryWorkUserMessage(RepositoryWorkInput{
		Repository:      "org/repo",
		Contributor:     "alice",
		CommitSummaries: commitSummaries,
		CommitCount:     25,
	})
	assert.Contains(t, msg, "commit summary 9")
	assert.NotContains(t, msg, "commit summary 10")
	assert.Contains(t, msg, "Total commits: 25")
}

func TestContributorUserMessageCapsRepositories(t *testing.T) {
	var repoSummaries []string
	for i := 0; i < 8; i++ {
		repoSummaries = append(repoSummaries, fmt.Sprintf("repo summary %d", i))
	}
	msg := ContributorUserMessage(ContributorInput{
		Username:            "alice",
		RepositorySummaries: repoSummaries,
		RepositoryCount:     8,
	})
	assert.Contains(t, msg, "repo summary 4")
	assert.NotContains(t, msg, "repo summary 5")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	out := Truncate("abcdefghij", 4)
	assert.True(t, strings.HasPrefix(out, "abcd"))
	assert.Contains(t, out, "truncated")
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	// "héllo" is h(1) é(2) l l o; cutting at byte 2 lands inside é
	out := Truncate("héllo", 2)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "h"))
	assert.NotContains(t, out, "\xc3")

	out = Truncate("日本語テキスト", 7)
	assert.True(t, utf8.ValidString(out))
}
