package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	conn, err := GetDBForPath(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return NewStore(conn)
}

func seedRepo(t *testing.T, s *Store, id string) {
	t.Helper()
	require.NoError(t, s.UpsertRepository(context.Background(), &Repository{
		ID: id, Owner: "org", Name: id, PrimaryLanguage: "Go", IngestedAt: time.Now(),
	}))
}

func seedIssue(t *testing.T, s *Store, id, contributor, repo string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, s.InsertIssue(context.Background(), &Issue{
		ID: id, RepositoryID: repo, ContributorID: contributor,
		Number: 1, Title: "title " + id, Body: "body", State: "open",
		Labels: []string{"bug"}, CreatedAt: createdAt, UpdatedAt: createdAt,
	}))
}

func seedCommit(t *testing.T, s *Store, id, contributor, repo string, committedAt time.Time) {
	t.Helper()
	require.NoError(t, s.InsertCommit(context.Background(), &Commit{
		ID: id, RepositoryID: repo, ContributorID: contributor,
		SHA: "sha-" + id, Message: "msg " + id, Diff: "diff",
		FilesChanged: []string{"main.go", "store.go"},
		Additions:    5, Deletions: 2, CommittedAt: committedAt,
	}))
}

func TestIssueInsertIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	seedRepo(t, s, "org/r1")
	now := time.Now()
	seedIssue(t, s, "i1", "alice", "org/r1", now)

	require.NoError(t, s.SetIssueSummary(ctx, "i1", "done"))

	// Re-ingesting the same issue must not clobber its summary.
	seedIssue(t, s, "i1", "alice", "org/r1", now)

	issues, err := s.UnsummarizedIssues(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestUnsummarizedSelectorsAndSummaryWrites(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	seedRepo(t, s, "org/r1")
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	seedIssue(t, s, "i2", "alice", "org/r1", base.Add(time.Hour))
	seedIssue(t, s, "i1", "alice", "org/r1", base)
	seedCommit(t, s, "c1", "alice", "org/r1", base)

	issues, err := s.UnsummarizedIssues(ctx, 0)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "i1", issues[0].ID, "issues should come back in chronological order")
	assert.Equal(t, []string{"bug"}, issues[0].Labels)

	require.NoError(t, s.SetIssueSummary(ctx, "i1", "issue summary"))
	issues, err = s.UnsummarizedIssues(ctx, 0)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "i2", issues[0].ID)

	commits, err := s.UnsummarizedCommits(ctx, 0)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, []string{"main.go", "store.go"}, commits[0].FilesChanged)

	require.NoError(t, s.SetCommitSummary(ctx, "c1", "commit summary", []string{"Go", "DuckDB"}))
	commits, err = s.UnsummarizedCommits(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestWorkGroupsTrackPendingChildren(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	seedRepo(t, s, "org/r1")
	base := time.Now()
	seedCommit(t, s, "c1", "alice", "org/r1", base)
	seedCommit(t, s, "c2", "alice", "org/r1", base.Add(time.Hour))
	seedIssue(t, s, "i1", "bob", "org/r1", base)

	groups, err := s.WorkGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byKey := map[string]WorkGroup{}
	for _, g := range groups {
		byKey[g.ContributorID] = g
	}
	assert.Equal(t, 2, byKey["alice"].Total)
	assert.Equal(t, 2, byKey["alice"].Pending)
	assert.False(t, byKey["alice"].HasSummary)

	require.NoError(t, s.SetCommitSummary(ctx, "c1", "one", []string{"Go"}))
	require.NoError(t, s.SetCommitSummary(ctx, "c2", "two", []string{"SQL"}))

	groups, err = s.WorkGroups(ctx)
	require.NoError(t, err)
	for _, g := range groups {
		if g.ContributorID == "alice" {
			assert.Zero(t, g.Pending)
		}
	}
}

func TestGroupActivityRollsUp(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	seedRepo(t, s, "org/r1")
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	seedCommit(t, s, "c1", "alice", "org/r1", base)
	seedCommit(t, s, "c2", "alice", "org/r1", base.AddDate(0, 0, 5))
	seedIssue(t, s, "i1", "alice", "org/r1", base)
	require.NoError(t, s.SetCommitSummary(ctx, "c1", "first", []string{"Go"}))
	require.NoError(t, s.SetCommitSummary(ctx, "c2", "second", []string{"Go", "DuckDB"}))
	require.NoError(t, s.SetIssueSummary(ctx, "i1", "the issue"))

	ga, err := s.GroupActivity(ctx, "alice", "org/r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, ga.CommitSummaries)
	assert.Equal(t, []string{"the issue"}, ga.IssueSummaries)
	assert.Equal(t, 2, ga.CommitCount)
	assert.Equal(t, 1, ga.IssueCount)
	assert.Equal(t, []string{"main.go", "store.go"}, ga.FilesTouched)
	assert.Equal(t, []string{"DuckDB", "Go"}, ga.Technologies)
	assert.True(t, ga.FirstContribution.Equal(base))
	assert.True(t, ga.LastContribution.Equal(base.AddDate(0, 0, 5)))
}

func TestUpsertRepositoryWorkKeepsOneRowPerPair(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	seedRepo(t, s, "org/r1")

	first := &RepositoryWork{
		ContributorID: "alice", RepositoryID: "org/r1", Summary: "v1",
		CommitCount: 1, FirstContribution: time.Now(), LastContribution: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, s.UpsertRepositoryWork(ctx, first))

	second := &RepositoryWork{
		ContributorID: "alice", RepositoryID: "org/r1", Summary: "v2",
		CommitCount: 3, FirstContribution: time.Now(), LastContribution: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, s.UpsertRepositoryWork(ctx, second))

	works, err := s.RepositoryWorkFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, "v2", works[0].Summary)
	assert.Equal(t, 3, works[0].CommitCount)
}

func TestContributorGroupsAndLanguages(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	seedRepo(t, s, "org/r1")
	require.NoError(t, s.InsertContributor(ctx, &Contributor{ID: "alice", Username: "alice"}))
	require.NoError(t, s.UpsertRepositoryWork(ctx, &RepositoryWork{
		ContributorID: "alice", RepositoryID: "org/r1", Summary: "",
		FirstContribution: time.Now(), LastContribution: time.Now(), UpdatedAt: time.Now(),
	}))

	groups, err := s.ContributorGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].WorkTotal)
	assert.Equal(t, 1, groups[0].WorkPending)
	assert.False(t, groups[0].HasSummary)

	languages, err := s.PrimaryLanguagesFor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, languages)

	require.NoError(t, s.UpsertContributorSummary(ctx, &Contributor{
		ID: "alice", Username: "alice", Summary: "profile",
		Skills: []string{"Go"}, PrimaryLanguages: languages, UpdatedAt: time.Now(),
	}))

	groups, err = s.ContributorGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].HasSummary)
}

func TestCountsAndClear(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	seedRepo(t, s, "org/r1")
	now := time.Now()
	seedIssue(t, s, "i1", "alice", "org/r1", now)
	seedCommit(t, s, "c1", "alice", "org/r1", now)
	require.NoError(t, s.SetIssueSummary(ctx, "i1", "done"))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	byKind := map[string]KindCount{}
	for _, kc := range counts {
		byKind[kc.Kind] = kc
	}
	assert.Equal(t, 1, byKind["issues"].Summarized)
	assert.Equal(t, 0, byKind["issues"].Unsummarized)
	assert.Equal(t, 1, byKind["commits"].Unsummarized)

	affected, err := s.ClearSummaries(ctx, "issues")
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	issues, err := s.UnsummarizedIssues(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, issues, 1)

	_, err = s.ClearSummaries(ctx, "bogus")
	assert.Error(t, err)
}
