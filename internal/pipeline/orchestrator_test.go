package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/contribsum/internal/db"
	"github.com/ishaan812/contribsum/internal/llm"
)

// fakeStore mirrors the SQL store's semantics in memory.
type fakeStore struct {
	mu           sync.Mutex
	issues       map[string]*db.Issue
	commits      map[string]*db.Commit
	works        map[string]*db.RepositoryWork // contributor|repository
	contributors map[string]*db.Contributor
	languages    map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		issues:       make(map[string]*db.Issue),
		commits:      make(map[string]*db.Commit),
		works:        make(map[string]*db.RepositoryWork),
		contributors: make(map[string]*db.Contributor),
		languages:    make(map[string][]string),
	}
}

func workKey(contributorID, repositoryID string) string {
	return contributorID + "|" + repositoryID
}

func (f *fakeStore) addIssue(id, contributor, repository string) {
	f.issues[id] = &db.Issue{
		ID: id, RepositoryID: repository, ContributorID: contributor,
		Title: "issue " + id, Body: "body", State: "open",
	}
}

func (f *fakeStore) addCommit(id, contributor, repository string) {
	f.commits[id] = &db.Commit{
		ID: id, RepositoryID: repository, ContributorID: contributor,
		SHA: "sha-" + id, Message: "commit " + id, Diff: "diff",
		FilesChanged: []string{"main.go"},
	}
}

func (f *fakeStore) UnsummarizedIssues(ctx context.Context, limit int) ([]db.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Issue
	for _, i := range f.issues {
		if i.Summary == "" {
			out = append(out, *i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (f *fakeStore) UnsummarizedCommits(ctx context.Context, limit int) ([]db.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Commit
	for _, c := range f.commits {
		if c.Summary == "" {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (f *fakeStore) SetIssueSummary(ctx context.Context, id, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[id].Summary = summary
	return nil
}

func (f *fakeStore) SetCommitSummary(ctx context.Context, id, summary string, technologies []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits[id].Summary = summary
	f.commits[id].Technologies = technologies
	return nil
}

func (f *fakeStore) WorkGroups(ctx context.Context) ([]db.WorkGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	groups := make(map[string]*db.WorkGroup)
	add := func(contributor, repository, summary string) {
		key := workKey(contributor, repository)
		g, ok := groups[key]
		if !ok {
			g = &db.WorkGroup{ContributorID: contributor, RepositoryID: repository}
			groups[key] = g
		}
		g.Total++
		if summary == "" {
			g.Pending++
		}
	}
	for _, c := range f.commits {
		add(c.ContributorID, c.RepositoryID, c.Summary)
	}
	for _, i := range f.issues {
		add(i.ContributorID, i.RepositoryID, i.Summary)
	}

	var out []db.WorkGroup
	for key, g := range groups {
		if w, ok := f.works[key]; ok && w.Summary != "" {
			g.HasSummary = true
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(a, b int) bool {
		return workKey(out[a].ContributorID, out[a].RepositoryID) < workKey(out[b].ContributorID, out[b].RepositoryID)
	})
	return out, nil
}

func (f *fakeStore) GroupActivity(ctx context.Context, contributorID, repositoryID string) (*db.GroupActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ga := &db.GroupActivity{ContributorID: contributorID, RepositoryID: repositoryID}
	for _, c := range f.commits {
		if c.ContributorID != contributorID || c.RepositoryID != repositoryID {
			continue
		}
		ga.CommitCount++
		if c.Summary != "" {
			ga.CommitSummaries = append(ga.CommitSummaries, c.Summary)
		}
		ga.FilesTouched = append(ga.FilesTouched, c.FilesChanged...)
		ga.Technologies = append(ga.Technologies, c.Technologies...)
	}
	for _, i := range f.issues {
		if i.ContributorID != contributorID || i.RepositoryID != repositoryID {
			continue
		}
		ga.IssueCount++
		if i.Summary != "" {
			ga.IssueSummaries = append(ga.IssueSummaries, i.Summary)
		}
	}
	return ga, nil
}

func (f *fakeStore) UpsertRepositoryWork(ctx context.Context, rw *db.RepositoryWork) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := workKey(rw.ContributorID, rw.RepositoryID)
	if existing, ok := f.works[key]; ok {
		rw.ID = existing.ID
	} else if rw.ID == "" {
		rw.ID = key
	}
	clone := *rw
	f.works[key] = &clone
	return nil
}

func (f *fakeStore) ContributorGroups(ctx context.Context) ([]db.ContributorGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	groups := make(map[string]*db.ContributorGroup)
	for _, w := range f.works {
		g, ok := groups[w.ContributorID]
		if !ok {
			g = &db.ContributorGroup{ContributorID: w.ContributorID}
			groups[w.ContributorID] = g
		}
		g.WorkTotal++
		if w.Summary == "" {
			g.WorkPending++
		}
	}
	var out []db.ContributorGroup
	for id, g := range groups {
		if c, ok := f.contributors[id]; ok && c.Summary != "" {
			g.HasSummary = true
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ContributorID < out[b].ContributorID })
	return out, nil
}

func (f *fakeStore) RepositoryWorkFor(ctx context.Context, contributorID string) ([]db.RepositoryWork, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.RepositoryWork
	for _, w := range f.works {
		if w.ContributorID == contributorID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].RepositoryID < out[b].RepositoryID })
	return out, nil
}

func (f *fakeStore) PrimaryLanguagesFor(ctx context.Context, contributorID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.languages[contributorID], nil
}

func (f *fakeStore) UpsertContributorSummary(ctx context.Context, c *db.Contributor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *c
	f.contributors[c.ID] = &clone
	return nil
}

func (f *fakeStore) Counts(ctx context.Context) ([]db.KindCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := func(kind string, total, summarized int) db.KindCount {
		return db.KindCount{Kind: kind, Total: total, Summarized: summarized, Unsummarized: total - summarized}
	}
	is, ik := 0, 0
	for _, i := range f.issues {
		is++
		if i.Summary != "" {
			ik++
		}
	}
	cs, ck := 0, 0
	for _, c := range f.commits {
		cs++
		if c.Summary != "" {
			ck++
		}
	}
	ws, wk := 0, 0
	for _, w := range f.works {
		ws++
		if w.Summary != "" {
			wk++
		}
	}
	ps, pk := 0, 0
	for _, p := range f.contributors {
		ps++
		if p.Summary != "" {
			pk++
		}
	}
	return []db.KindCount{
		count("issues", is, ik),
		count("commits", cs, ck),
		count("repository_work", ws, wk),
		count("contributors", ps, pk),
	}, nil
}

// fakeSummarizer echoes a deterministic summary, optionally failing
// inputs that contain a marker string.
type fakeSummarizer struct {
	failOn string
	mu     sync.Mutex
	calls  int
}

func (s *fakeSummarizer) Summarize(ctx context.Context, input string, phase Phase) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.failOn != "" && strings.Contains(input, s.failOn) {
		return "", fmt.Errorf("refusing input: %w", llm.ErrInvalidInput)
	}
	return fmt.Sprintf("[%s summary]", phase), nil
}

func (s *fakeSummarizer) DetectTechnologies(ctx context.Context, filesChanged []string, commitMessage, diff string) ([]string, error) {
	return []string{"Go"}, nil
}

func (s *fakeSummarizer) ExtractSkills(ctx context.Context, workSummary string) ([]string, error) {
	return []string{"Backend Development"}, nil
}

func testOrchestrator(store Store, summarizer Summarizer) *Orchestrator {
	return NewOrchestrator(store, summarizer, Options{
		BatchSize:   2,
		Concurrency: 2,
		MaxRetries:  1,
		Backoff:     time.Millisecond,
	})
}

func TestFullPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addIssue("i1", "alice", "r1")
	store.addIssue("i2", "alice", "r1")
	store.addCommit("c1", "alice", "r1")
	store.addCommit("c2", "alice", "r1")
	store.addCommit("c3", "alice", "r1")
	store.languages["alice"] = []string{"Go"}

	orch := testOrchestrator(store, &fakeSummarizer{})
	run, err := orch.RunFullPipeline(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, run.State)

	require.Len(t, run.Results, 4)
	assert.Equal(t, 2, run.Results[0].Succeeded)
	assert.Equal(t, 3, run.Results[1].Succeeded)
	assert.Equal(t, 1, run.Results[2].Succeeded)
	assert.Equal(t, 1, run.Results[3].Succeeded)

	work := store.works[workKey("alice", "r1")]
	require.NotNil(t, work)
	assert.NotEmpty(t, work.Summary)
	assert.Equal(t, 3, work.CommitCount)
	assert.Equal(t, 2, work.IssueCount)

	profile := store.contributors["alice"]
	require.NotNil(t, profile)
	assert.NotEmpty(t, profile.Summary)
	assert.Equal(t, 3, profile.TotalCommits)
	assert.Equal(t, 2, profile.TotalIssues)
	assert.Equal(t, 1, profile.RepositoriesCount)
	assert.Equal(t, []string{"Go"}, profile.PrimaryLanguages)
	assert.Equal(t, []string{"Backend Development"}, profile.Skills)

	counts, err := orch.Status(ctx)
	require.NoError(t, err)
	for _, kc := range counts {
		assert.Zero(t, kc.Unsummarized, "kind %s should be fully summarized", kc.Kind)
	}
}

func TestCancelledRunIsNotFailed(t *testing.T) {
	store := newFakeStore()
	store.addIssue("i1", "alice", "r1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := testOrchestrator(store, &fakeSummarizer{})
	run, err := orch.RunFullPipeline(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateCancelled, run.State)
	assert.NotEqual(t, StateFailed, run.State)
}

func TestReentrancySecondRunAttemptsNothing(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addIssue("i1", "alice", "r1")
	store.addCommit("c1", "alice", "r1")

	orch := testOrchestrator(store, &fakeSummarizer{})
	_, err := orch.RunFullPipeline(ctx)
	require.NoError(t, err)

	before := store.works[workKey("alice", "r1")].Summary

	run, err := orch.RunFullPipeline(ctx)
	require.NoError(t, err)
	for _, res := range run.Results {
		assert.Zero(t, res.Attempted, "phase %s attempted records on a re-run", res.Phase)
	}
	assert.Equal(t, before, store.works[workKey("alice", "r1")].Summary)
}

func TestPhase3WaitsForUnsummarizedChildren(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addCommit("c1", "alice", "r1")
	store.addCommit("c2", "alice", "r1")
	store.commits["c1"].Summary = "done"
	// c2 still has no summary: the pair is not eligible.

	orch := testOrchestrator(store, &fakeSummarizer{})
	result, err := orch.RunPhase(ctx, PhaseRepositoryWork)
	require.NoError(t, err)
	assert.Zero(t, result.Attempted)
	assert.Empty(t, store.works)
}

func TestPhase3NeverDuplicatesAggregates(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addCommit("c1", "alice", "r1")
	store.commits["c1"].Summary = "done"

	orch := testOrchestrator(store, &fakeSummarizer{})
	_, err := orch.RunPhase(ctx, PhaseRepositoryWork)
	require.NoError(t, err)
	require.Len(t, store.works, 1)
	firstID := store.works[workKey("alice", "r1")].ID

	// Clearing the aggregate summary is the explicit re-run request;
	// the second run must update the existing row, not add another.
	store.works[workKey("alice", "r1")].Summary = ""
	result, err := orch.RunPhase(ctx, PhaseRepositoryWork)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	require.Len(t, store.works, 1)
	assert.Equal(t, firstID, store.works[workKey("alice", "r1")].ID)
	assert.NotEmpty(t, store.works[workKey("alice", "r1")].Summary)
}

func TestPhase1PartialFailureStillUnblocksOthers(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	for i := 1; i <= 5; i++ {
		store.addIssue(fmt.Sprintf("i%d", i), "alice", "r1")
	}

	orch := testOrchestrator(store, &fakeSummarizer{failOn: "issue i3"})
	result, err := orch.RunPhase(ctx, PhaseIssues)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Attempted)
	assert.Equal(t, 4, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "i3", result.Failed[0].ID)
	assert.Equal(t, ErrorInvalidInput, result.Failed[0].Kind)

	assert.Empty(t, store.issues["i3"].Summary)
	for _, id := range []string{"i1", "i2", "i4", "i5"} {
		assert.NotEmpty(t, store.issues[id].Summary)
	}
}

func TestCommitPhaseRecordsTechnologies(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.addCommit("c1", "alice", "r1")

	orch := testOrchestrator(store, &fakeSummarizer{})
	_, err := orch.RunPhase(ctx, PhaseCommits)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, store.commits["c1"].Technologies)
}

func TestEligibility(t *testing.T) {
	assert.True(t, GroupReady(db.WorkGroup{Total: 3, Pending: 0}))
	assert.False(t, GroupReady(db.WorkGroup{Total: 3, Pending: 1}))
	assert.False(t, GroupReady(db.WorkGroup{Total: 0, Pending: 0}))
	assert.False(t, GroupReady(db.WorkGroup{Total: 3, Pending: 0, HasSummary: true}))

	assert.True(t, ContributorReady(db.ContributorGroup{WorkTotal: 2, WorkPending: 0}))
	assert.False(t, ContributorReady(db.ContributorGroup{WorkTotal: 2, WorkPending: 2}))
	assert.False(t, ContributorReady(db.ContributorGroup{WorkTotal: 0}))
	assert.False(t, ContributorReady(db.ContributorGroup{WorkTotal: 2, HasSummary: true}))
}
