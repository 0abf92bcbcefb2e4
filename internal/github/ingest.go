package github

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/ishaan812/contribsum/internal/db"
	"github.com/ishaan812/contribsum/internal/logger"
)

const maxPatchChars = 10000

// IngestStats reports what one repository ingest wrote.
type IngestStats struct {
	Issues       int
	Commits      int
	Contributors int
}

// Ingestor pulls a repository's activity from the GitHub API and
// writes it into the store. Raw inserts never touch existing rows, so
// re-ingesting is safe while summaries exist.
type Ingestor struct {
	client      *Client
	store       *db.Store
	log         *logger.Logger
	concurrency int
}

func NewIngestor(client *Client, store *db.Store, log *logger.Logger, concurrency int) *Ingestor {
	if log == nil {
		log = logger.Nop()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Ingestor{client: client, store: store, log: log, concurrency: concurrency}
}

// IngestRepository fetches and stores repository metadata,
// contributors, issues, and commits for owner/name. Commit detail
// fetches run concurrently with a bounded limit since each commit
// needs its own API call for stats and patches.
func (in *Ingestor) IngestRepository(ctx context.Context, owner, name string, since time.Time) (*IngestStats, error) {
	repoID := owner + "/" + name
	stats := &IngestStats{}

	info, err := in.client.Repository(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("fetching repository %s: %w", repoID, err)
	}
	if err := in.store.UpsertRepository(ctx, &db.Repository{
		ID:              repoID,
		Owner:           owner,
		Name:            name,
		Description:     info.Description,
		PrimaryLanguage: info.Language,
		IngestedAt:      time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("storing repository %s: %w", repoID, err)
	}

	contributors, err := in.client.Contributors(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("fetching contributors for %s: %w", repoID, err)
	}
	for _, c := range contributors {
		if err := in.store.InsertContributor(ctx, &db.Contributor{
			ID:        c.Login,
			Username:  c.Login,
			AvatarURL: c.AvatarURL,
		}); err != nil {
			return nil, fmt.Errorf("storing contributor %s: %w", c.Login, err)
		}
		stats.Contributors++
	}

	issues, err := in.client.Issues(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("fetching issues for %s: %w", repoID, err)
	}
	for _, issue := range issues {
		if err := in.storeIssue(ctx, repoID, issue); err != nil {
			return nil, err
		}
		stats.Issues++
	}

	refs, err := in.client.Commits(ctx, owner, name, since)
	if err != nil {
		return nil, fmt.Errorf("fetching commits for %s: %w", repoID, err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)
	for _, ref := range refs {
		g.Go(func() error {
			detail, err := in.client.CommitDetail(gctx, owner, name, ref.SHA)
			if err != nil {
				return fmt.Errorf("fetching commit %s: %w", ref.SHA, err)
			}
			if err := in.storeCommit(gctx, repoID, detail); err != nil {
				return err
			}
			mu.Lock()
			stats.Commits++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	in.log.Info("repository ingested",
		"repository", repoID,
		"issues", stats.Issues,
		"commits", stats.Commits,
		"contributors", stats.Contributors,
	)
	return stats, nil
}

func (in *Ingestor) storeIssue(ctx context.Context, repoID string, issue Issue) error {
	username := issue.User.Login
	if err := in.store.InsertContributor(ctx, &db.Contributor{
		ID:        username,
		Username:  username,
		AvatarURL: issue.User.AvatarURL,
	}); err != nil {
		return fmt.Errorf("storing contributor %s: %w", username, err)
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.Name)
	}

	if err := in.store.InsertIssue(ctx, &db.Issue{
		ID:            strconv.FormatInt(issue.ID, 10),
		RepositoryID:  repoID,
		ContributorID: username,
		Number:        issue.Number,
		Title:         issue.Title,
		Body:          issue.Body,
		State:         issue.State,
		Labels:        labels,
		CreatedAt:     issue.CreatedAt,
		UpdatedAt:     issue.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("storing issue #%d: %w", issue.Number, err)
	}
	return nil
}

func (in *Ingestor) storeCommit(ctx context.Context, repoID string, detail *CommitDetail) error {
	username := commitAuthor(detail.CommitRef)
	avatarURL := ""
	if detail.Author != nil {
		avatarURL = detail.Author.AvatarURL
	}
	if err := in.store.InsertContributor(ctx, &db.Contributor{
		ID:        username,
		Username:  username,
		AvatarURL: avatarURL,
	}); err != nil {
		return fmt.Errorf("storing contributor %s: %w", username, err)
	}

	files := make([]string, 0, len(detail.Files))
	var diff strings.Builder
	for _, f := range detail.Files {
		files = append(files, f.Filename)
		fmt.Fprintf(&diff, "--- %s (%s)\n%s\n", f.Filename, f.Status, truncatePatch(f.Patch))
	}

	if err := in.store.InsertCommit(ctx, &db.Commit{
		ID:            repoID + "@" + detail.SHA,
		RepositoryID:  repoID,
		ContributorID: username,
		SHA:           detail.SHA,
		Message:       detail.Commit.Message,
		Diff:          diff.String(),
		FilesChanged:  files,
		Additions:     detail.Stats.Additions,
		Deletions:     detail.Stats.Deletions,
		CommittedAt:   detail.Commit.Author.Date,
	}); err != nil {
		return fmt.Errorf("storing commit %s: %w", detail.SHA, err)
	}
	return nil
}

// commitAuthor prefers the GitHub login; commits authored outside a
// GitHub account fall back to the git author name.
func commitAuthor(ref CommitRef) string {
	if ref.Author != nil && ref.Author.Login != "" {
		return ref.Author.Login
	}
	if ref.Commit.Author.Name != "" {
		return ref.Commit.Author.Name
	}
	return ref.Commit.Author.Email
}

// truncatePatch bounds a stored patch, cutting at a rune boundary.
func truncatePatch(patch string) string {
	if len(patch) <= maxPatchChars {
		return patch
	}
	cut := maxPatchChars
	for cut > 0 && !utf8.RuneStart(patch[cut]) {
		cut--
	}
	return patch[:cut] + "\n... (truncated)"
}
