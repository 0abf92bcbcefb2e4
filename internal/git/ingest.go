package git

import (
	"context"
	"time"

	"github.com/ishaan812/contribsum/internal/db"
)

// IngestClone walks a local clone and writes its commits into the
// store under repoID. Local history has no issue data and no GitHub
// logins; the git author name stands in as the contributor identity.
// Returns the number of commits stored.
func IngestClone(ctx context.Context, store *db.Store, repo *Repository, repoID string, since time.Time, workers int) (int, error) {
	if err := store.UpsertRepository(ctx, &db.Repository{
		ID:         repoID,
		Owner:      ownerOf(repoID),
		Name:       nameOf(repoID),
		IngestedAt: time.Now(),
	}); err != nil {
		return 0, err
	}

	return WalkCommits(repo, WalkOptions{
		Workers: workers,
		Since:   since,
		OnCommit: func(info CommitInfo) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			username := info.AuthorName
			if username == "" {
				username = info.AuthorEmail
			}
			if err := store.InsertContributor(ctx, &db.Contributor{
				ID:       username,
				Username: username,
			}); err != nil {
				return err
			}

			return store.InsertCommit(ctx, &db.Commit{
				ID:            repoID + "@" + info.Hash,
				RepositoryID:  repoID,
				ContributorID: username,
				SHA:           info.Hash,
				Message:       info.Message,
				Diff:          info.Diff,
				FilesChanged:  info.Files,
				Additions:     info.Additions,
				Deletions:     info.Deletions,
				CommittedAt:   info.CommittedAt,
			})
		},
	})
}

func ownerOf(repoID string) string {
	for i := 0; i < len(repoID); i++ {
		if repoID[i] == '/' {
			return repoID[:i]
		}
	}
	return repoID
}

func nameOf(repoID string) string {
	for i := len(repoID) - 1; i >= 0; i-- {
		if repoID[i] == '/' {
			return repoID[i+1:]
		}
	}
	return repoID
}
