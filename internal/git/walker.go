package git

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const maxPatchChars = 10000

// CommitInfo is one commit shaped for ingestion: message, authorship,
// per-commit stats, touched files, and a concatenated truncated diff.
type CommitInfo struct {
	Hash        string
	Message     string
	AuthorName  string
	AuthorEmail string
	CommittedAt time.Time
	Additions   int
	Deletions   int
	Files       []string
	Diff        string
}

type WalkOptions struct {
	Workers    int
	Since      time.Time // only include commits after this date
	OnProgress func(processed, total int)
	OnCommit   func(CommitInfo) error
}

// WalkCommits walks history from HEAD, extracting commit info with a
// worker pool since diff computation is the expensive part. OnCommit
// is invoked from a single goroutine.
func WalkCommits(repo *Repository, opts WalkOptions) (int, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	gitRepo := repo.Git()
	head, err := gitRepo.Head()
	if err != nil {
		return 0, fmt.Errorf("failed to get HEAD: %w", err)
	}

	iter, err := gitRepo.Log(&git.LogOptions{
		From:  head.Hash(),
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create log iterator: %w", err)
	}

	var commits []*object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if !opts.Since.IsZero() && c.Author.When.Before(opts.Since) {
			return fmt.Errorf("stop")
		}
		commits = append(commits, c)
		return nil
	})
	if err != nil && err.Error() != "stop" {
		return 0, fmt.Errorf("failed to iterate commits: %w", err)
	}

	if len(commits) == 0 {
		return 0, nil
	}

	jobs := make(chan *object.Commit, len(commits))
	results := make(chan CommitInfo, len(commits))

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for commit := range jobs {
				results <- extractCommit(commit)
			}
		}()
	}

	for _, c := range commits {
		jobs <- c
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	count := 0
	for info := range results {
		if opts.OnCommit != nil {
			if err := opts.OnCommit(info); err != nil {
				return count, err
			}
		}
		count++
		if opts.OnProgress != nil {
			opts.OnProgress(count, len(commits))
		}
	}

	return count, nil
}

func extractCommit(c *object.Commit) CommitInfo {
	info := CommitInfo{
		Hash:        c.Hash.String(),
		Message:     c.Message,
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		CommittedAt: c.Author.When,
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		if parent, err := c.Parent(0); err == nil {
			parentTree, _ = parent.Tree()
		}
	}

	commitTree, err := c.Tree()
	if err != nil {
		return info
	}

	changes, err := object.DiffTree(parentTree, commitTree)
	if err != nil {
		return info
	}

	filesSeen := make(map[string]bool)
	var diff strings.Builder
	for _, change := range changes {
		filePath := changePath(change)
		filesSeen[filePath] = true

		patch, err := change.Patch()
		if err != nil || patch == nil {
			continue
		}
		for _, stat := range patch.Stats() {
			info.Additions += stat.Addition
			info.Deletions += stat.Deletion
		}
		fmt.Fprintf(&diff, "--- %s\n%s\n", filePath, truncatePatch(patch.String()))
	}

	for f := range filesSeen {
		info.Files = append(info.Files, f)
	}
	sort.Strings(info.Files)
	info.Diff = diff.String()
	return info
}

func changePath(change *object.Change) string {
	if change.To.Name != "" {
		return change.To.Name
	}
	return change.From.Name
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
