package db

import "time"

// Repository is a tracked GitHub repository.
type Repository struct {
	ID              string // owner/name
	Owner           string
	Name            string
	Description     string
	PrimaryLanguage string
	IngestedAt      time.Time
}

// Issue is a raw GitHub issue. Content fields are immutable after
// ingestion; Summary is written by pipeline phase 1.
type Issue struct {
	ID            string
	RepositoryID  string
	ContributorID string
	Number        int
	Title         string
	Body          string
	State         string
	Labels        []string
	Summary       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Commit is a raw commit. Summary and Technologies are written by
// pipeline phase 2.
type Commit struct {
	ID            string
	RepositoryID  string
	ContributorID string
	SHA           string
	Message       string
	Diff          string
	FilesChanged  []string
	Additions     int
	Deletions     int
	Technologies  []string
	Summary       string
	CommittedAt   time.Time
}

// RepositoryWork aggregates one contributor's activity in one repository.
// At most one row exists per (contributor, repository) pair; phase 3
// creates it lazily and overwrites it on re-runs.
type RepositoryWork struct {
	ID                string
	ContributorID     string
	RepositoryID      string
	Summary           string
	CommitCount       int
	IssueCount        int
	FilesTouched      []string
	Technologies      []string
	FirstContribution time.Time
	LastContribution  time.Time
	UpdatedAt         time.Time
}

// Contributor is the top-level profile, keyed by username. Phase 4
// fills Summary, Skills and the aggregate counters.
type Contributor struct {
	ID                string // username
	Username          string
	AvatarURL         string
	Summary           string
	Skills            []string
	ExpertiseAreas    []string
	TotalCommits      int
	TotalIssues       int
	RepositoriesCount int
	PrimaryLanguages  []string
	UpdatedAt         time.Time
}

// WorkGroup is a candidate (contributor, repository) pair for phase 3,
// with the counts needed to decide eligibility without another round trip.
type WorkGroup struct {
	ContributorID string
	RepositoryID  string
	Total         int  // issues + commits for the pair
	Pending       int  // children with an empty summary
	HasSummary    bool // an already-summarized repository_work row exists
}

// ContributorGroup is a candidate contributor for phase 4.
type ContributorGroup struct {
	ContributorID string
	WorkTotal     int  // repository_work rows for the contributor
	WorkPending   int  // repository_work rows with an empty summary
	HasSummary    bool // the contributor row already has a summary
}

// GroupActivity carries everything phase 3 needs to build one
// repository-work summary: child summaries in stable order plus
// roll-up stats.
type GroupActivity struct {
	ContributorID     string
	RepositoryID      string
	CommitSummaries   []string
	IssueSummaries    []string
	FilesTouched      []string
	Technologies      []string
	CommitCount       int
	IssueCount        int
	FirstContribution time.Time
	LastContribution  time.Time
}

// KindCount is a per-entity-kind progress row for status reporting.
type KindCount struct {
	Kind         string
	Total        int
	Summarized   int
	Unsummarized int
}
