package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Store is the typed query layer over the DuckDB entity store.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetStore returns a store bound to the active database
func GetStore() (*Store, error) {
	conn, err := GetDB()
	if err != nil {
		return nil, err
	}
	return NewStore(conn), nil
}

// ==================== Ingestion writes ====================

// UpsertRepository creates or refreshes a repository record
func (s *Store) UpsertRepository(ctx context.Context, r *Repository) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repositories (id, owner, name, description, primary_language, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			description = excluded.description,
			primary_language = excluded.primary_language,
			ingested_at = excluded.ingested_at
	`, r.ID, r.Owner, r.Name, r.Description, r.PrimaryLanguage, r.IngestedAt)
	return err
}

// InsertIssue inserts an issue. Existing rows are left untouched so
// a re-ingest never clobbers an already-written summary.
func (s *Store) InsertIssue(ctx context.Context, i *Issue) error {
	labelsJSON, _ := json.Marshal(i.Labels)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO issues (id, repository_id, contributor_id, number, title, body, state, labels, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, i.ID, i.RepositoryID, i.ContributorID, i.Number, i.Title, i.Body, i.State, string(labelsJSON), i.CreatedAt, i.UpdatedAt)
	return err
}

// InsertCommit inserts a commit. Existing rows are left untouched.
func (s *Store) InsertCommit(ctx context.Context, c *Commit) error {
	filesJSON, _ := json.Marshal(c.FilesChanged)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commits (id, repository_id, contributor_id, sha, message, diff, files_changed, additions, deletions, technologies, summary, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '[]', '', ?)
		ON CONFLICT (id) DO NOTHING
	`, c.ID, c.RepositoryID, c.ContributorID, c.SHA, c.Message, c.Diff, string(filesJSON), c.Additions, c.Deletions, c.CommittedAt)
	return err
}

// InsertContributor registers a contributor seen during ingestion.
// Profile fields written by phase 4 are preserved on conflict.
func (s *Store) InsertContributor(ctx context.Context, c *Contributor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contributors (id, username, avatar_url, summary, skills, expertise_areas, total_commits, total_issues, repositories_count, primary_languages, updated_at)
		VALUES (?, ?, ?, '', '[]', '[]', 0, 0, 0, '[]', ?)
		ON CONFLICT (id) DO NOTHING
	`, c.ID, c.Username, c.AvatarURL, time.Now())
	return err
}

// ==================== Phase 1/2 selectors and writes ====================

// UnsummarizedIssues returns issues with an empty summary in insertion order
func (s *Store) UnsummarizedIssues(ctx context.Context, limit int) ([]Issue, error) {
	query := `
		SELECT id, repository_id, contributor_id, number, title, body, state, CAST(labels AS VARCHAR), summary, created_at, updated_at
		FROM issues WHERE summary = '' ORDER BY created_at`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsummarized issues: %w", err)
	}
	defer rows.Close()

	var issues []Issue
	for rows.Next() {
		var i Issue
		var labelsJSON sql.NullString
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&i.ID, &i.RepositoryID, &i.ContributorID, &i.Number, &i.Title, &i.Body, &i.State, &labelsJSON, &i.Summary, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if labelsJSON.Valid {
			_ = json.Unmarshal([]byte(labelsJSON.String), &i.Labels)
		}
		i.CreatedAt = createdAt.Time
		i.UpdatedAt = updatedAt.Time
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

// UnsummarizedCommits returns commits with an empty summary in insertion order
func (s *Store) UnsummarizedCommits(ctx context.Context, limit int) ([]Commit, error) {
	query := `
		SELECT id, repository_id, contributor_id, sha, message, diff, CAST(files_changed AS VARCHAR), additions, deletions, summary, committed_at
		FROM commits WHERE summary = '' ORDER BY committed_at`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsummarized commits: %w", err)
	}
	defer rows.Close()

	var commits []Commit
	for rows.Next() {
		var c Commit
		var filesJSON sql.NullString
		var committedAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.RepositoryID, &c.ContributorID, &c.SHA, &c.Message, &c.Diff, &filesJSON, &c.Additions, &c.Deletions, &c.Summary, &committedAt); err != nil {
			return nil, err
		}
		if filesJSON.Valid {
			_ = json.Unmarshal([]byte(filesJSON.String), &c.FilesChanged)
		}
		c.CommittedAt = committedAt.Time
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// SetIssueSummary writes the summary for an issue
func (s *Store) SetIssueSummary(ctx context.Context, id, summary string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE issues SET summary = ? WHERE id = ?`, summary, id)
	return err
}

// SetCommitSummary writes the summary and detected technologies for a commit
func (s *Store) SetCommitSummary(ctx context.Context, id, summary string, technologies []string) error {
	techJSON, _ := json.Marshal(technologies)
	_, err := s.db.ExecContext(ctx, `UPDATE commits SET summary = ?, technologies = ? WHERE id = ?`, summary, string(techJSON), id)
	return err
}

// ==================== Phase 3 selectors and writes ====================

// WorkGroups returns every (contributor, repository) pair with activity,
// along with child counts and whether a summarized repository_work row
// already exists. Eligibility itself is decided by the pipeline.
func (s *Store) WorkGroups(ctx context.Context) ([]WorkGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH activity AS (
			SELECT contributor_id, repository_id, summary FROM commits
			UNION ALL
			SELECT contributor_id, repository_id, summary FROM issues
		)
		SELECT a.contributor_id, a.repository_id,
		       COUNT(*) AS total,
		       COUNT(CASE WHEN a.summary = '' THEN 1 END) AS pending,
		       COALESCE(MAX(CASE WHEN rw.summary IS NOT NULL AND rw.summary <> '' THEN 1 ELSE 0 END), 0) AS has_summary
		FROM activity a
		LEFT JOIN repository_work rw
		  ON rw.contributor_id = a.contributor_id AND rw.repository_id = a.repository_id
		GROUP BY a.contributor_id, a.repository_id
		ORDER BY a.contributor_id, a.repository_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query work groups: %w", err)
	}
	defer rows.Close()

	var groups []WorkGroup
	for rows.Next() {
		var g WorkGroup
		var hasSummary int
		if err := rows.Scan(&g.ContributorID, &g.RepositoryID, &g.Total, &g.Pending, &hasSummary); err != nil {
			return nil, err
		}
		g.HasSummary = hasSummary != 0
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GroupActivity collects child summaries and roll-up stats for one
// (contributor, repository) pair. Summaries come back in stable order:
// chronological within the pair.
func (s *Store) GroupActivity(ctx context.Context, contributorID, repositoryID string) (*GroupActivity, error) {
	ga := &GroupActivity{
		ContributorID: contributorID,
		RepositoryID:  repositoryID,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT summary, CAST(files_changed AS VARCHAR), CAST(technologies AS VARCHAR), committed_at
		FROM commits
		WHERE contributor_id = ? AND repository_id = ?
		ORDER BY committed_at
	`, contributorID, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group commits: %w", err)
	}
	defer rows.Close()

	filesSeen := make(map[string]bool)
	techSeen := make(map[string]bool)
	for rows.Next() {
		var summary string
		var filesJSON, techJSON sql.NullString
		var committedAt sql.NullTime
		if err := rows.Scan(&summary, &filesJSON, &techJSON, &committedAt); err != nil {
			return nil, err
		}
		ga.CommitCount++
		if summary != "" {
			ga.CommitSummaries = append(ga.CommitSummaries, summary)
		}
		if filesJSON.Valid {
			var files []string
			_ = json.Unmarshal([]byte(filesJSON.String), &files)
			for _, f := range files {
				filesSeen[f] = true
			}
		}
		if techJSON.Valid {
			var techs []string
			_ = json.Unmarshal([]byte(techJSON.String), &techs)
			for _, t := range techs {
				techSeen[t] = true
			}
		}
		if committedAt.Valid {
			if ga.FirstContribution.IsZero() || committedAt.Time.Before(ga.FirstContribution) {
				ga.FirstContribution = committedAt.Time
			}
			if committedAt.Time.After(ga.LastContribution) {
				ga.LastContribution = committedAt.Time
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	issueRows, err := s.db.QueryContext(ctx, `
		SELECT summary FROM issues
		WHERE contributor_id = ? AND repository_id = ?
		ORDER BY created_at
	`, contributorID, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group issues: %w", err)
	}
	defer issueRows.Close()

	for issueRows.Next() {
		var summary string
		if err := issueRows.Scan(&summary); err != nil {
			return nil, err
		}
		ga.IssueCount++
		if summary != "" {
			ga.IssueSummaries = append(ga.IssueSummaries, summary)
		}
	}
	if err := issueRows.Err(); err != nil {
		return nil, err
	}

	for f := range filesSeen {
		ga.FilesTouched = append(ga.FilesTouched, f)
	}
	sort.Strings(ga.FilesTouched)
	for t := range techSeen {
		ga.Technologies = append(ga.Technologies, t)
	}
	sort.Strings(ga.Technologies)

	return ga, nil
}

// UpsertRepositoryWork creates or overwrites the aggregate row for a
// (contributor, repository) pair. The UNIQUE key guarantees at most one
// row per pair regardless of how often phase 3 runs.
func (s *Store) UpsertRepositoryWork(ctx context.Context, rw *RepositoryWork) error {
	if rw.ID == "" {
		rw.ID = uuid.New().String()
	}
	filesJSON, _ := json.Marshal(rw.FilesTouched)
	techJSON, _ := json.Marshal(rw.Technologies)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repository_work (id, contributor_id, repository_id, summary, commit_count, issue_count, files_touched, technologies, first_contribution, last_contribution, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (contributor_id, repository_id) DO UPDATE SET
			summary = excluded.summary,
			commit_count = excluded.commit_count,
			issue_count = excluded.issue_count,
			files_touched = excluded.files_touched,
			technologies = excluded.technologies,
			first_contribution = excluded.first_contribution,
			last_contribution = excluded.last_contribution,
			updated_at = excluded.updated_at
	`, rw.ID, rw.ContributorID, rw.RepositoryID, rw.Summary, rw.CommitCount, rw.IssueCount,
		string(filesJSON), string(techJSON), rw.FirstContribution, rw.LastContribution, rw.UpdatedAt)
	return err
}

// ==================== Phase 4 selectors and writes ====================

// ContributorGroups returns every contributor with repository_work rows,
// with the counts the pipeline needs to decide eligibility.
func (s *Store) ContributorGroups(ctx context.Context) ([]ContributorGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rw.contributor_id,
		       COUNT(*) AS work_total,
		       COUNT(CASE WHEN rw.summary = '' THEN 1 END) AS work_pending,
		       COALESCE(MAX(CASE WHEN c.summary IS NOT NULL AND c.summary <> '' THEN 1 ELSE 0 END), 0) AS has_summary
		FROM repository_work rw
		LEFT JOIN contributors c ON c.id = rw.contributor_id
		GROUP BY rw.contributor_id
		ORDER BY rw.contributor_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributor groups: %w", err)
	}
	defer rows.Close()

	var groups []ContributorGroup
	for rows.Next() {
		var g ContributorGroup
		var hasSummary int
		if err := rows.Scan(&g.ContributorID, &g.WorkTotal, &g.WorkPending, &hasSummary); err != nil {
			return nil, err
		}
		g.HasSummary = hasSummary != 0
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// RepositoryWorkFor returns a contributor's repository_work rows ordered
// by repository for stable prompt construction
func (s *Store) RepositoryWorkFor(ctx context.Context, contributorID string) ([]RepositoryWork, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contributor_id, repository_id, summary, commit_count, issue_count,
		       CAST(files_touched AS VARCHAR), CAST(technologies AS VARCHAR),
		       first_contribution, last_contribution, updated_at
		FROM repository_work
		WHERE contributor_id = ?
		ORDER BY repository_id
	`, contributorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query repository work: %w", err)
	}
	defer rows.Close()

	var works []RepositoryWork
	for rows.Next() {
		var rw RepositoryWork
		var filesJSON, techJSON sql.NullString
		var first, last, updated sql.NullTime
		if err := rows.Scan(&rw.ID, &rw.ContributorID, &rw.RepositoryID, &rw.Summary, &rw.CommitCount, &rw.IssueCount, &filesJSON, &techJSON, &first, &last, &updated); err != nil {
			return nil, err
		}
		if filesJSON.Valid {
			_ = json.Unmarshal([]byte(filesJSON.String), &rw.FilesTouched)
		}
		if techJSON.Valid {
			_ = json.Unmarshal([]byte(techJSON.String), &rw.Technologies)
		}
		rw.FirstContribution = first.Time
		rw.LastContribution = last.Time
		rw.UpdatedAt = updated.Time
		works = append(works, rw)
	}
	return works, rows.Err()
}

// PrimaryLanguagesFor returns the distinct primary languages of the
// repositories a contributor has work recorded in
func (s *Store) PrimaryLanguagesFor(ctx context.Context, contributorID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT r.primary_language
		FROM repositories r
		JOIN repository_work rw ON rw.repository_id = r.id
		WHERE rw.contributor_id = ? AND r.primary_language <> ''
		ORDER BY r.primary_language
	`, contributorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary languages: %w", err)
	}
	defer rows.Close()

	var languages []string
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, err
		}
		languages = append(languages, lang)
	}
	return languages, rows.Err()
}

// UpsertContributorSummary creates or overwrites a contributor profile
func (s *Store) UpsertContributorSummary(ctx context.Context, c *Contributor) error {
	skillsJSON, _ := json.Marshal(c.Skills)
	expertiseJSON, _ := json.Marshal(c.ExpertiseAreas)
	languagesJSON, _ := json.Marshal(c.PrimaryLanguages)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contributors (id, username, avatar_url, summary, skills, expertise_areas, total_commits, total_issues, repositories_count, primary_languages, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			summary = excluded.summary,
			skills = excluded.skills,
			expertise_areas = excluded.expertise_areas,
			total_commits = excluded.total_commits,
			total_issues = excluded.total_issues,
			repositories_count = excluded.repositories_count,
			primary_languages = excluded.primary_languages,
			updated_at = excluded.updated_at
	`, c.ID, c.Username, c.AvatarURL, c.Summary, string(skillsJSON), string(expertiseJSON),
		c.TotalCommits, c.TotalIssues, c.RepositoriesCount, string(languagesJSON), c.UpdatedAt)
	return err
}

// ==================== Status ====================

// Counts returns per-kind total/summarized/unsummarized counts
func (s *Store) Counts(ctx context.Context) ([]KindCount, error) {
	kinds := []struct {
		name  string
		table string
	}{
		{"issues", "issues"},
		{"commits", "commits"},
		{"repository_work", "repository_work"},
		{"contributors", "contributors"},
	}

	var counts []KindCount
	for _, k := range kinds {
		var kc KindCount
		kc.Kind = k.name
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
			SELECT COUNT(*),
			       COUNT(CASE WHEN summary <> '' THEN 1 END)
			FROM %s`, k.table)).Scan(&kc.Total, &kc.Summarized)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", k.name, err)
		}
		kc.Unsummarized = kc.Total - kc.Summarized
		counts = append(counts, kc)
	}
	return counts, nil
}

// ClearSummaries resets summaries for one entity kind, making its
// records eligible again. This is the explicit re-run request; nothing
// else ever re-processes a summarized record.
func (s *Store) ClearSummaries(ctx context.Context, kind string) (int64, error) {
	var query string
	switch kind {
	case "issues":
		query = `UPDATE issues SET summary = ''`
	case "commits":
		query = `UPDATE commits SET summary = '', technologies = '[]'`
	case "repository_work":
		query = `UPDATE repository_work SET summary = ''`
	case "contributors":
		query = `UPDATE contributors SET summary = '', skills = '[]', expertise_areas = '[]'`
	default:
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
