package db

// Schema defines the DuckDB table schema.
// Summary columns default to '' — an empty summary marks a record as
// not yet processed by its pipeline phase.
const Schema = `
-- Repositories table
CREATE TABLE IF NOT EXISTS repositories (
    id VARCHAR PRIMARY KEY,
    owner VARCHAR NOT NULL,
    name VARCHAR NOT NULL,
    description VARCHAR DEFAULT '',
    primary_language VARCHAR DEFAULT '',
    ingested_at TIMESTAMP
);

-- Issues table
CREATE TABLE IF NOT EXISTS issues (
    id VARCHAR PRIMARY KEY,
    repository_id VARCHAR NOT NULL,
    contributor_id VARCHAR NOT NULL,
    number INTEGER DEFAULT 0,
    title VARCHAR NOT NULL,
    body VARCHAR DEFAULT '',
    state VARCHAR DEFAULT '',
    labels JSON,
    summary VARCHAR DEFAULT '',
    created_at TIMESTAMP,
    updated_at TIMESTAMP
);

-- Commits table
CREATE TABLE IF NOT EXISTS commits (
    id VARCHAR PRIMARY KEY,
    repository_id VARCHAR NOT NULL,
    contributor_id VARCHAR NOT NULL,
    sha VARCHAR NOT NULL,
    message VARCHAR NOT NULL,
    diff VARCHAR DEFAULT '',
    files_changed JSON,
    additions INTEGER DEFAULT 0,
    deletions INTEGER DEFAULT 0,
    technologies JSON,
    summary VARCHAR DEFAULT '',
    committed_at TIMESTAMP,
    UNIQUE(repository_id, sha)
);

-- Repository work table (one row per contributor/repository pair)
CREATE TABLE IF NOT EXISTS repository_work (
    id VARCHAR PRIMARY KEY,
    contributor_id VARCHAR NOT NULL,
    repository_id VARCHAR NOT NULL,
    summary VARCHAR DEFAULT '',
    commit_count INTEGER DEFAULT 0,
    issue_count INTEGER DEFAULT 0,
    files_touched JSON,
    technologies JSON,
    first_contribution TIMESTAMP,
    last_contribution TIMESTAMP,
    updated_at TIMESTAMP,
    UNIQUE(contributor_id, repository_id)
);

-- Contributors table (one row per contributor)
CREATE TABLE IF NOT EXISTS contributors (
    id VARCHAR PRIMARY KEY,
    username VARCHAR UNIQUE NOT NULL,
    avatar_url VARCHAR DEFAULT '',
    summary VARCHAR DEFAULT '',
    skills JSON,
    expertise_areas JSON,
    total_commits INTEGER DEFAULT 0,
    total_issues INTEGER DEFAULT 0,
    repositories_count INTEGER DEFAULT 0,
    primary_languages JSON,
    updated_at TIMESTAMP
);

-- Create indexes for eligibility queries
CREATE INDEX IF NOT EXISTS idx_issues_repo ON issues(repository_id);
CREATE INDEX IF NOT EXISTS idx_issues_contributor ON issues(contributor_id);
CREATE INDEX IF NOT EXISTS idx_commits_repo ON commits(repository_id);
CREATE INDEX IF NOT EXISTS idx_commits_contributor ON commits(contributor_id);
CREATE INDEX IF NOT EXISTS idx_repository_work_contributor ON repository_work(contributor_id);
`
