package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ishaan812/contribsum/internal/db"
	"github.com/ishaan812/contribsum/internal/logger"
	"github.com/ishaan812/contribsum/internal/prompts"
)

// Store is the persistence capability the orchestrator depends on.
// *db.Store satisfies it; tests substitute fakes.
type Store interface {
	UnsummarizedIssues(ctx context.Context, limit int) ([]db.Issue, error)
	UnsummarizedCommits(ctx context.Context, limit int) ([]db.Commit, error)
	SetIssueSummary(ctx context.Context, id, summary string) error
	SetCommitSummary(ctx context.Context, id, summary string, technologies []string) error
	WorkGroups(ctx context.Context) ([]db.WorkGroup, error)
	GroupActivity(ctx context.Context, contributorID, repositoryID string) (*db.GroupActivity, error)
	UpsertRepositoryWork(ctx context.Context, rw *db.RepositoryWork) error
	ContributorGroups(ctx context.Context) ([]db.ContributorGroup, error)
	RepositoryWorkFor(ctx context.Context, contributorID string) ([]db.RepositoryWork, error)
	PrimaryLanguagesFor(ctx context.Context, contributorID string) ([]string, error)
	UpsertContributorSummary(ctx context.Context, c *db.Contributor) error
	Counts(ctx context.Context) ([]db.KindCount, error)
}

// Options configures an Orchestrator. Zero values fall back to the
// runner defaults.
type Options struct {
	BatchSize   int
	Concurrency int
	MaxRetries  int
	CallTimeout time.Duration
	Backoff     time.Duration
	Logger      *logger.Logger
}

// Orchestrator sequences the four summarization phases. Eligibility is
// always re-derived from the store, so invocations are safe to repeat.
type Orchestrator struct {
	store      Store
	summarizer Summarizer
	runner     Runner
	log        *logger.Logger
}

func NewOrchestrator(store Store, summarizer Summarizer, opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		store:      store,
		summarizer: summarizer,
		log:        log,
		runner: Runner{
			BatchSize:   opts.BatchSize,
			Concurrency: opts.Concurrency,
			MaxRetries:  opts.MaxRetries,
			CallTimeout: opts.CallTimeout,
			Backoff:     opts.Backoff,
			Log:         log,
		},
	}
}

// RunPhase executes one phase over everything currently eligible.
func (o *Orchestrator) RunPhase(ctx context.Context, phase Phase) (*PhaseResult, error) {
	jobs, err := o.buildJobs(ctx, phase)
	if err != nil {
		return nil, fmt.Errorf("selecting eligible records for %s: %w", phase, err)
	}
	o.log.Info("phase starting", "phase", phase.String(), "eligible", len(jobs))
	return o.runner.Run(ctx, phase, jobs)
}

// RunFullPipeline executes all four phases in dependency order. A
// fatal store error stops the sweep; per-record failures do not. The
// run advances past a phase once every eligible record was attempted,
// so partial coverage at one phase still unblocks partial work
// downstream on the next invocation.
func (o *Orchestrator) RunFullPipeline(ctx context.Context) (*PipelineRun, error) {
	run := NewPipelineRun()
	for _, phase := range []Phase{PhaseIssues, PhaseCommits, PhaseRepositoryWork, PhaseContributors} {
		run.State = runningState(phase)
		result, err := o.RunPhase(ctx, phase)
		if result != nil {
			run.Results = append(run.Results, *result)
		}
		if err != nil {
			// an operator stopping the run is not a collaborator failure
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				run.State = StateCancelled
			} else {
				run.State = StateFailed
			}
			run.Err = err
			run.FinishedAt = time.Now()
			return run, err
		}
	}
	run.State = StateCompleted
	run.FinishedAt = time.Now()
	return run, nil
}

// Status reports total/summarized/unsummarized per entity kind.
func (o *Orchestrator) Status(ctx context.Context) ([]db.KindCount, error) {
	return o.store.Counts(ctx)
}

func (o *Orchestrator) buildJobs(ctx context.Context, phase Phase) ([]Job, error) {
	switch phase {
	case PhaseIssues:
		return o.issueJobs(ctx)
	case PhaseCommits:
		return o.commitJobs(ctx)
	case PhaseRepositoryWork:
		return o.repositoryWorkJobs(ctx)
	case PhaseContributors:
		return o.contributorJobs(ctx)
	default:
		return nil, fmt.Errorf("unknown phase %d", int(phase))
	}
}

func (o *Orchestrator) issueJobs(ctx context.Context) ([]Job, error) {
	issues, err := o.store.UnsummarizedIssues(ctx, 0)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(issues))
	for _, issue := range issues {
		jobs = append(jobs, Job{
			ID: issue.ID,
			BuildInput: func(ctx context.Context) (string, error) {
				return prompts.IssueUserMessage(prompts.IssueInput{
					Title:     issue.Title,
					Body:      issue.Body,
					Labels:    issue.Labels,
					State:     issue.State,
					CreatedAt: formatTime(issue.CreatedAt),
				}), nil
			},
			Summarize: func(ctx context.Context, input string) (string, error) {
				return o.summarizer.Summarize(ctx, input, PhaseIssues)
			},
			Save: func(ctx context.Context, summary string) error {
				return o.store.SetIssueSummary(ctx, issue.ID, summary)
			},
		})
	}
	return jobs, nil
}

func (o *Orchestrator) commitJobs(ctx context.Context) ([]Job, error) {
	commits, err := o.store.UnsummarizedCommits(ctx, 0)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(commits))
	for _, commit := range commits {
		jobs = append(jobs, Job{
			ID: commit.ID,
			BuildInput: func(ctx context.Context) (string, error) {
				return prompts.CommitUserMessage(prompts.CommitInput{
					Message:      commit.Message,
					Diff:         commit.Diff,
					FilesChanged: commit.FilesChanged,
					Additions:    commit.Additions,
					Deletions:    commit.Deletions,
					SHA:          commit.SHA,
				}), nil
			},
			Summarize: func(ctx context.Context, input string) (string, error) {
				return o.summarizer.Summarize(ctx, input, PhaseCommits)
			},
			Save: func(ctx context.Context, summary string) error {
				technologies := o.detectTechnologies(ctx, commit)
				return o.store.SetCommitSummary(ctx, commit.ID, summary, technologies)
			},
		})
	}
	return jobs, nil
}

// detectTechnologies is best-effort enrichment: a detection failure
// never fails the commit it decorates.
func (o *Orchestrator) detectTechnologies(ctx context.Context, commit db.Commit) []string {
	callCtx, cancel := context.WithTimeout(ctx, o.runner.callTimeout())
	defer cancel()

	technologies, err := o.summarizer.DetectTechnologies(callCtx, commit.FilesChanged, commit.Message, commit.Diff)
	if err != nil {
		o.log.Warn("technology detection failed", "commit", commit.ID, "error", err)
		return nil
	}
	return technologies
}

func (o *Orchestrator) repositoryWorkJobs(ctx context.Context) ([]Job, error) {
	groups, err := o.store.WorkGroups(ctx)
	if err != nil {
		return nil, err
	}

	var jobs []Job
	for _, group := range groups {
		if !GroupReady(group) {
			continue
		}
		var activity *db.GroupActivity
		jobs = append(jobs, Job{
			ID: group.ContributorID + "/" + group.RepositoryID,
			BuildInput: func(ctx context.Context) (string, error) {
				ga, err := o.store.GroupActivity(ctx, group.ContributorID, group.RepositoryID)
				if err != nil {
					return "", err
				}
				activity = ga
				return prompts.RepositoryWorkUserMessage(prompts.RepositoryWorkInput{
					Repository:        group.RepositoryID,
					Contributor:       group.ContributorID,
					CommitSummaries:   ga.CommitSummaries,
					IssueSummaries:    ga.IssueSummaries,
					FilesTouched:      ga.FilesTouched,
					FirstContribution: formatTime(ga.FirstContribution),
					LastContribution:  formatTime(ga.LastContribution),
					CommitCount:       ga.CommitCount,
					IssueCount:        ga.IssueCount,
				}), nil
			},
			Summarize: func(ctx context.Context, input string) (string, error) {
				return o.summarizer.Summarize(ctx, input, PhaseRepositoryWork)
			},
			Save: func(ctx context.Context, summary string) error {
				return o.store.UpsertRepositoryWork(ctx, &db.RepositoryWork{
					ContributorID:     group.ContributorID,
					RepositoryID:      group.RepositoryID,
					Summary:           summary,
					CommitCount:       activity.CommitCount,
					IssueCount:        activity.IssueCount,
					FilesTouched:      activity.FilesTouched,
					Technologies:      activity.Technologies,
					FirstContribution: activity.FirstContribution,
					LastContribution:  activity.LastContribution,
					UpdatedAt:         time.Now(),
				})
			},
		})
	}
	return jobs, nil
}

func (o *Orchestrator) contributorJobs(ctx context.Context) ([]Job, error) {
	groups, err := o.store.ContributorGroups(ctx)
	if err != nil {
		return nil, err
	}

	var jobs []Job
	for _, group := range groups {
		if !ContributorReady(group) {
			continue
		}
		var profile db.Contributor
		jobs = append(jobs, Job{
			ID: group.ContributorID,
			BuildInput: func(ctx context.Context) (string, error) {
				works, err := o.store.RepositoryWorkFor(ctx, group.ContributorID)
				if err != nil {
					return "", err
				}
				languages, err := o.store.PrimaryLanguagesFor(ctx, group.ContributorID)
				if err != nil {
					return "", err
				}

				var summaries []string
				techSeen := make(map[string]bool)
				totalCommits, totalIssues := 0, 0
				for _, w := range works {
					summaries = append(summaries, w.Summary)
					totalCommits += w.CommitCount
					totalIssues += w.IssueCount
					for _, t := range w.Technologies {
						techSeen[t] = true
					}
				}
				var technologies []string
				for t := range techSeen {
					technologies = append(technologies, t)
				}
				sort.Strings(technologies)

				profile = db.Contributor{
					ID:                group.ContributorID,
					Username:          group.ContributorID,
					ExpertiseAreas:    technologies,
					TotalCommits:      totalCommits,
					TotalIssues:       totalIssues,
					RepositoriesCount: len(works),
					PrimaryLanguages:  languages,
				}
				return prompts.ContributorUserMessage(prompts.ContributorInput{
					Username:            group.ContributorID,
					RepositorySummaries: summaries,
					TotalCommits:        totalCommits,
					TotalIssues:         totalIssues,
					Technologies:        technologies,
					RepositoryCount:     len(works),
				}), nil
			},
			Summarize: func(ctx context.Context, input string) (string, error) {
				return o.summarizer.Summarize(ctx, input, PhaseContributors)
			},
			Save: func(ctx context.Context, summary string) error {
				profile.Summary = summary
				profile.Skills = o.extractSkills(ctx, group.ContributorID, summary)
				profile.UpdatedAt = time.Now()
				return o.store.UpsertContributorSummary(ctx, &profile)
			},
		})
	}
	return jobs, nil
}

// extractSkills is best-effort enrichment on top of the profile text.
func (o *Orchestrator) extractSkills(ctx context.Context, contributorID, summary string) []string {
	callCtx, cancel := context.WithTimeout(ctx, o.runner.callTimeout())
	defer cancel()

	skills, err := o.summarizer.ExtractSkills(callCtx, summary)
	if err != nil {
		o.log.Warn("skills extraction failed", "contributor", contributorID, "error", err)
		return nil
	}
	return skills
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02")
}
