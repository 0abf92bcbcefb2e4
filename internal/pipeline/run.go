package pipeline

import "time"

// RunState tracks where a pipeline invocation is in its lifecycle.
type RunState string

const (
	StatePending              RunState = "pending"
	StateIssuesRunning        RunState = "phase_1_running"
	StateCommitsRunning       RunState = "phase_2_running"
	StateRepositoryWorkRunning RunState = "phase_3_running"
	StateContributorsRunning  RunState = "phase_4_running"
	StateCompleted            RunState = "completed"
	StateCancelled            RunState = "cancelled"
	StateFailed               RunState = "failed"
)

func runningState(p Phase) RunState {
	switch p {
	case PhaseIssues:
		return StateIssuesRunning
	case PhaseCommits:
		return StateCommitsRunning
	case PhaseRepositoryWork:
		return StateRepositoryWorkRunning
	case PhaseContributors:
		return StateContributorsRunning
	default:
		return StatePending
	}
}

// PipelineRun is the value object for one full-pipeline invocation.
// It is threaded through the orchestrator explicitly; there is no
// ambient pipeline state anywhere.
type PipelineRun struct {
	State      RunState
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []PhaseResult
	Err        error
}

func NewPipelineRun() *PipelineRun {
	return &PipelineRun{
		State:     StatePending,
		StartedAt: time.Now(),
	}
}

// Attempted sums attempted records across all completed phases.
func (r *PipelineRun) Attempted() int {
	total := 0
	for _, res := range r.Results {
		total += res.Attempted
	}
	return total
}

// Succeeded sums succeeded records across all completed phases.
func (r *PipelineRun) Succeeded() int {
	total := 0
	for _, res := range r.Results {
		total += res.Succeeded
	}
	return total
}

// Failures collects per-record failures across all completed phases.
func (r *PipelineRun) Failures() []RecordFailure {
	var failures []RecordFailure
	for _, res := range r.Results {
		failures = append(failures, res.Failed...)
	}
	return failures
}
