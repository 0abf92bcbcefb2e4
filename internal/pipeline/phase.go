package pipeline

import (
	"errors"
	"fmt"

	"github.com/ishaan812/contribsum/internal/llm"
)

// Phase identifies one stage of the four-stage summarization pipeline.
type Phase int

const (
	PhaseIssues Phase = iota + 1
	PhaseCommits
	PhaseRepositoryWork
	PhaseContributors
)

func (p Phase) String() string {
	switch p {
	case PhaseIssues:
		return "issues"
	case PhaseCommits:
		return "commits"
	case PhaseRepositoryWork:
		return "repository_work"
	case PhaseContributors:
		return "contributors"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ParsePhase converts a 1-4 phase number into a Phase.
func ParsePhase(n int) (Phase, error) {
	if n < 1 || n > 4 {
		return 0, fmt.Errorf("phase must be between 1 and 4, got %d", n)
	}
	return Phase(n), nil
}

// ErrorKind classifies why a single record failed.
type ErrorKind string

const (
	ErrorRateLimited  ErrorKind = "rate_limited"
	ErrorTimeout      ErrorKind = "timeout"
	ErrorInvalidInput ErrorKind = "invalid_input"
	ErrorOther        ErrorKind = "other"
)

// ClassifyError maps a summarizer error onto an ErrorKind.
func ClassifyError(err error) ErrorKind {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return ErrorRateLimited
	case errors.Is(err, llm.ErrTimeout):
		return ErrorTimeout
	case errors.Is(err, llm.ErrInvalidInput):
		return ErrorInvalidInput
	default:
		return ErrorOther
	}
}

// RecordFailure is one record that could not be summarized in a run.
type RecordFailure struct {
	ID   string
	Kind ErrorKind
	Err  error
}

// PhaseResult reports what one phase run did. Per-record failures live
// here; they never abort the phase.
type PhaseResult struct {
	Phase     Phase
	Attempted int
	Succeeded int
	Failed    []RecordFailure
}

func (r *PhaseResult) FailedCount() int {
	return len(r.Failed)
}
