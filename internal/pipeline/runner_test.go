package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/contribsum/internal/llm"
)

func testRunner() *Runner {
	return &Runner{
		BatchSize:   2,
		Concurrency: 2,
		MaxRetries:  2,
		CallTimeout: time.Second,
		Backoff:     time.Millisecond,
	}
}

func okJob(id string, saved *atomic.Int32) Job {
	return Job{
		ID:         id,
		BuildInput: func(ctx context.Context) (string, error) { return "input " + id, nil },
		Summarize: func(ctx context.Context, input string) (string, error) {
			return "summary of " + input, nil
		},
		Save: func(ctx context.Context, summary string) error {
			saved.Add(1)
			return nil
		},
	}
}

func TestRunnerNoJobs(t *testing.T) {
	result, err := testRunner().Run(context.Background(), PhaseIssues, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Attempted)
	assert.Equal(t, 0, result.Succeeded)
	assert.Empty(t, result.Failed)
}

func TestRunnerProcessesAllJobs(t *testing.T) {
	var saved atomic.Int32
	jobs := make([]Job, 5)
	for i := range jobs {
		jobs[i] = okJob(fmt.Sprintf("job-%d", i), &saved)
	}

	result, err := testRunner().Run(context.Background(), PhaseIssues, jobs)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Attempted)
	assert.Equal(t, 5, result.Succeeded)
	assert.Empty(t, result.Failed)
	assert.Equal(t, int32(5), saved.Load())
}

func TestRunnerPartialFailureIsolation(t *testing.T) {
	var saved atomic.Int32
	jobs := make([]Job, 5)
	for i := range jobs {
		id := fmt.Sprintf("job-%d", i)
		jobs[i] = okJob(id, &saved)
	}
	jobs[2].Summarize = func(ctx context.Context, input string) (string, error) {
		return "", fmt.Errorf("bad payload: %w", llm.ErrInvalidInput)
	}

	result, err := testRunner().Run(context.Background(), PhaseCommits, jobs)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Attempted)
	assert.Equal(t, 4, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "job-2", result.Failed[0].ID)
	assert.Equal(t, ErrorInvalidInput, result.Failed[0].Kind)
	assert.Equal(t, int32(4), saved.Load())
}

func TestRunnerRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	var saved atomic.Int32
	job := Job{
		ID:         "flaky",
		BuildInput: func(ctx context.Context) (string, error) { return "in", nil },
		Summarize: func(ctx context.Context, input string) (string, error) {
			if calls.Add(1) <= 2 {
				return "", fmt.Errorf("slow down: %w", llm.ErrRateLimited)
			}
			return "made it", nil
		},
		Save: func(ctx context.Context, summary string) error {
			saved.Add(1)
			return nil
		},
	}

	result, err := testRunner().Run(context.Background(), PhaseIssues, []Job{job})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(1), saved.Load())
}

func TestRunnerDoesNotRetryUnknownErrors(t *testing.T) {
	var calls atomic.Int32
	job := Job{
		ID:         "broken",
		BuildInput: func(ctx context.Context) (string, error) { return "in", nil },
		Summarize: func(ctx context.Context, input string) (string, error) {
			calls.Add(1)
			return "", errors.New("something unexpected")
		},
		Save: func(ctx context.Context, summary string) error { return nil },
	}

	result, err := testRunner().Run(context.Background(), PhaseIssues, []Job{job})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, result.Failed, 1)
	assert.Equal(t, ErrorOther, result.Failed[0].Kind)
}

func TestRunnerEmptySummaryIsFailure(t *testing.T) {
	job := Job{
		ID:         "empty",
		BuildInput: func(ctx context.Context) (string, error) { return "in", nil },
		Summarize:  func(ctx context.Context, input string) (string, error) { return "  \n", nil },
		Save: func(ctx context.Context, summary string) error {
			t.Fatal("save must not run for an empty summary")
			return nil
		},
	}

	result, err := testRunner().Run(context.Background(), PhaseIssues, []Job{job})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	require.Len(t, result.Failed, 1)
}

func TestRunnerSaveErrorIsFatal(t *testing.T) {
	storeDown := errors.New("store unavailable")
	job := Job{
		ID:         "doomed",
		BuildInput: func(ctx context.Context) (string, error) { return "in", nil },
		Summarize:  func(ctx context.Context, input string) (string, error) { return "fine", nil },
		Save:       func(ctx context.Context, summary string) error { return storeDown },
	}

	result, err := testRunner().Run(context.Background(), PhaseIssues, []Job{job})
	require.Error(t, err)
	assert.ErrorIs(t, err, storeDown)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 0, result.Succeeded)
}

func TestRunnerStopsBatchAfterFatalStoreError(t *testing.T) {
	storeDown := errors.New("store unavailable")
	var summarized atomic.Int32

	jobs := []Job{
		{
			ID:         "first",
			BuildInput: func(ctx context.Context) (string, error) { return "in", nil },
			Summarize:  func(ctx context.Context, input string) (string, error) { return "fine", nil },
			Save:       func(ctx context.Context, summary string) error { return storeDown },
		},
	}
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("later-%d", i)
		jobs = append(jobs, Job{
			ID:         id,
			BuildInput: func(ctx context.Context) (string, error) { return "in", nil },
			Summarize: func(ctx context.Context, input string) (string, error) {
				summarized.Add(1)
				return "fine", nil
			},
			Save: func(ctx context.Context, summary string) error { return nil },
		})
	}

	runner := &Runner{BatchSize: 4, Concurrency: 1, MaxRetries: 1, Backoff: time.Millisecond}
	result, err := runner.Run(context.Background(), PhaseIssues, jobs)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeDown)
	// the rest of the batch drains without spending model calls
	assert.Equal(t, int32(0), summarized.Load())
	assert.Equal(t, 1, result.Attempted)
}

func TestRunnerCancellationBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var saved atomic.Int32

	runner := &Runner{BatchSize: 1, Concurrency: 1, MaxRetries: 1, Backoff: time.Millisecond}
	jobs := make([]Job, 3)
	for i := range jobs {
		jobs[i] = okJob(fmt.Sprintf("job-%d", i), &saved)
	}
	// Cancel during the first job: remaining batches stay unattempted.
	jobs[0].Save = func(ctx context.Context, summary string) error {
		saved.Add(1)
		cancel()
		return nil
	}

	result, err := runner.Run(ctx, PhaseIssues, jobs)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, int32(1), saved.Load())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"rate limited", fmt.Errorf("api: %w", llm.ErrRateLimited), ErrorRateLimited},
		{"timeout", fmt.Errorf("api: %w", llm.ErrTimeout), ErrorTimeout},
		{"invalid input", fmt.Errorf("api: %w", llm.ErrInvalidInput), ErrorInvalidInput},
		{"unknown", errors.New("boom"), ErrorOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}
