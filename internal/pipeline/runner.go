package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ishaan812/contribsum/internal/logger"
)

const (
	defaultBatchSize   = 10
	defaultConcurrency = 4
	defaultMaxRetries  = 3
	defaultCallTimeout = 120 * time.Second
	defaultBackoff     = time.Second
)

// Job is one unit of work within a phase. BuildInput and Save talk to
// the store: their errors are fatal and abort the run. Summarize is
// the LLM call: its errors are per-record, retried with backoff and
// then recorded in the result without stopping the phase.
type Job struct {
	ID        string
	BuildInput func(ctx context.Context) (string, error)
	Summarize  func(ctx context.Context, input string) (string, error)
	Save       func(ctx context.Context, summary string) error
}

// Runner executes one phase's jobs in batches with a bounded worker
// pool. Zero-valued fields fall back to defaults.
type Runner struct {
	BatchSize   int
	Concurrency int
	MaxRetries  int
	CallTimeout time.Duration
	Backoff     time.Duration
	Log         *logger.Logger
}

func (r *Runner) batchSize() int {
	if r.BatchSize > 0 {
		return r.BatchSize
	}
	return defaultBatchSize
}

func (r *Runner) concurrency() int {
	if r.Concurrency > 0 {
		return r.Concurrency
	}
	return defaultConcurrency
}

func (r *Runner) maxRetries() int {
	if r.MaxRetries > 0 {
		return r.MaxRetries
	}
	return defaultMaxRetries
}

func (r *Runner) callTimeout() time.Duration {
	if r.CallTimeout > 0 {
		return r.CallTimeout
	}
	return defaultCallTimeout
}

func (r *Runner) backoff() time.Duration {
	if r.Backoff > 0 {
		return r.Backoff
	}
	return defaultBackoff
}

func (r *Runner) log() *logger.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logger.Nop()
}

// Run processes jobs in batches. Cancellation is checked at batch
// boundaries: a cancelled run returns the partial result, leaving
// unattempted jobs eligible for the next invocation. A returned error
// means a fatal store failure, not a per-record one.
func (r *Runner) Run(ctx context.Context, phase Phase, jobs []Job) (*PhaseResult, error) {
	result := &PhaseResult{Phase: phase}
	if len(jobs) == 0 {
		return result, nil
	}

	size := r.batchSize()
	for start := 0; start < len(jobs); start += size {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := start + size
		if end > len(jobs) {
			end = len(jobs)
		}
		if err := r.runBatch(ctx, jobs[start:end], result); err != nil {
			return result, err
		}
	}

	r.log().Info("phase complete",
		"phase", phase.String(),
		"attempted", result.Attempted,
		"succeeded", result.Succeeded,
		"failed", result.FailedCount(),
	)
	return result, nil
}

func (r *Runner) runBatch(ctx context.Context, batch []Job, result *PhaseResult) error {
	workers := r.concurrency()
	if workers > len(batch) {
		workers = len(batch)
	}

	jobCh := make(chan Job)
	var mu sync.Mutex
	var fatal error
	var wg sync.WaitGroup

	setFatal := func(err error) {
		mu.Lock()
		if fatal == nil {
			fatal = err
		}
		mu.Unlock()
	}
	fatalSet := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fatal != nil
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				// drain without working once the run is doomed,
				// leaving the records eligible for the next invocation
				if fatalSet() {
					continue
				}

				mu.Lock()
				result.Attempted++
				mu.Unlock()

				input, err := job.BuildInput(ctx)
				if err != nil {
					setFatal(fmt.Errorf("building input for %s: %w", job.ID, err))
					continue
				}

				summary, err := r.summarizeWithRetry(ctx, job, input)
				if err != nil {
					kind := ClassifyError(err)
					r.log().Warn("record failed", "id", job.ID, "kind", string(kind), "error", err)
					mu.Lock()
					result.Failed = append(result.Failed, RecordFailure{ID: job.ID, Kind: kind, Err: err})
					mu.Unlock()
					continue
				}

				if err := job.Save(ctx, summary); err != nil {
					setFatal(fmt.Errorf("saving summary for %s: %w", job.ID, err))
					continue
				}

				mu.Lock()
				result.Succeeded++
				mu.Unlock()
			}
		}()
	}

	for _, job := range batch {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()

	return fatal
}

func (r *Runner) summarizeWithRetry(ctx context.Context, job Job, input string) (string, error) {
	delay := r.backoff()
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries(); attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, delay); err != nil {
				return "", lastErr
			}
			delay *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout())
		summary, err := job.Summarize(callCtx, input)
		cancel()

		if err == nil {
			if strings.TrimSpace(summary) == "" {
				return "", fmt.Errorf("model returned an empty summary for %s", job.ID)
			}
			return summary, nil
		}

		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return "", lastErr
}

func retryable(err error) bool {
	switch ClassifyError(err) {
	case ErrorRateLimited, ErrorTimeout, ErrorInvalidInput:
		return true
	default:
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
