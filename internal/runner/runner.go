package runner

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Runner executes job functions as detached background goroutines. The
// calling request returns immediately; a weighted semaphore bounds how many
// jobs run at once. There is no cancellation: once dispatched, a job runs to
// completion or the process ends.
type Runner struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// New creates a Runner allowing up to maxConcurrent simultaneous jobs.
func New(maxConcurrent int64) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Runner{sem: semaphore.NewWeighted(maxConcurrent)}
}

// Go schedules fn to run in the background. The job context keeps the
// caller's values (trace, log fields) but is detached from its cancellation,
// so a finished HTTP request cannot abort the job. Panics are recovered and
// logged; they must never take down the process.
func (r *Runner) Go(ctx context.Context, jobID string, fn func(ctx context.Context)) {
	jobCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(jobCtx, "panic recovered in background job",
					"panic", rec,
					"job_id", jobID)
			}
		}()

		if err := r.sem.Acquire(jobCtx, 1); err != nil {
			slog.ErrorContext(jobCtx, "failed to acquire job slot", "error", err, "job_id", jobID)
			return
		}
		defer r.sem.Release(1)

		fn(jobCtx)
	}()
}

// Wait blocks until all dispatched jobs have finished. Used on shutdown to
// drain in-flight work.
func (r *Runner) Wait() {
	r.wg.Wait()
}
