package store

import (
	"context"
	"errors"

	"scout.app/research/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// StatusStore holds the mutable status record of every known job. Records
// are inserted once at submission, updated in place by the job's own
// orchestrator, and never deleted: entries persist for the process lifetime
// (or the backing store's lifetime). Unbounded growth is an accepted
// tradeoff of the memory backend.
type StatusStore interface {
	// Insert registers a new status record. Called exactly once per job,
	// before the orchestrator is dispatched.
	Insert(ctx context.Context, status *model.JobStatus) error
	// Get returns the current status record or ErrNotFound.
	Get(ctx context.Context, jobID string) (*model.JobStatus, error)
	// Update replaces the status record atomically (state, progress and
	// current_step together). Returns ErrNotFound for unknown jobs.
	Update(ctx context.Context, status *model.JobStatus) error
	// List returns a snapshot of all status records in insertion order.
	List(ctx context.Context) ([]model.JobStatus, error)
}

// ResultStore holds the write-once terminal record of each job. A result
// exists if and only if the job's status is terminal.
type ResultStore interface {
	// Write stores the result record. Called exactly once per job, at the
	// terminal transition.
	Write(ctx context.Context, result *model.JobResult) error
	// Get returns the result record or ErrNotFound. Not-yet-terminal jobs
	// report ErrNotFound, indistinguishable from unknown IDs.
	Get(ctx context.Context, jobID string) (*model.JobResult, error)
}

// Registry bundles the two keyed stores of the job registry.
type Registry interface {
	Statuses() StatusStore
	Results() ResultStore
}
