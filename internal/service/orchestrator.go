package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"scout.app/research/common/logger"
	"scout.app/research/internal/model"
	"scout.app/research/internal/store"
)

// Status wording matches what API consumers have come to scrape out of the
// current_step field; change with care.
const (
	progressQueued    = "Research queued"
	stepInitializing  = "Initializing research process"
	progressRunning   = "Research in progress"
	stepResearching   = "Conducting initial research"
	stepEnhancing     = "Enhancing report with additional information"
	progressCompleted = "Research completed"
	stepCompleted     = "Research completed successfully"
	progressFailed    = "Research failed"
)

// orchestrator runs a single research job end to end: it owns the job's
// status record for the duration of the run and writes the terminal result.
// The client bundle is captured at submission, so a concurrent reconfigure
// never swaps stages under a running job.
type orchestrator struct {
	registry store.Registry
	clients  *Clients
}

// activityLog collects research activity events in arrival order. The
// crawler's poll loop and the orchestrator touch it from the same goroutine
// today, but the sink is handed across an interface boundary, so it locks.
type activityLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *activityLog) add(kind, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, fmt.Sprintf("[%s] %s", kind, message))
}

func (l *activityLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// run executes the research pipeline for an already-registered pending job:
// researching, optionally enhancing, then the terminal write. The result
// record goes in before the status flips terminal, so a caller that observes
// a terminal status can always fetch the result.
func (o *orchestrator) run(ctx context.Context, jobID string, req model.ResearchRequest) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		JobID: jobID,
		Topic: logger.Ptr(logger.Truncate(req.Topic, 100)),
	})

	activities := &activityLog{}
	onActivity := func(kind, message string) {
		activities.add(kind, message)
		slog.InfoContext(ctx, "research activity", "kind", kind, "message", logger.Truncate(message, 200))
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr(string(model.StateResearching))})
	o.setStatus(ctx, jobID, model.StateResearching, progressRunning, stepResearching)

	slog.InfoContext(ctx, "starting initial research")
	draft, err := o.clients.Composer.ComposeReport(ctx, req, onActivity)
	if err != nil {
		o.fail(ctx, jobID, req.Topic, activities, err)
		return
	}

	result := &model.JobResult{
		JobID:         jobID,
		Success:       true,
		Topic:         req.Topic,
		InitialReport: &draft.Report,
		Activities:    activities.snapshot(),
	}
	if draft.Sources != nil {
		count := len(draft.Sources)
		result.Sources = draft.Sources
		result.SourcesCount = &count
	}

	if req.EnhanceReport {
		ctx = logger.WithLogFields(ctx, logger.LogFields{Stage: logger.Ptr(string(model.StateEnhancing))})
		o.setStatus(ctx, jobID, model.StateEnhancing, progressRunning, stepEnhancing)

		slog.InfoContext(ctx, "enhancing research report")
		enhanced, err := o.clients.Enhancer.EnhanceReport(ctx, req.Topic, draft.Report)
		if err != nil {
			o.fail(ctx, jobID, req.Topic, activities, err)
			return
		}
		result.EnhancedReport = &enhanced
		result.Activities = activities.snapshot()
	}

	if err := o.registry.Results().Write(ctx, result); err != nil {
		slog.ErrorContext(ctx, "failed to write job result", "error", err)
		o.fail(ctx, jobID, req.Topic, activities, fmt.Errorf("storing result: %w", err))
		return
	}

	o.setStatus(ctx, jobID, model.StateCompleted, progressCompleted, stepCompleted)
	slog.InfoContext(ctx, "research job completed")
}

// fail records the terminal error: result first, then the error status. The
// result carries only the topic, the activity log and the error text; partial
// reports from a failed run are not surfaced.
func (o *orchestrator) fail(ctx context.Context, jobID, topic string, activities *activityLog, cause error) {
	slog.ErrorContext(ctx, "research job failed", "error", cause)

	msg := cause.Error()
	result := &model.JobResult{
		JobID:      jobID,
		Success:    false,
		Topic:      topic,
		Activities: activities.snapshot(),
		Error:      &msg,
	}
	if err := o.registry.Results().Write(ctx, result); err != nil {
		slog.ErrorContext(ctx, "failed to write error result", "error", err)
	}

	o.setStatus(ctx, jobID, model.StateError, progressFailed, "Error: "+msg)
}

func (o *orchestrator) setStatus(ctx context.Context, jobID string, state model.JobState, progress, step string) {
	status := &model.JobStatus{
		JobID:       jobID,
		State:       state,
		Progress:    progress,
		CurrentStep: step,
	}
	if err := o.registry.Statuses().Update(ctx, status); err != nil {
		slog.ErrorContext(ctx, "failed to update job status",
			"error", err,
			"state", state,
		)
	}
}
