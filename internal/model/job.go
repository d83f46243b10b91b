package model

// JobState is the lifecycle state of a research job. Transitions are strictly
// forward: pending → researching → (enhancing) → completed, with error
// reachable from any non-terminal state. A terminal job is never reused; a
// rerun needs a fresh job ID.
type JobState string

const (
	StatePending     JobState = "pending"
	StateResearching JobState = "researching"
	StateEnhancing   JobState = "enhancing"
	StateCompleted   JobState = "completed"
	StateError       JobState = "error"
)

func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateError
}

// ResearchRequest carries the validated parameters of one research job.
// Bounds are enforced at the HTTP boundary; an orchestrator never sees an
// out-of-range request.
type ResearchRequest struct {
	Topic         string
	MaxDepth      int // 1–5
	TimeLimit     int // seconds, 30–600
	MaxURLs       int // 1–50
	EnhanceReport bool
}

// JobStatus is the mutable status record of a job. Exactly one exists per
// job ID from submission until process exit. Only the job's own orchestrator
// writes it; any number of readers may observe it concurrently.
type JobStatus struct {
	JobID       string
	State       JobState
	Progress    string
	CurrentStep string
}

// Source is an opaque source descriptor returned by the research client,
// passed through to callers unmodified.
type Source map[string]any

// JobResult is the write-once terminal record of a job. It exists if and
// only if the job's status is completed or error.
type JobResult struct {
	JobID          string
	Success        bool
	Topic          string
	InitialReport  *string
	EnhancedReport *string
	SourcesCount   *int
	Sources        []Source
	Activities     []string
	Error          *string
}

// Report returns the preferred report text for download: the enhanced report
// when present, otherwise the initial report. ok is false when neither
// exists.
func (r *JobResult) Report() (text string, ok bool) {
	if r.EnhancedReport != nil && *r.EnhancedReport != "" {
		return *r.EnhancedReport, true
	}
	if r.InitialReport != nil && *r.InitialReport != "" {
		return *r.InitialReport, true
	}
	return "", false
}
