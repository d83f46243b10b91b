package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"scout.app/research/common"
	"scout.app/research/common/id"
	"scout.app/research/common/logger"
	"scout.app/research/internal/model"
	"scout.app/research/internal/store"
)

// Dispatcher runs a job function in the background, detached from the
// caller's context. Satisfied by runner.Runner.
type Dispatcher interface {
	Go(ctx context.Context, jobID string, fn func(ctx context.Context))
}

// ReportDownload is a rendered report ready to be served as a file.
type ReportDownload struct {
	Filename string
	Content  string
}

type ResearchService interface {
	// Configure builds and atomically installs the external API clients.
	// Jobs already running keep the clients they started with.
	Configure(ctx context.Context, llmAPIKey, firecrawlAPIKey string) error
	// Configured reports whether clients are installed.
	Configured() bool
	// Submit registers a job and starts it in the background, returning the
	// job ID immediately.
	Submit(ctx context.Context, req model.ResearchRequest) (string, error)
	// SubmitSync registers a job, runs it to completion in the caller's
	// context and returns the terminal result.
	SubmitSync(ctx context.Context, req model.ResearchRequest) (*model.JobResult, error)
	Status(ctx context.Context, jobID string) (*model.JobStatus, error)
	Result(ctx context.Context, jobID string) (*model.JobResult, error)
	List(ctx context.Context) ([]model.JobStatus, error)
	// Report renders a terminal job's report for download in the given
	// format. Only markdown is supported.
	Report(ctx context.Context, jobID, format string) (*ReportDownload, error)
}

type researchService struct {
	registry   store.Registry
	dispatcher Dispatcher
	factory    ClientFactory
	clients    atomic.Pointer[Clients]
}

func NewResearchService(registry store.Registry, dispatcher Dispatcher, factory ClientFactory) ResearchService {
	return &researchService{
		registry:   registry,
		dispatcher: dispatcher,
		factory:    factory,
	}
}

func (s *researchService) Configure(ctx context.Context, llmAPIKey, firecrawlAPIKey string) error {
	clients, err := s.factory(llmAPIKey, firecrawlAPIKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to configure research clients", "error", err)
		return fmt.Errorf("configuring clients: %w", err)
	}

	s.clients.Store(clients)
	slog.InfoContext(ctx, "research clients configured")
	return nil
}

func (s *researchService) Configured() bool {
	return s.clients.Load() != nil
}

func (s *researchService) Submit(ctx context.Context, req model.ResearchRequest) (string, error) {
	jobID, orch, err := s.register(ctx, req)
	if err != nil {
		return "", err
	}

	s.dispatcher.Go(ctx, jobID, func(ctx context.Context) {
		orch.run(ctx, jobID, req)
	})

	slog.InfoContext(ctx, "research job submitted",
		"job_id", jobID,
		"topic", logger.Truncate(req.Topic, 100),
		"enhance_report", req.EnhanceReport,
	)
	return jobID, nil
}

func (s *researchService) SubmitSync(ctx context.Context, req model.ResearchRequest) (*model.JobResult, error) {
	jobID, orch, err := s.register(ctx, req)
	if err != nil {
		return nil, err
	}

	orch.run(ctx, jobID, req)

	result, err := s.registry.Results().Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("fetching result for job %s: %w", jobID, err)
	}
	return result, nil
}

// register validates that clients are configured, assigns a job ID and
// creates the pending status record. The status is visible to queriers
// before the job starts; a rejected submission leaves no record at all.
func (s *researchService) register(ctx context.Context, req model.ResearchRequest) (string, *orchestrator, error) {
	clients := s.clients.Load()
	if clients == nil {
		return "", nil, ErrNotConfigured
	}

	jobID := id.New()
	status := &model.JobStatus{
		JobID:       jobID,
		State:       model.StatePending,
		Progress:    progressQueued,
		CurrentStep: stepInitializing,
	}
	if err := s.registry.Statuses().Insert(ctx, status); err != nil {
		slog.ErrorContext(ctx, "failed to register job", "error", err, "job_id", jobID)
		return "", nil, fmt.Errorf("registering job: %w", err)
	}

	return jobID, &orchestrator{registry: s.registry, clients: clients}, nil
}

func (s *researchService) Status(ctx context.Context, jobID string) (*model.JobStatus, error) {
	return s.registry.Statuses().Get(ctx, jobID)
}

func (s *researchService) Result(ctx context.Context, jobID string) (*model.JobResult, error) {
	return s.registry.Results().Get(ctx, jobID)
}

func (s *researchService) List(ctx context.Context) ([]model.JobStatus, error) {
	return s.registry.Statuses().List(ctx)
}

func (s *researchService) Report(ctx context.Context, jobID, format string) (*ReportDownload, error) {
	result, err := s.registry.Results().Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		if result.Error != nil {
			return nil, fmt.Errorf("%w: %s", ErrJobFailed, *result.Error)
		}
		return nil, ErrJobFailed
	}

	content, ok := result.Report()
	if !ok {
		return nil, ErrNoReport
	}

	if strings.ToLower(format) != "markdown" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return &ReportDownload{
		Filename: common.ReportFilename(result.Topic),
		Content:  content,
	}, nil
}
