package service_test

import (
	"context"

	"scout.app/research/internal/agent"
	"scout.app/research/internal/firecrawl"
	"scout.app/research/internal/model"
)

type stubComposer struct {
	composeFn func(ctx context.Context, req model.ResearchRequest, onActivity firecrawl.ActivityFunc) (*agent.ReportDraft, error)
	calls     int
}

func (s *stubComposer) ComposeReport(ctx context.Context, req model.ResearchRequest, onActivity firecrawl.ActivityFunc) (*agent.ReportDraft, error) {
	s.calls++
	if s.composeFn != nil {
		return s.composeFn(ctx, req, onActivity)
	}
	return &agent.ReportDraft{Report: "REPORT"}, nil
}

type stubEnhancer struct {
	enhanceFn func(ctx context.Context, topic, report string) (string, error)
	calls     int
}

func (s *stubEnhancer) EnhanceReport(ctx context.Context, topic, report string) (string, error) {
	s.calls++
	if s.enhanceFn != nil {
		return s.enhanceFn(ctx, topic, report)
	}
	return "ENHANCED", nil
}

// syncDispatcher runs the job inline so specs observe terminal state right
// after Submit returns.
type syncDispatcher struct{}

func (syncDispatcher) Go(ctx context.Context, jobID string, fn func(ctx context.Context)) {
	fn(ctx)
}

// manualDispatcher captures jobs without running them, for specs that need
// to observe the pending state or interleave a reconfigure.
type manualDispatcher struct {
	jobs []func(ctx context.Context)
}

func (d *manualDispatcher) Go(ctx context.Context, jobID string, fn func(ctx context.Context)) {
	d.jobs = append(d.jobs, fn)
}

func (d *manualDispatcher) runAll(ctx context.Context) {
	for _, fn := range d.jobs {
		fn(ctx)
	}
	d.jobs = nil
}
