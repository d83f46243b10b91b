package dto

import (
	"scout.app/research/internal/model"
)

// Parameter defaults applied when a field is omitted. Bounds are enforced by
// the binding tags; an explicit out-of-range value is a 400, not a clamp.
const (
	DefaultMaxDepth  = 3
	DefaultTimeLimit = 180
	DefaultMaxURLs   = 10
)

type StartResearchRequest struct {
	Topic         string `json:"topic" binding:"required,min=1"`
	MaxDepth      *int   `json:"max_depth,omitempty" binding:"omitempty,min=1,max=5"`
	TimeLimit     *int   `json:"time_limit,omitempty" binding:"omitempty,min=30,max=600"`
	MaxURLs       *int   `json:"max_urls,omitempty" binding:"omitempty,min=1,max=50"`
	EnhanceReport *bool  `json:"enhance_report,omitempty"`
}

func (r *StartResearchRequest) ToModel() model.ResearchRequest {
	req := model.ResearchRequest{
		Topic:         r.Topic,
		MaxDepth:      DefaultMaxDepth,
		TimeLimit:     DefaultTimeLimit,
		MaxURLs:       DefaultMaxURLs,
		EnhanceReport: true,
	}
	if r.MaxDepth != nil {
		req.MaxDepth = *r.MaxDepth
	}
	if r.TimeLimit != nil {
		req.TimeLimit = *r.TimeLimit
	}
	if r.MaxURLs != nil {
		req.MaxURLs = *r.MaxURLs
	}
	if r.EnhanceReport != nil {
		req.EnhanceReport = *r.EnhanceReport
	}
	return req
}

type StartResearchResponse struct {
	ResearchID string `json:"research_id"`
	Message    string `json:"message"`
	Status     string `json:"status"`
}

type ConfigureRequest struct {
	LLMAPIKey       string `json:"llm_api_key" binding:"required"`
	FirecrawlAPIKey string `json:"firecrawl_api_key" binding:"required"`
}

type ConfigureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ResearchStatusResponse struct {
	ResearchID  string `json:"research_id"`
	Status      string `json:"status"`
	Progress    string `json:"progress"`
	CurrentStep string `json:"current_step"`
}

func ToResearchStatusResponse(s *model.JobStatus) *ResearchStatusResponse {
	return &ResearchStatusResponse{
		ResearchID:  s.JobID,
		Status:      string(s.State),
		Progress:    s.Progress,
		CurrentStep: s.CurrentStep,
	}
}

type ResearchResultResponse struct {
	Success        bool           `json:"success"`
	ResearchID     string         `json:"research_id"`
	Topic          string         `json:"topic"`
	InitialReport  *string        `json:"initial_report,omitempty"`
	EnhancedReport *string        `json:"enhanced_report,omitempty"`
	SourcesCount   *int           `json:"sources_count,omitempty"`
	Sources        []model.Source `json:"sources,omitempty"`
	Activities     []string       `json:"activities,omitempty"`
	Error          *string        `json:"error,omitempty"`
}

func ToResearchResultResponse(r *model.JobResult) *ResearchResultResponse {
	return &ResearchResultResponse{
		Success:        r.Success,
		ResearchID:     r.JobID,
		Topic:          r.Topic,
		InitialReport:  r.InitialReport,
		EnhancedReport: r.EnhancedReport,
		SourcesCount:   r.SourcesCount,
		Sources:        r.Sources,
		Activities:     r.Activities,
		Error:          r.Error,
	}
}
