package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"scout.app/research/internal/model"
)

// ActivityFunc receives incremental progress events from an in-flight deep
// research run. Calls arrive in order; the sink must not block.
type ActivityFunc func(kind, message string)

// Request carries the bounded parameters of one deep research run.
type Request struct {
	Query     string
	MaxDepth  int
	TimeLimit int // seconds, enforced server-side
	MaxURLs   int
}

// Result is the aggregated output of a deep research run: a synthesized
// analysis plus the source descriptors it drew from, passed through
// unmodified.
type Result struct {
	FinalAnalysis string
	Sources       []model.Source
}

// Client performs web-crawling deep research. Implementations are opaque to
// the orchestrator: they either return aggregated findings or fail.
type Client interface {
	DeepResearch(ctx context.Context, req Request, onActivity ActivityFunc) (*Result, error)
}

const defaultPollInterval = 2 * time.Second

// HTTPClient talks to a Firecrawl-style deep research API: one POST starts
// the run, then the job endpoint is polled until it reaches a terminal
// status. New activity entries are forwarded to the sink as they appear.
type HTTPClient struct {
	apiKey       string
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
}

// NewHTTPClient creates a research client for the given API credentials.
func NewHTTPClient(apiKey, baseURL string) *HTTPClient {
	return &HTTPClient{
		apiKey:       apiKey,
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 30 * time.Second},
		pollInterval: defaultPollInterval,
	}
}

type startRequest struct {
	Query     string `json:"query"`
	MaxDepth  int    `json:"maxDepth"`
	TimeLimit int    `json:"timeLimit"`
	MaxURLs   int    `json:"maxUrls"`
}

type startResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

type jobResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"` // "processing", "completed", "failed"
	Error   string `json:"error"`
	Data    struct {
		FinalAnalysis string         `json:"finalAnalysis"`
		Sources       []model.Source `json:"sources"`
		Activities    []struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"activities"`
	} `json:"data"`
}

func (c *HTTPClient) DeepResearch(ctx context.Context, req Request, onActivity ActivityFunc) (*Result, error) {
	jobID, err := c.start(ctx, req)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "deep research started", "research_job", jobID, "query", req.Query)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	seenActivities := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		job, err := c.poll(ctx, jobID)
		if err != nil {
			return nil, err
		}

		for _, activity := range job.Data.Activities[min(seenActivities, len(job.Data.Activities)):] {
			if onActivity != nil {
				onActivity(activity.Type, activity.Message)
			}
		}
		seenActivities = max(seenActivities, len(job.Data.Activities))

		switch job.Status {
		case "completed":
			return &Result{
				FinalAnalysis: job.Data.FinalAnalysis,
				Sources:       job.Data.Sources,
			}, nil
		case "failed":
			reason := job.Error
			if reason == "" {
				reason = "research job failed"
			}
			return nil, fmt.Errorf("deep research failed: %s", reason)
		}
	}
}

func (c *HTTPClient) start(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(startRequest{
		Query:     req.Query,
		MaxDepth:  req.MaxDepth,
		TimeLimit: req.TimeLimit,
		MaxURLs:   req.MaxURLs,
	})
	if err != nil {
		return "", fmt.Errorf("marshal research request: %w", err)
	}

	var resp startResponse
	if err := c.do(ctx, http.MethodPost, "/v1/deep-research", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.ID == "" {
		reason := resp.Error
		if reason == "" {
			reason = "no job id returned"
		}
		return "", fmt.Errorf("start deep research: %s", reason)
	}
	return resp.ID, nil
}

func (c *HTTPClient) poll(ctx context.Context, jobID string) (*jobResponse, error) {
	var resp jobResponse
	if err := c.do(ctx, http.MethodGet, "/v1/deep-research/"+jobID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build research request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("research api request: %w", err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read research api response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return fmt.Errorf("research api returned %d: %s", httpResp.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode research api response: %w", err)
	}
	return nil
}
