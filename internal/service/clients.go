package service

import (
	"context"
	"fmt"

	"scout.app/research/common/llm"
	"scout.app/research/core/config"
	"scout.app/research/internal/agent"
	"scout.app/research/internal/firecrawl"
	"scout.app/research/internal/model"
)

// ReportComposer produces the initial research report for a request,
// streaming research activity events to the sink as they happen.
type ReportComposer interface {
	ComposeReport(ctx context.Context, req model.ResearchRequest, onActivity firecrawl.ActivityFunc) (*agent.ReportDraft, error)
}

// ReportEnhancer expands an existing report in a second pass.
type ReportEnhancer interface {
	EnhanceReport(ctx context.Context, topic, report string) (string, error)
}

// Clients bundles the external-API-backed stages of a research run. A bundle
// is immutable once built; reconfiguration swaps the whole bundle, and jobs
// already in flight keep the bundle they captured at submission.
type Clients struct {
	Composer ReportComposer
	Enhancer ReportEnhancer
}

// ClientFactory builds a client bundle from API credentials. Injected so
// tests can substitute stub stages for the real LLM and crawler clients.
type ClientFactory func(llmAPIKey, firecrawlAPIKey string) (*Clients, error)

// NewClientFactory returns the production factory: an LLM agent client per
// the configured provider, plus the deep research crawler client, wired into
// the research and elaboration agents.
func NewClientFactory(llmCfg config.LLMConfig, firecrawlCfg config.FirecrawlConfig) ClientFactory {
	return func(llmAPIKey, firecrawlAPIKey string) (*Clients, error) {
		if llmAPIKey == "" || firecrawlAPIKey == "" {
			return nil, fmt.Errorf("both LLM and Firecrawl API keys are required")
		}

		agentClient, err := llm.NewAgentClient(llm.Config{
			Provider: llmCfg.Provider,
			APIKey:   llmAPIKey,
			BaseURL:  llmCfg.BaseURL,
			Model:    llmCfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating LLM client: %w", err)
		}

		crawler := firecrawl.NewHTTPClient(firecrawlAPIKey, firecrawlCfg.BaseURL)

		return &Clients{
			Composer: agent.NewResearchAgent(agentClient, crawler, llmCfg.MaxTokens),
			Enhancer: agent.NewElaborationAgent(agentClient, llmCfg.MaxTokens),
		}, nil
	}
}
