package agent

import (
	"context"
	"fmt"
	"log/slog"

	"scout.app/research/common/llm"
	"scout.app/research/common/logger"
	"scout.app/research/internal/firecrawl"
	"scout.app/research/internal/model"
)

// maxIterations caps the tool-calling loop. One research run normally takes
// a single deep_research call plus the synthesis turn; the cap guards
// against a model that keeps re-invoking the tool.
const maxIterations = 6

// ReportDraft is the output of the research stage: the synthesized report
// plus the source material the research tool surfaced while producing it.
type ReportDraft struct {
	Report  string
	Sources []model.Source
}

type deepResearchParams struct {
	Query string `json:"query" jsonschema:"description=The topic or question to research"`
}

// ResearchAgent drives the initial research stage: a tool-calling LLM
// conversation that is granted the deep research client as a callable tool,
// parameterized with the request's bounds.
type ResearchAgent struct {
	llm       llm.AgentClient
	research  firecrawl.Client
	maxTokens int
}

// NewResearchAgent creates a research agent over the given clients.
func NewResearchAgent(llmClient llm.AgentClient, research firecrawl.Client, maxTokens int) *ResearchAgent {
	return &ResearchAgent{
		llm:       llmClient,
		research:  research,
		maxTokens: maxTokens,
	}
}

// ComposeReport researches the topic and returns the initial report. The
// deep_research tool carries the request's max_depth, time_limit and
// max_urls; activity events stream to the sink as they happen.
func (a *ResearchAgent) ComposeReport(ctx context.Context, req model.ResearchRequest, onActivity firecrawl.ActivityFunc) (*ReportDraft, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "scout.agent.research"})

	tools := []llm.Tool{{
		Name:        "deep_research",
		Description: "Perform comprehensive web research on a topic. Searches the web, analyzes multiple sources and returns a synthesis of the findings.",
		Parameters:  llm.GenerateSchemaFrom(deepResearchParams{}),
	}}

	messages := []llm.Message{
		{Role: "system", Content: researchSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"Research this topic thoroughly: %s. Use max_depth=%d, time_limit=%d, max_urls=%d",
			req.Topic, req.MaxDepth, req.TimeLimit, req.MaxURLs)},
	}

	draft := &ReportDraft{}

	for iteration := 1; ; iteration++ {
		if iteration > maxIterations {
			report, err := a.forceSynthesis(ctx, messages)
			if err != nil {
				return nil, err
			}
			draft.Report = report
			return draft, nil
		}

		resp, err := a.llm.ChatWithTools(ctx, llm.AgentRequest{
			Messages:  messages,
			Tools:     tools,
			MaxTokens: a.maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("research agent chat iteration %d: %w", iteration, err)
		}

		if len(resp.ToolCalls) == 0 {
			if resp.Content == "" {
				return nil, fmt.Errorf("research agent returned empty report")
			}
			slog.InfoContext(ctx, "research agent produced report",
				"iterations", iteration,
				"report_length", len(resp.Content))
			draft.Report = resp.Content
			return draft, nil
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			output := a.executeTool(ctx, call, req, draft, onActivity)
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}
}

func (a *ResearchAgent) executeTool(ctx context.Context, call llm.ToolCall, req model.ResearchRequest, draft *ReportDraft, onActivity firecrawl.ActivityFunc) string {
	if call.Name != "deep_research" {
		return fmt.Sprintf("Error: unknown tool %q", call.Name)
	}

	params, err := llm.ParseToolArguments[deepResearchParams](call.Arguments)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	query := params.Query
	if query == "" {
		query = req.Topic
	}

	result, err := a.research.DeepResearch(ctx, firecrawl.Request{
		Query:     query,
		MaxDepth:  req.MaxDepth,
		TimeLimit: req.TimeLimit,
		MaxURLs:   req.MaxURLs,
	}, onActivity)
	if err != nil {
		slog.WarnContext(ctx, "deep research tool failed", "error", err, "query", logger.Truncate(query, 100))
		return fmt.Sprintf("Error: deep research failed: %v", err)
	}

	draft.Sources = result.Sources
	return result.FinalAnalysis
}

// forceSynthesis demands a final report after the iteration cap, with the
// tool withheld so the model can only answer with text.
func (a *ResearchAgent) forceSynthesis(ctx context.Context, messages []llm.Message) (string, error) {
	slog.InfoContext(ctx, "research agent hit iteration limit, forcing synthesis")

	messages = append(messages, llm.Message{
		Role:    "user",
		Content: "Maximum research steps reached. Write your final report now based on what you have found.",
	})

	resp, err := a.llm.ChatWithTools(ctx, llm.AgentRequest{
		Messages:  messages,
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("research agent synthesis: %w", err)
	}
	if resp.Content == "" {
		return "", fmt.Errorf("research agent returned empty report")
	}
	return resp.Content, nil
}
