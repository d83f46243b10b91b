package agent

import (
	"context"
	"fmt"
	"log/slog"

	"scout.app/research/common/llm"
	"scout.app/research/common/logger"
)

// ElaborationAgent drives the optional second stage: expanding an existing
// report while preserving its structure and accuracy. A single LLM turn, no
// tools.
type ElaborationAgent struct {
	llm       llm.AgentClient
	maxTokens int
}

// NewElaborationAgent creates an elaboration agent on the given client.
func NewElaborationAgent(llmClient llm.AgentClient, maxTokens int) *ElaborationAgent {
	return &ElaborationAgent{
		llm:       llmClient,
		maxTokens: maxTokens,
	}
}

// EnhanceReport expands the initial report with additional detail, examples
// and context.
func (a *ElaborationAgent) EnhanceReport(ctx context.Context, topic, report string) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "scout.agent.elaboration"})

	input := fmt.Sprintf(`RESEARCH TOPIC: %s

INITIAL RESEARCH REPORT:
%s

Please enhance this research report with additional information, examples, case studies, and deeper insights while maintaining its academic rigor and factual accuracy.`, topic, report)

	resp, err := a.llm.ChatWithTools(ctx, llm.AgentRequest{
		Messages: []llm.Message{
			{Role: "system", Content: elaborationSystemPrompt},
			{Role: "user", Content: input},
		},
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("elaboration agent chat: %w", err)
	}
	if resp.Content == "" {
		return "", fmt.Errorf("elaboration agent returned empty report")
	}

	slog.InfoContext(ctx, "report enhanced",
		"initial_length", len(report),
		"enhanced_length", len(resp.Content))

	return resp.Content, nil
}
