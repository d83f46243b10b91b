package agent_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scout.app/research/common/llm"
	"scout.app/research/internal/agent"
	"scout.app/research/internal/firecrawl"
	"scout.app/research/internal/model"
)

var _ = Describe("ResearchAgent", func() {
	var (
		llmClient *scriptedAgentClient
		research  *mockResearchClient
		ctx       context.Context
		req       model.ResearchRequest
	)

	BeforeEach(func() {
		ctx = context.Background()
		research = &mockResearchClient{}
		req = model.ResearchRequest{
			Topic:     "renewable energy",
			MaxDepth:  2,
			TimeLimit: 60,
			MaxURLs:   3,
		}
	})

	Context("when the model calls the tool then writes the report", func() {
		BeforeEach(func() {
			llmClient = &scriptedAgentClient{
				responses: []*llm.AgentResponse{
					{
						FinishReason: "tool_calls",
						ToolCalls: []llm.ToolCall{
							{ID: "call-1", Name: "deep_research", Arguments: `{"query":"renewable energy"}`},
						},
					},
					{Content: "REPORT", FinishReason: "stop"},
				},
			}
		})

		It("feeds tool output back and returns the final report", func() {
			a := agent.NewResearchAgent(llmClient, research, 0)
			draft, err := a.ComposeReport(ctx, req, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(draft.Report).To(Equal("REPORT"))
			Expect(research.calls).To(Equal(1))

			// second turn must carry the tool result back to the model
			last := llmClient.requests[len(llmClient.requests)-1]
			var toolMsg *llm.Message
			for i := range last.Messages {
				if last.Messages[i].Role == "tool" {
					toolMsg = &last.Messages[i]
				}
			}
			Expect(toolMsg).NotTo(BeNil())
			Expect(toolMsg.Content).To(Equal("FINDINGS"))
			Expect(toolMsg.ToolCallID).To(Equal("call-1"))
		})

		It("captures the sources the tool surfaced", func() {
			a := agent.NewResearchAgent(llmClient, research, 0)
			draft, err := a.ComposeReport(ctx, req, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(draft.Sources).To(HaveLen(1))
			Expect(draft.Sources[0]).To(HaveKeyWithValue("url", "https://example.com"))
		})

		It("passes the request bounds to the research client", func() {
			var captured firecrawl.Request
			research.deepResearchFn = func(_ context.Context, r firecrawl.Request, _ firecrawl.ActivityFunc) (*firecrawl.Result, error) {
				captured = r
				return &firecrawl.Result{FinalAnalysis: "FINDINGS"}, nil
			}

			a := agent.NewResearchAgent(llmClient, research, 0)
			_, err := a.ComposeReport(ctx, req, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(captured.MaxDepth).To(Equal(2))
			Expect(captured.TimeLimit).To(Equal(60))
			Expect(captured.MaxURLs).To(Equal(3))
		})
	})

	Context("when the tool call fails", func() {
		BeforeEach(func() {
			llmClient = &scriptedAgentClient{
				responses: []*llm.AgentResponse{
					{
						FinishReason: "tool_calls",
						ToolCalls: []llm.ToolCall{
							{ID: "call-1", Name: "deep_research", Arguments: `{"query":"x"}`},
						},
					},
					{Content: "REPORT WITHOUT SOURCES", FinishReason: "stop"},
				},
			}
		})

		It("reports the error to the model instead of failing the job", func() {
			research.deepResearchFn = func(_ context.Context, _ firecrawl.Request, _ firecrawl.ActivityFunc) (*firecrawl.Result, error) {
				return nil, errors.New("crawl timeout")
			}

			a := agent.NewResearchAgent(llmClient, research, 0)
			draft, err := a.ComposeReport(ctx, req, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(draft.Report).To(Equal("REPORT WITHOUT SOURCES"))

			last := llmClient.requests[len(llmClient.requests)-1]
			var toolMsg string
			for _, msg := range last.Messages {
				if msg.Role == "tool" {
					toolMsg = msg.Content
				}
			}
			Expect(toolMsg).To(ContainSubstring("crawl timeout"))
		})
	})

	Context("when the LLM call fails", func() {
		It("propagates the error", func() {
			llmClient = &scriptedAgentClient{err: errors.New("rate limited")}
			a := agent.NewResearchAgent(llmClient, research, 0)
			_, err := a.ComposeReport(ctx, req, nil)
			Expect(err).To(MatchError(ContainSubstring("rate limited")))
		})
	})

	Context("when the model returns an empty reply", func() {
		It("fails with an explicit error", func() {
			llmClient = &scriptedAgentClient{responses: []*llm.AgentResponse{{Content: "", FinishReason: "stop"}}}
			a := agent.NewResearchAgent(llmClient, research, 0)
			_, err := a.ComposeReport(ctx, req, nil)
			Expect(err).To(MatchError(ContainSubstring("empty report")))
		})
	})
})

var _ = Describe("ElaborationAgent", func() {
	It("returns the enhanced text", func() {
		llmClient := &scriptedAgentClient{responses: []*llm.AgentResponse{{Content: "ENHANCED", FinishReason: "stop"}}}
		a := agent.NewElaborationAgent(llmClient, 0)

		enhanced, err := a.EnhanceReport(context.Background(), "renewable energy", "REPORT")
		Expect(err).NotTo(HaveOccurred())
		Expect(enhanced).To(Equal("ENHANCED"))

		req := llmClient.requests[0]
		Expect(req.Tools).To(BeEmpty())
		Expect(req.Messages[1].Content).To(ContainSubstring("RESEARCH TOPIC: renewable energy"))
		Expect(req.Messages[1].Content).To(ContainSubstring("REPORT"))
	})

	It("propagates LLM failures", func() {
		llmClient := &scriptedAgentClient{err: errors.New("model overloaded")}
		a := agent.NewElaborationAgent(llmClient, 0)

		_, err := a.EnhanceReport(context.Background(), "topic", "REPORT")
		Expect(err).To(MatchError(ContainSubstring("model overloaded")))
	})
})
