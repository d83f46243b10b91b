package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"scout.app/research/internal/http/handler"
	"scout.app/research/internal/model"
	"scout.app/research/internal/service"
	"scout.app/research/internal/store"
)

var _ = Describe("ResearchHandler", func() {
	var (
		router *gin.Engine
		svc    *mockResearchService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockResearchService{}
		h := handler.NewResearchHandler(svc)
		router.POST("/configure", h.Configure)
		router.POST("/api/v1/research", h.Start)
		router.POST("/api/v1/research/sync", h.StartSync)
		router.GET("/api/v1/research", h.List)
		router.GET("/api/v1/research/:id/status", h.Status)
		router.GET("/api/v1/research/:id/results", h.Results)
		router.GET("/api/v1/research/:id/download", h.Download)
	})

	postJSON := func(path string, body any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("POST /configure", func() {
		It("configures clients and returns success", func() {
			var gotLLM, gotFC string
			svc.configureFn = func(_ context.Context, llmAPIKey, firecrawlAPIKey string) error {
				gotLLM, gotFC = llmAPIKey, firecrawlAPIKey
				return nil
			}

			w := postJSON("/configure", gin.H{
				"llm_api_key":       "llm-key",
				"firecrawl_api_key": "fc-key",
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotLLM).To(Equal("llm-key"))
			Expect(gotFC).To(Equal("fc-key"))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["success"]).To(BeTrue())
		})

		It("returns 400 when a key is missing", func() {
			w := postJSON("/configure", gin.H{"llm_api_key": "llm-key"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when client construction fails", func() {
			svc.configureFn = func(_ context.Context, _, _ string) error {
				return errors.New("invalid credentials")
			}

			w := postJSON("/configure", gin.H{
				"llm_api_key":       "bad",
				"firecrawl_api_key": "bad",
			})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("Configuration error"))
		})
	})

	Describe("POST /api/v1/research", func() {
		It("submits with defaults for omitted parameters", func() {
			var got model.ResearchRequest
			svc.submitFn = func(_ context.Context, req model.ResearchRequest) (string, error) {
				got = req
				return "12345", nil
			}

			w := postJSON("/api/v1/research", gin.H{"topic": "Quantum Computing"})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got).To(Equal(model.ResearchRequest{
				Topic:         "Quantum Computing",
				MaxDepth:      3,
				TimeLimit:     180,
				MaxURLs:       10,
				EnhanceReport: true,
			}))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["research_id"]).To(Equal("12345"))
			Expect(resp["status"]).To(Equal("pending"))
			Expect(resp["message"]).To(Equal("Research process started"))
		})

		It("passes explicit parameters through", func() {
			var got model.ResearchRequest
			svc.submitFn = func(_ context.Context, req model.ResearchRequest) (string, error) {
				got = req
				return "12345", nil
			}

			w := postJSON("/api/v1/research", gin.H{
				"topic":          "Fusion",
				"max_depth":      5,
				"time_limit":     600,
				"max_urls":       50,
				"enhance_report": false,
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(got.MaxDepth).To(Equal(5))
			Expect(got.TimeLimit).To(Equal(600))
			Expect(got.MaxURLs).To(Equal(50))
			Expect(got.EnhanceReport).To(BeFalse())
		})

		It("rejects a missing topic without calling the service", func() {
			called := false
			svc.submitFn = func(_ context.Context, _ model.ResearchRequest) (string, error) {
				called = true
				return "", nil
			}

			w := postJSON("/api/v1/research", gin.H{"max_depth": 3})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(called).To(BeFalse())
		})

		It("rejects out-of-range parameters", func() {
			for _, body := range []gin.H{
				{"topic": "t", "max_depth": 0},
				{"topic": "t", "max_depth": 6},
				{"topic": "t", "time_limit": 29},
				{"topic": "t", "time_limit": 601},
				{"topic": "t", "max_urls": 0},
				{"topic": "t", "max_urls": 51},
			} {
				w := postJSON("/api/v1/research", body)
				Expect(w.Code).To(Equal(http.StatusBadRequest), fmt.Sprintf("body: %v", body))
			}
		})

		It("returns 400 when clients are not configured", func() {
			svc.submitFn = func(_ context.Context, _ model.ResearchRequest) (string, error) {
				return "", service.ErrNotConfigured
			}

			w := postJSON("/api/v1/research", gin.H{"topic": "Quantum Computing"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("not configured"))
		})
	})

	Describe("POST /api/v1/research/sync", func() {
		It("returns the full result record", func() {
			report := "REPORT"
			svc.submitSyncFn = func(_ context.Context, req model.ResearchRequest) (*model.JobResult, error) {
				return &model.JobResult{
					JobID:         "12345",
					Success:       true,
					Topic:         req.Topic,
					InitialReport: &report,
				}, nil
			}

			w := postJSON("/api/v1/research/sync", gin.H{"topic": "Quantum Computing"})

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["success"]).To(BeTrue())
			Expect(resp["research_id"]).To(Equal("12345"))
			Expect(resp["initial_report"]).To(Equal("REPORT"))
			Expect(resp).NotTo(HaveKey("enhanced_report"))
		})

		It("returns 400 when clients are not configured", func() {
			svc.submitSyncFn = func(_ context.Context, _ model.ResearchRequest) (*model.JobResult, error) {
				return nil, service.ErrNotConfigured
			}

			w := postJSON("/api/v1/research/sync", gin.H{"topic": "Quantum Computing"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/v1/research/:id/status", func() {
		It("returns the status record", func() {
			svc.statusFn = func(_ context.Context, jobID string) (*model.JobStatus, error) {
				Expect(jobID).To(Equal("12345"))
				return &model.JobStatus{
					JobID:       "12345",
					State:       model.StateResearching,
					Progress:    "Research in progress",
					CurrentStep: "Conducting initial research",
				}, nil
			}

			w := get("/api/v1/research/12345/status")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["research_id"]).To(Equal("12345"))
			Expect(resp["status"]).To(Equal("researching"))
			Expect(resp["current_step"]).To(Equal("Conducting initial research"))
		})

		It("returns 404 for an unknown job", func() {
			svc.statusFn = func(_ context.Context, _ string) (*model.JobStatus, error) {
				return nil, store.ErrNotFound
			}

			w := get("/api/v1/research/missing/status")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /api/v1/research/:id/results", func() {
		It("returns 404 while the job is still running", func() {
			svc.resultFn = func(_ context.Context, _ string) (*model.JobResult, error) {
				return nil, store.ErrNotFound
			}

			w := get("/api/v1/research/12345/results")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("returns the error result of a failed job", func() {
			msg := "crawler unreachable"
			svc.resultFn = func(_ context.Context, _ string) (*model.JobResult, error) {
				return &model.JobResult{JobID: "12345", Success: false, Topic: "T", Error: &msg}, nil
			}

			w := get("/api/v1/research/12345/results")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["success"]).To(BeFalse())
			Expect(resp["error"]).To(Equal("crawler unreachable"))
		})
	})

	Describe("GET /api/v1/research", func() {
		It("returns all status records", func() {
			svc.listFn = func(_ context.Context) ([]model.JobStatus, error) {
				return []model.JobStatus{
					{JobID: "1", State: model.StateCompleted},
					{JobID: "2", State: model.StatePending},
				}, nil
			}

			w := get("/api/v1/research")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp []map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveLen(2))
			Expect(resp[0]["research_id"]).To(Equal("1"))
		})

		It("returns an empty array when no jobs exist", func() {
			w := get("/api/v1/research")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal("[]"))
		})
	})

	Describe("GET /api/v1/research/:id/download", func() {
		It("serves the report as a markdown attachment", func() {
			svc.reportFn = func(_ context.Context, jobID, format string) (*service.ReportDownload, error) {
				Expect(jobID).To(Equal("12345"))
				Expect(format).To(Equal("markdown"))
				return &service.ReportDownload{
					Filename: "quantum_computing_report.md",
					Content:  "# Report",
				}, nil
			}

			w := get("/api/v1/research/12345/download")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("text/markdown"))
			Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring("quantum_computing_report.md"))
			Expect(w.Body.String()).To(Equal("# Report"))
		})

		It("passes an explicit format through", func() {
			svc.reportFn = func(_ context.Context, _, format string) (*service.ReportDownload, error) {
				Expect(format).To(Equal("pdf"))
				return nil, service.ErrUnsupportedFormat
			}

			w := get("/api/v1/research/12345/download?format=pdf")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("Unsupported format"))
		})

		It("returns 400 for a failed job", func() {
			svc.reportFn = func(_ context.Context, _, _ string) (*service.ReportDownload, error) {
				return nil, service.ErrJobFailed
			}

			w := get("/api/v1/research/12345/download")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("not successful"))
		})

		It("returns 404 when no result exists", func() {
			svc.reportFn = func(_ context.Context, _, _ string) (*service.ReportDownload, error) {
				return nil, store.ErrNotFound
			}

			w := get("/api/v1/research/12345/download")
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
