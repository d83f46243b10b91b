package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"scout.app/research/internal/http/dto"
	"scout.app/research/internal/service"
	"scout.app/research/internal/store"
)

type ResearchHandler struct {
	researchService service.ResearchService
}

func NewResearchHandler(researchService service.ResearchService) *ResearchHandler {
	return &ResearchHandler{researchService: researchService}
}

func (h *ResearchHandler) Configure(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ConfigureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid configure request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.researchService.Configure(ctx, req.LLMAPIKey, req.FirecrawlAPIKey); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Configuration error: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ConfigureResponse{
		Success: true,
		Message: "API keys configured successfully",
	})
}

func (h *ResearchHandler) Start(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.StartResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid research request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := h.researchService.Submit(ctx, req.ToModel())
	if err != nil {
		if errors.Is(err, service.ErrNotConfigured) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "API keys not configured. Please call /configure endpoint first."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start research"})
		return
	}

	c.JSON(http.StatusOK, dto.StartResearchResponse{
		ResearchID: jobID,
		Message:    "Research process started",
		Status:     "pending",
	})
}

func (h *ResearchHandler) StartSync(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.StartResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid research request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.researchService.SubmitSync(ctx, req.ToModel())
	if err != nil {
		if errors.Is(err, service.ErrNotConfigured) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "API keys not configured. Please call /configure endpoint first."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to run research"})
		return
	}

	c.JSON(http.StatusOK, dto.ToResearchResultResponse(result))
}

func (h *ResearchHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	status, err := h.researchService.Status(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Research ID not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch research status"})
		return
	}

	c.JSON(http.StatusOK, dto.ToResearchStatusResponse(status))
}

func (h *ResearchHandler) Results(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.researchService.Result(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Research results not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch research results"})
		return
	}

	c.JSON(http.StatusOK, dto.ToResearchResultResponse(result))
}

func (h *ResearchHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	statuses, err := h.researchService.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list research jobs"})
		return
	}

	resp := make([]*dto.ResearchStatusResponse, 0, len(statuses))
	for i := range statuses {
		resp = append(resp, dto.ToResearchStatusResponse(&statuses[i]))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ResearchHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()

	format := c.DefaultQuery("format", "markdown")
	download, err := h.researchService.Report(ctx, c.Param("id"), format)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Research results not found"})
		case errors.Is(err, service.ErrJobFailed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Research was not successful"})
		case errors.Is(err, service.ErrNoReport):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No report content available"})
		case errors.Is(err, service.ErrUnsupportedFormat):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format. Only 'markdown' is supported."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to download report"})
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename=`+download.Filename)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(download.Content))
}
