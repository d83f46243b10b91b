package router

import (
	"github.com/gin-gonic/gin"

	"scout.app/research/internal/http/handler"
	"scout.app/research/internal/service"
)

func SetupRoutes(router *gin.Engine, researchService service.ResearchService) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "service": "Deep Research Agent API"})
	})

	researchHandler := handler.NewResearchHandler(researchService)
	router.POST("/configure", researchHandler.Configure)

	v1 := router.Group("/api/v1")
	{
		ResearchRouter(v1.Group("/research"), researchHandler)
	}
}
