package router

import (
	"github.com/gin-gonic/gin"

	"scout.app/research/internal/http/handler"
)

func ResearchRouter(router *gin.RouterGroup, handler *handler.ResearchHandler) {
	router.POST("", handler.Start)
	router.POST("/sync", handler.StartSync)
	router.GET("", handler.List)
	router.GET("/:id/status", handler.Status)
	router.GET("/:id/results", handler.Results)
	router.GET("/:id/download", handler.Download)
}
