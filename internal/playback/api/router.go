package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chattersim/chattersim/internal/common/logger"
	"github.com/chattersim/chattersim/internal/playback/engine"
	"github.com/chattersim/chattersim/internal/script/service"
)

// SetupRoutes configures the playback API routes
func SetupRoutes(router *gin.RouterGroup, eng *engine.Engine, scripts *service.Service, log *logger.Logger) {
	handler := NewHandler(eng, scripts, log)

	playback := router.Group("/playback")
	{
		playback.POST("/start", handler.StartRun)
		playback.POST("/stop", handler.StopRun)
		playback.GET("/status", handler.GetStatus)
		playback.GET("/snapshot", handler.GetSnapshot)
		playback.POST("/runs/:runId/messages/:messageId/ended", handler.MediaEnded)
	}
}
