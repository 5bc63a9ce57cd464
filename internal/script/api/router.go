package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chattersim/chattersim/internal/common/logger"
	"github.com/chattersim/chattersim/internal/script/service"
)

// SetupRoutes configures the script API routes
func SetupRoutes(router *gin.RouterGroup, svc *service.Service, log *logger.Logger) {
	handler := NewHandler(svc, log)

	script := router.Group("/script")
	{
		script.GET("/items", handler.ListItems)
		script.POST("/items", handler.CreateItem)
		script.PUT("/items", handler.ReplaceItems)
		script.DELETE("/items", handler.ClearItems)
		script.GET("/items/:itemId", handler.GetItem)
		script.PUT("/items/:itemId", handler.UpdateItem)
		script.DELETE("/items/:itemId", handler.DeleteItem)

		script.POST("/import", handler.ImportItems)
	}
}
