package routes

import (
	"reconview/internal/handlers"

	"github.com/gin-gonic/gin"
)

func InitToolRoutes(router *gin.RouterGroup, handler *handlers.ToolHandler) {
	toolRoutes := router.Group("/tools")
	{
		toolRoutes.GET("", handler.ListTools)
	}
}
