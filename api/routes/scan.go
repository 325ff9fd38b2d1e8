package routes

import (
	"reconview/internal/handlers"

	"github.com/gin-gonic/gin"
)

func InitScanRoutes(router *gin.RouterGroup, handler *handlers.ScanHandler) {
	scanRoutes := router.Group("/scans")
	{
		scanRoutes.POST("", handler.StartScan)
		scanRoutes.GET("/current", handler.CurrentScan)
		scanRoutes.POST("/reset", handler.ResetScan)
	}
}

func InitResultRoutes(router *gin.RouterGroup, handler *handlers.ResultHandler) {
	resultRoutes := router.Group("/results")
	{
		resultRoutes.GET("/:id", handler.GetResults)
		resultRoutes.GET("/:id/export", handler.Export)
		resultRoutes.GET("/:id/:category", handler.GetCategory)
	}
}
