package routes

import (
	"reconview/internal/handlers"
	"reconview/internal/handlers/web"
	"reconview/internal/metrics"
	"reconview/internal/middleware"
	"reconview/internal/services"
	"reconview/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the router serves.
type Dependencies struct {
	Scans       services.ScanServiceMethods
	Results     services.ResultServiceMethods
	Tools       services.ToolServiceMethods
	History     services.HistoryServiceMethods
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	PollSeconds int
}

func InitRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// REST APIs
	api := router.Group("/api", middleware.Session())
	{
		InitScanRoutes(api, handlers.NewScanHandler(deps.Scans))
		InitResultRoutes(api, handlers.NewResultHandler(deps.Results))
		InitToolRoutes(api, handlers.NewToolHandler(deps.Tools))
	}

	// web pages
	pages := router.Group("/", middleware.Session())
	{
		index := web.NewIndexHandler(deps.Scans, deps.Tools, deps.PollSeconds)
		scans := web.NewScanWebHandler(deps.Scans, deps.Tools, deps.PollSeconds)
		res := web.NewResultWebHandler(deps.Results)
		history := web.NewHistoryWebHandler(deps.History)

		pages.GET("/", index.HomePage)
		pages.POST("/scans", scans.StartScan)
		pages.GET("/scans/progress", scans.Progress)
		pages.POST("/scans/reset", scans.ResetScan)
		pages.GET("/scans/results", scans.ViewResults)
		pages.GET("/results/:id", res.ResultsPage)
		pages.GET("/results/:id/:category", res.CategoryPage)
		pages.GET("/history", history.HistoryPage)
	}

	return router
}
