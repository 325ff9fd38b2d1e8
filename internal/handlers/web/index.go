package web

import (
	"net/http"

	"reconview/internal/middleware"
	"reconview/internal/services"
	"reconview/pkg/logger"
	"reconview/templates"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type IndexHandler struct {
	scanService services.ScanServiceMethods
	toolService services.ToolServiceMethods
	pollSeconds int
	logger      *logger.Logger
}

func NewIndexHandler(scanService services.ScanServiceMethods, toolService services.ToolServiceMethods, pollSeconds int) *IndexHandler {
	return &IndexHandler{
		scanService: scanService,
		toolService: toolService,
		pollSeconds: pollSeconds,
		logger:      logger.NewLogger(logrus.Level(logrus.InfoLevel)),
	}
}

func (h *IndexHandler) HomePage(c *gin.Context) {
	snap := h.scanService.Current(middleware.SessionID(c))
	form := templates.NewScanForm(h.toolService.ListTools(), h.pollSeconds)
	render(c, h.logger, http.StatusOK, templates.Home(form, snap))
}
