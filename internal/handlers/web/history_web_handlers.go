package web

import (
	"net/http"

	"reconview/internal/services"
	"reconview/pkg/logger"
	"reconview/templates"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type HistoryWebHandler struct {
	historyService services.HistoryServiceMethods
	logger         *logger.Logger
}

func NewHistoryWebHandler(historyService services.HistoryServiceMethods) *HistoryWebHandler {
	return &HistoryWebHandler{
		historyService: historyService,
		logger:         logger.NewLogger(logrus.Level(logrus.InfoLevel)),
	}
}

func (h *HistoryWebHandler) HistoryPage(c *gin.Context) {
	jobs, err := h.historyService.Recent(services.HistoryLimit)
	if err != nil {
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Failed to list scan history")
		c.Status(http.StatusInternalServerError)
		return
	}
	render(c, h.logger, http.StatusOK, templates.HistoryPage(jobs, h.historyService.Enabled()))
}
