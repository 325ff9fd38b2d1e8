package web

import (
	"net/http"

	"reconview/internal/handlers"
	"reconview/internal/services"
	"reconview/pkg/logger"
	"reconview/pkg/results"
	"reconview/templates"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ResultWebHandler struct {
	resultService services.ResultServiceMethods
	logger        *logger.Logger
}

func NewResultWebHandler(resultService services.ResultServiceMethods) *ResultWebHandler {
	return &ResultWebHandler{
		resultService: resultService,
		logger:        logger.NewLogger(logrus.Level(logrus.InfoLevel)),
	}
}

func (h *ResultWebHandler) views(c *gin.Context, st results.State) results.Views {
	scanID := c.Param("id")
	rs, err := h.resultService.Load(c.Request.Context(), scanID)
	if err != nil {
		h.logger.WithContext(c.Request.Context()).WithFields(logrus.Fields{"scan_id": scanID, "error": err}).Warn("Failed to load results")
		return results.EmptyViews(scanID, services.LoadErrorMessage(err), st)
	}
	return results.Render(rs, st)
}

func (h *ResultWebHandler) ResultsPage(c *gin.Context) {
	render(c, h.logger, http.StatusOK, templates.ResultsPage(h.views(c, handlers.StateFromQuery(c))))
}

// CategoryPage re-renders one category. Without HTMX it falls back to the
// full page carrying that category's state.
func (h *ResultWebHandler) CategoryPage(c *gin.Context) {
	cat, err := results.ParseCategory(c.Param("category"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	v := h.views(c, handlers.CategoryState(c, cat))
	if !isPartial(c) {
		render(c, h.logger, http.StatusOK, templates.ResultsPage(v))
		return
	}
	render(c, h.logger, http.StatusOK, templates.CategoryPartial(v, cat))
}
