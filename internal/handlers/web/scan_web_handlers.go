package web

import (
	"net/http"
	"strings"

	"reconview/internal/handlers"
	"reconview/internal/middleware"
	"reconview/internal/services"
	"reconview/pkg/lifecycle"
	"reconview/pkg/logger"
	"reconview/templates"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ScanWebHandler struct {
	scanService services.ScanServiceMethods
	toolService services.ToolServiceMethods
	pollSeconds int
	logger      *logger.Logger
}

func NewScanWebHandler(scanService services.ScanServiceMethods, toolService services.ToolServiceMethods, pollSeconds int) *ScanWebHandler {
	return &ScanWebHandler{
		scanService: scanService,
		toolService: toolService,
		pollSeconds: pollSeconds,
		logger:      logger.NewLogger(logrus.Level(logrus.InfoLevel)),
	}
}

func (h *ScanWebHandler) form() templates.ScanForm {
	return templates.NewScanForm(h.toolService.ListTools(), h.pollSeconds)
}

// panel answers with the scan panel partial for HTMX and with the full page
// otherwise.
func (h *ScanWebHandler) panel(c *gin.Context, form templates.ScanForm, snap lifecycle.Snapshot) {
	if isPartial(c) {
		render(c, h.logger, http.StatusOK, templates.ScanPanel(form, snap))
		return
	}
	render(c, h.logger, http.StatusOK, templates.Home(form, snap))
}

func (h *ScanWebHandler) StartScan(c *gin.Context) {
	var req handlers.ScanRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithContext(c.Request.Context()).WithError(err).Warn("Failed to bind scan form")
		c.Status(http.StatusBadRequest)
		return
	}

	snap, err := h.scanService.Submit(c.Request.Context(), middleware.SessionID(c), req.Target, req.Tools)
	if err == nil && !isPartial(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	form := h.form()
	if err != nil {
		form.Target = strings.TrimSpace(req.Target)
		form.Selected = make(map[string]bool, len(req.Tools))
		for _, name := range req.Tools {
			form.Selected[name] = true
		}
		if snap.Alert == nil {
			_, message := handlers.SubmitError(err)
			snap.Alert = &lifecycle.Alert{Level: "danger", Message: message}
		}
	}
	h.panel(c, form, snap)
}

func (h *ScanWebHandler) Progress(c *gin.Context) {
	h.panel(c, h.form(), h.scanService.Current(middleware.SessionID(c)))
}

func (h *ScanWebHandler) ResetScan(c *gin.Context) {
	snap := h.scanService.Reset(middleware.SessionID(c))
	if !isPartial(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.panel(c, h.form(), snap)
}

// ViewResults sends the browser to the results page of the finished job, or
// back home while there is none.
func (h *ScanWebHandler) ViewResults(c *gin.Context) {
	id, err := h.scanService.ResultsID(middleware.SessionID(c))
	if err != nil {
		h.logger.WithContext(c.Request.Context()).WithError(err).Debug("No results to show")
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.Redirect(http.StatusSeeOther, "/results/"+id)
}
