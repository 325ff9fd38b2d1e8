package handlers

import (
	"net/http"

	"reconview/internal/services"
	"reconview/pkg/logger"
	"reconview/pkg/results"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ResultHandler struct {
	resultService services.ResultServiceMethods
	logger        *logger.Logger
}

func NewResultHandler(resultService services.ResultServiceMethods) *ResultHandler {
	return &ResultHandler{resultService: resultService, logger: logger.NewLogger(logrus.Level(logrus.InfoLevel))}
}

func (h *ResultHandler) load(c *gin.Context) (*results.ResultSet, bool) {
	scanID := c.Param("id")
	rs, err := h.resultService.Load(c.Request.Context(), scanID)
	if err != nil {
		h.logger.WithContext(c.Request.Context()).WithFields(logrus.Fields{"scan_id": scanID, "error": err}).Warn("Failed to load results")
		c.JSON(http.StatusBadGateway, gin.H{"error": services.LoadErrorMessage(err)})
		return nil, false
	}
	return rs, true
}

func (h *ResultHandler) GetResults(c *gin.Context) {
	rs, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, results.Render(rs, StateFromQuery(c)))
}

func (h *ResultHandler) GetCategory(c *gin.Context) {
	cat, err := results.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown category"})
		return
	}
	rs, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, CategoryView(results.Render(rs, CategoryState(c, cat)), cat))
}

func (h *ResultHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format"})
		return
	}
	rs, ok := h.load(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="scan-`+rs.JobID+`.`+format+`"`)
	var err error
	if format == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		err = results.ExportCSV(c.Writer, rs)
	} else {
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.Status(http.StatusOK)
		err = results.ExportJSON(c.Writer, rs)
	}
	if err != nil {
		h.logger.WithFields(logger.Fields{"scan_id": rs.JobID, "format": format, "error": err}).Error("Export failed")
	}
}
