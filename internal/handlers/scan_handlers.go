package handlers

import (
	"errors"
	"net/http"

	"reconview/internal/middleware"
	"reconview/internal/services"
	rverrors "reconview/pkg/errors"
	"reconview/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	msgInvalidPayload = "Invalid request payload"
	msgBusy           = "A scan is already in progress"
	msgStartFailed    = "Failed to start scan"
)

type ScanHandler struct {
	scanService services.ScanServiceMethods
	logger      *logger.Logger
}

func NewScanHandler(scanService services.ScanServiceMethods) *ScanHandler {
	return &ScanHandler{scanService: scanService, logger: logger.NewLogger(logrus.Level(logrus.InfoLevel))}
}

func (h *ScanHandler) StartScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithContext(c.Request.Context()).WithError(err).Warn("Failed to bind scan request")
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPayload})
		return
	}

	snap, err := h.scanService.Submit(c.Request.Context(), middleware.SessionID(c), req.Target, req.Tools)
	if err != nil {
		status, message := SubmitError(err)
		c.JSON(status, ScanErrorResponse{Error: message, Scan: snap})
		return
	}
	c.JSON(http.StatusOK, ScanResponse{Scan: snap})
}

func (h *ScanHandler) CurrentScan(c *gin.Context) {
	c.JSON(http.StatusOK, ScanResponse{Scan: h.scanService.Current(middleware.SessionID(c))})
}

func (h *ScanHandler) ResetScan(c *gin.Context) {
	c.JSON(http.StatusOK, ScanResponse{Scan: h.scanService.Reset(middleware.SessionID(c))})
}

// SubmitError maps a submission failure to an HTTP status and the message
// shown to the user.
func SubmitError(err error) (int, string) {
	switch {
	case rverrors.IsValidation(err):
		return http.StatusBadRequest, rverrors.UserMessage(err, msgStartFailed)
	case errors.Is(err, rverrors.ErrBusy), errors.Is(err, rverrors.ErrNoJob):
		return http.StatusConflict, msgBusy
	case rverrors.IsTransport(err):
		return http.StatusBadGateway, rverrors.NetworkErrorMessage
	}
	var backendErr *rverrors.BackendError
	if errors.As(err, &backendErr) {
		return http.StatusBadGateway, rverrors.UserMessage(err, msgStartFailed)
	}
	return http.StatusInternalServerError, msgStartFailed
}
