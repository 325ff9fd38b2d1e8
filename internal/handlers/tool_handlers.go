package handlers

import (
	"net/http"

	"reconview/internal/services"

	"github.com/gin-gonic/gin"
)

type ToolHandler struct {
	toolService services.ToolServiceMethods
}

func NewToolHandler(toolService services.ToolServiceMethods) *ToolHandler {
	return &ToolHandler{toolService: toolService}
}

func (h *ToolHandler) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, ToolsResponse{
		Tools:    h.toolService.ListTools(),
		Defaults: h.toolService.DefaultTools(),
	})
}
