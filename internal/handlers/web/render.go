package web

import (
	"net/http"

	"reconview/pkg/logger"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func isPartial(c *gin.Context) bool {
	return c.GetHeader("HX-Request") != ""
}

func render(c *gin.Context, log *logger.Logger, status int, component templ.Component) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		log.WithContext(c.Request.Context()).WithError(err).Error("Failed to render template")
		if !c.Writer.Written() {
			c.Status(http.StatusInternalServerError)
		}
	}
}
