package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgemap-backend/internal/observability"
)

// Metrics serves the Prometheus text exposition.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.WriteHTTP(c.Writer, c.Request)
	}
}
