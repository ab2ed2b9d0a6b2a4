package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgemap-backend/internal/http/response"
	"github.com/yungbote/knowledgemap-backend/internal/services"
)

type KnowledgeGraphHandler struct {
	graphs services.KnowledgeGraphService
}

func NewKnowledgeGraphHandler(graphs services.KnowledgeGraphService) *KnowledgeGraphHandler {
	return &KnowledgeGraphHandler{graphs: graphs}
}

// POST /api/courses/:id/knowledge_graph
func (h *KnowledgeGraphHandler) Generate(c *gin.Context) {
	g, err := h.graphs.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "success", "data": g})
}

// GET /api/courses/:id/knowledge_graph
func (h *KnowledgeGraphHandler) Get(c *gin.Context) {
	g, cached, err := h.graphs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "success", "data": g, "cached": cached})
}
