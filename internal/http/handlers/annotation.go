package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgemap-backend/internal/http/response"
	"github.com/yungbote/knowledgemap-backend/internal/services"
)

type AnnotationHandler struct {
	annotations services.AnnotationService
}

func NewAnnotationHandler(annotations services.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{annotations: annotations}
}

// POST /api/annotations
func (h *AnnotationHandler) Save(c *gin.Context) {
	var req services.SaveAnnotationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.annotations.Save(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// PUT /api/annotations/:id
func (h *AnnotationHandler) Update(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.annotations.Update(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// DELETE /api/annotations/:id
func (h *AnnotationHandler) Delete(c *gin.Context) {
	if err := h.annotations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondSuccess(c)
}

// GET /api/nodes/:node_id/annotations
func (h *AnnotationHandler) ByNode(c *gin.Context) {
	out, err := h.annotations.ByNode(c.Request.Context(), c.Param("node_id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/courses/:id/annotations
func (h *AnnotationHandler) ByCourse(c *gin.Context) {
	out, err := h.annotations.ByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}
