package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgemap-backend/internal/http/response"
	"github.com/yungbote/knowledgemap-backend/internal/services"
)

type TutorHandler struct {
	tutor services.TutorService
}

func NewTutorHandler(tutor services.TutorService) *TutorHandler {
	return &TutorHandler{tutor: tutor}
}

// POST /api/ask
//
// The body is streamed as plain text. Once the model is called, a failure
// arrives as an "[Error: ...]" line in the stream and the status stays 200.
func (h *TutorHandler) Ask(c *gin.Context) {
	var req services.AskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	stream := newTextStream(c)
	err := h.tutor.Ask(c.Request.Context(), req, stream.write)
	if err != nil && !stream.started {
		response.RespondServiceError(c, err)
		return
	}
	if err != nil {
		_ = c.Error(err)
	}
	stream.finish()
}

// POST /api/summarize_chat
func (h *TutorHandler) SummarizeChat(c *gin.Context) {
	var req services.SummarizeChatInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, h.tutor.SummarizeChat(c.Request.Context(), req))
}
