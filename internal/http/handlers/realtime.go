package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgemap-backend/internal/http/response"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
	"github.com/yungbote/knowledgemap-backend/internal/realtime"
)

type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{Log: log.With("handler", "RealtimeHandler"), Hub: hub}
}

// GET /api/events/stream?course_id=
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	courseID := strings.TrimSpace(c.Query("course_id"))
	if courseID == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_course_id", errors.New("course_id is required"))
		return
	}

	client := h.Hub.NewSSEClient()
	h.Hub.AddChannel(client, realtime.CourseChannel(courseID))
	h.Log.Debug("SSEStream open", "course_id", courseID, "client_id", client.ID.String())

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.Hub.CloseClient(client)
}
