package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgemap-backend/internal/http/response"
	"github.com/yungbote/knowledgemap-backend/internal/services"
)

const defaultTaskListLimit = 100

type TaskHandler struct {
	tasks services.TaskService
}

func NewTaskHandler(tasks services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// POST /api/courses/:id/auto_generate
func (h *TaskHandler) AutoGenerate(c *gin.Context) {
	task, created, err := h.tasks.AutoGenerate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"task_id": task.ID,
		"status":  task.Status,
		"created": created,
		"task":    task,
	})
}

// GET /api/courses/:id/task
func (h *TaskHandler) LatestForCourse(c *gin.Context) {
	task, err := h.tasks.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if task == nil {
		response.RespondOK(c, gin.H{"status": "none"})
		return
	}
	response.RespondOK(c, task)
}

// GET /api/courses/:id/tasks
func (h *TaskHandler) ListForCourse(c *gin.Context) {
	out, err := h.tasks.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/tasks?limit=
func (h *TaskHandler) List(c *gin.Context) {
	limit := defaultTaskListLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	out, err := h.tasks.List(c.Request.Context(), limit)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, task)
}

// POST /api/tasks/:id/pause
func (h *TaskHandler) Pause(c *gin.Context) {
	task, err := h.tasks.Pause(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "success", "task": task})
}

// POST /api/tasks/:id/resume
func (h *TaskHandler) Resume(c *gin.Context) {
	task, err := h.tasks.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "success", "task": task})
}

// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondSuccess(c)
}

// DELETE /api/tasks/failed
func (h *TaskHandler) ClearFailed(c *gin.Context) {
	n, err := h.tasks.ClearFailed(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "success", "cleared": n})
}
