package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgemap-backend/internal/http/response"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/services"
)

type CourseHandler struct {
	courses services.CourseService
}

func NewCourseHandler(courses services.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	out, err := h.courses.List(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	out, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// DELETE /api/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondSuccess(c)
}

type generateCourseRequest struct {
	Keyword      string `json:"keyword"`
	Difficulty   string `json:"difficulty"`
	Style        string `json:"style"`
	Requirements string `json:"requirements"`
}

// POST /api/generate_course
func (h *CourseHandler) GenerateCourse(c *gin.Context) {
	var req generateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.courses.Generate(c.Request.Context(), authoring.CourseRequest{
		Keyword:      req.Keyword,
		Difficulty:   req.Difficulty,
		Style:        req.Style,
		Requirements: req.Requirements,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/courses/:id/nodes
func (h *CourseHandler) AddNode(c *gin.Context) {
	var req services.AddNodeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.courses.AddNode(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// PUT /api/courses/:id/nodes/:node_id
func (h *CourseHandler) UpdateNode(c *gin.Context) {
	var req services.NodePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.courses.UpdateNode(c.Request.Context(), c.Param("id"), c.Param("node_id"), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// DELETE /api/courses/:id/nodes/:node_id
func (h *CourseHandler) DeleteNode(c *gin.Context) {
	if err := h.courses.DeleteNode(c.Request.Context(), c.Param("id"), c.Param("node_id")); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondSuccess(c)
}

// POST /api/courses/:id/nodes/:node_id/subnodes
func (h *CourseHandler) GenerateSubNodes(c *gin.Context) {
	out, err := h.courses.GenerateSubNodes(c.Request.Context(), c.Param("id"), c.Param("node_id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/courses/:id/nodes/:node_id/redefine
func (h *CourseHandler) Redefine(c *gin.Context) {
	var req services.RedefineInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	content, err := h.courses.Redefine(c.Request.Context(), c.Param("id"), c.Param("node_id"), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"node_content": content})
}

// POST /api/courses/:id/nodes/:node_id/redefine_stream
func (h *CourseHandler) RedefineStream(c *gin.Context) {
	var req services.RedefineInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	stream := newTextStream(c)
	err := h.courses.StreamRedefine(c.Request.Context(), c.Param("id"), c.Param("node_id"), req, stream.write)
	if err != nil && !stream.started {
		response.RespondServiceError(c, err)
		return
	}
	if err != nil {
		_ = c.Error(err)
	}
	stream.finish()
}

// POST /api/courses/:id/nodes/:node_id/extend
func (h *CourseHandler) Extend(c *gin.Context) {
	var req services.ExtendInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	content, err := h.courses.Extend(c.Request.Context(), c.Param("id"), c.Param("node_id"), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"content": content})
}

// POST /api/courses/:id/nodes/:node_id/quiz
func (h *CourseHandler) Quiz(c *gin.Context) {
	var req services.QuizInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, h.courses.Quiz(c.Request.Context(), c.Param("id"), c.Param("node_id"), req))
}

// POST /api/generate_quiz
//
// Same as Quiz for content that is not tied to a stored node.
func (h *CourseHandler) GenerateQuiz(c *gin.Context) {
	var req services.QuizInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	response.RespondOK(c, h.courses.Quiz(c.Request.Context(), "", "", req))
}

// POST /api/courses/:id/locate
func (h *CourseHandler) Locate(c *gin.Context) {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.courses.Locate(c.Request.Context(), c.Param("id"), req.Keyword)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if res == nil {
		response.RespondOK(c, gin.H{})
		return
	}
	response.RespondOK(c, res)
}
