package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/data/graph"
	"github.com/yungbote/knowledgemap-backend/internal/data/store"
	"github.com/yungbote/knowledgemap-backend/internal/data/testutil"
	httpH "github.com/yungbote/knowledgemap-backend/internal/http/handlers"
	"github.com/yungbote/knowledgemap-backend/internal/memory"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/observability"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm/llmtest"
	"github.com/yungbote/knowledgemap-backend/internal/realtime"
	"github.com/yungbote/knowledgemap-backend/internal/services"
)

func newTestRouter(t *testing.T, fake *llmtest.Fake) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if fake == nil {
		fake = &llmtest.Fake{}
	}
	log := testutil.Logger(t)
	st := store.New(testutil.DB(t), log)
	gen := authoring.NewGenerator(fake, log)
	mirror := graph.NewMirror(nil, log)
	hub := realtime.NewSSEHub(log)
	notify := services.NewTaskNotifier(&services.HubEmitter{Hub: hub})
	asm := memory.NewAssembler(st, st, gen, log)

	r := NewRouter(RouterConfig{
		Log:                   log,
		Metrics:               observability.NewMetrics(),
		HealthHandler:         httpH.NewHealthHandler(),
		CourseHandler:         httpH.NewCourseHandler(services.NewCourseService(log, st, gen, mirror)),
		TaskHandler:           httpH.NewTaskHandler(services.NewTaskService(log, st, notify)),
		AnnotationHandler:     httpH.NewAnnotationHandler(services.NewAnnotationService(log, st, gen)),
		TutorHandler:          httpH.NewTutorHandler(services.NewTutorService(log, fake, gen, asm)),
		KnowledgeGraphHandler: httpH.NewKnowledgeGraphHandler(services.NewKnowledgeGraphService(log, st, gen, mirror)),
		RealtimeHandler:       httpH.NewRealtimeHandler(log, hub),
	})

	require.NoError(t, st.SaveCourse(context.Background(), testutil.Course("c1", "Go",
		testutil.Chapter("ch1", "Basics"),
		testutil.Section("s1", "ch1", "Syntax", "body"),
	)))
	return r, st
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(r, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "KnowledgeMap AI API", decode(t, w)["message"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestGetCourseNotFoundEnvelope(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/api/courses/c1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Go", decode(t, w)["course_name"])

	w = do(r, http.MethodGet, "/api/courses/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "course_not_found", env["code"])
}

func TestGenerateCourseRequiresKeyword(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(r, http.MethodPost, "/api/generate_course", `{"keyword":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/generate_course", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocateWithoutMatchIsEmptyObject(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(r, http.MethodPost, "/api/courses/c1/locate", `{"keyword":"nothing like it"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestDeleteNodeRoute(t *testing.T) {
	r, st := newTestRouter(t, nil)
	w := do(r, http.MethodDelete, "/api/courses/c1/nodes/ch1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode(t, w)["status"])

	c, err := st.LoadCourse(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, c.Nodes)
}

func TestTaskRoutes(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/api/courses/c1/task", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "none", decode(t, w)["status"])

	w = do(r, http.MethodPost, "/api/courses/c1/auto_generate", "")
	require.Equal(t, http.StatusOK, w.Code)
	first := decode(t, w)
	taskID, _ := first["task_id"].(string)
	require.NotEmpty(t, taskID)
	assert.Equal(t, true, first["created"])

	w = do(r, http.MethodPost, "/api/courses/c1/auto_generate", "")
	again := decode(t, w)
	assert.Equal(t, taskID, again["task_id"])
	assert.Equal(t, false, again["created"])

	w = do(r, http.MethodPost, "/api/tasks/"+taskID+"/pause", "")
	require.Equal(t, http.StatusOK, w.Code)
	task := decode(t, w)["task"].(map[string]any)
	assert.Equal(t, "paused", task["status"])

	w = do(r, http.MethodGet, "/api/tasks?limit=abc", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = do(r, http.MethodDelete, "/api/tasks/failed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["cleared"])

	w = do(r, http.MethodDelete, "/api/tasks/"+taskID, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodGet, "/api/tasks/"+taskID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/api/courses/missing/auto_generate", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAskStreamsPlainText(t *testing.T) {
	answer := "Syntax is grammar.\n\n---METADATA---\n{\"node_id\":\"s1\"}"
	r, _ := newTestRouter(t, &llmtest.Fake{Text: answer})

	w := do(r, http.MethodPost, "/api/ask", `{"course_id":"c1","node_id":"s1","question":"what?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, answer, w.Body.String())

	w = do(r, http.MethodPost, "/api/ask", `{"question":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamFailureUsesInlineMarker(t *testing.T) {
	r, _ := newTestRouter(t, &llmtest.Fake{Err: errors.New("llm down")})

	w := do(r, http.MethodPost, "/api/ask", `{"course_id":"c1","node_id":"s1","question":"what?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "\n[Error: llm down]", w.Body.String())

	// failures before the model is called still get the JSON envelope
	w = do(r, http.MethodPost, "/api/courses/missing/nodes/s1/redefine_stream", `{"user_requirement":"simpler"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "course_not_found", decode(t, w)["error"].(map[string]any)["code"])
}

func TestGenerateQuizWithoutNode(t *testing.T) {
	r, _ := newTestRouter(t, &llmtest.Fake{Text: `[{"question":"What does := do?","options":["a","b","c","d"],"correct_index":2}]`})

	w := do(r, http.MethodPost, "/api/generate_quiz", `{"node_content":"short variable declarations","question_count":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	var qs []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &qs))
	require.Len(t, qs, 1)
	assert.Equal(t, "What does := do?", qs[0]["question"])
	assert.EqualValues(t, 2, qs[0]["correct_index"])
}

func TestAnnotationRoutes(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/annotations", `{"node_id":"s1","question":"q","answer":"short","anno_summary":"mine"}`)
	require.Equal(t, http.StatusOK, w.Code)
	id, _ := decode(t, w)["anno_id"].(string)
	require.NotEmpty(t, id)

	w = do(r, http.MethodGet, "/api/courses/c1/annotations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = do(r, http.MethodDelete, "/api/annotations/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodDelete, "/api/annotations/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestKnowledgeGraphNotCachedYet(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(r, http.MethodGet, "/api/courses/c1/knowledge_graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, "success", body["status"])
}

func TestEventsStreamRequiresCourse(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(r, http.MethodGet, "/api/events/stream", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	do(r, http.MethodGet, "/api/health", "")
	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "km_")
}
