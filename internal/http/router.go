package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/knowledgemap-backend/internal/http/handlers"
	httpMW "github.com/yungbote/knowledgemap-backend/internal/http/middleware"
	"github.com/yungbote/knowledgemap-backend/internal/observability"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	HealthHandler         *httpH.HealthHandler
	CourseHandler         *httpH.CourseHandler
	TaskHandler           *httpH.TaskHandler
	AnnotationHandler     *httpH.AnnotationHandler
	TutorHandler          *httpH.TutorHandler
	KnowledgeGraphHandler *httpH.KnowledgeGraphHandler
	RealtimeHandler       *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "knowledgemap-backend"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(log))
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
		r.GET("/metrics", httpH.Metrics(cfg.Metrics))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	api := r.Group("/api")

	if cfg.HealthHandler != nil {
		api.GET("/health", cfg.HealthHandler.HealthCheck)
	}

	// Courses
	if cfg.CourseHandler != nil {
		api.GET("/courses", cfg.CourseHandler.ListCourses)
		api.POST("/generate_course", cfg.CourseHandler.GenerateCourse)
		api.GET("/courses/:id", cfg.CourseHandler.GetCourse)
		api.DELETE("/courses/:id", cfg.CourseHandler.DeleteCourse)
		api.POST("/courses/:id/locate", cfg.CourseHandler.Locate)

		api.POST("/courses/:id/nodes", cfg.CourseHandler.AddNode)
		api.PUT("/courses/:id/nodes/:node_id", cfg.CourseHandler.UpdateNode)
		api.DELETE("/courses/:id/nodes/:node_id", cfg.CourseHandler.DeleteNode)
		api.POST("/courses/:id/nodes/:node_id/subnodes", cfg.CourseHandler.GenerateSubNodes)
		api.POST("/courses/:id/nodes/:node_id/redefine", cfg.CourseHandler.Redefine)
		api.POST("/courses/:id/nodes/:node_id/redefine_stream", cfg.CourseHandler.RedefineStream)
		api.POST("/courses/:id/nodes/:node_id/extend", cfg.CourseHandler.Extend)
		api.POST("/courses/:id/nodes/:node_id/quiz", cfg.CourseHandler.Quiz)
		api.POST("/generate_quiz", cfg.CourseHandler.GenerateQuiz)
	}

	if cfg.KnowledgeGraphHandler != nil {
		api.POST("/courses/:id/knowledge_graph", cfg.KnowledgeGraphHandler.Generate)
		api.GET("/courses/:id/knowledge_graph", cfg.KnowledgeGraphHandler.Get)
	}

	// Annotations
	if cfg.AnnotationHandler != nil {
		api.GET("/courses/:id/annotations", cfg.AnnotationHandler.ByCourse)
		api.GET("/nodes/:node_id/annotations", cfg.AnnotationHandler.ByNode)
		api.POST("/annotations", cfg.AnnotationHandler.Save)
		api.PUT("/annotations/:id", cfg.AnnotationHandler.Update)
		api.DELETE("/annotations/:id", cfg.AnnotationHandler.Delete)
	}

	// Tutor
	if cfg.TutorHandler != nil {
		api.POST("/ask", cfg.TutorHandler.Ask)
		api.POST("/summarize_chat", cfg.TutorHandler.SummarizeChat)
	}

	// Tasks
	if cfg.TaskHandler != nil {
		api.POST("/courses/:id/auto_generate", cfg.TaskHandler.AutoGenerate)
		api.GET("/courses/:id/task", cfg.TaskHandler.LatestForCourse)
		api.GET("/courses/:id/tasks", cfg.TaskHandler.ListForCourse)
		api.GET("/tasks", cfg.TaskHandler.List)
		api.DELETE("/tasks/failed", cfg.TaskHandler.ClearFailed)
		api.GET("/tasks/:id", cfg.TaskHandler.Get)
		api.DELETE("/tasks/:id", cfg.TaskHandler.Delete)
		api.POST("/tasks/:id/pause", cfg.TaskHandler.Pause)
		api.POST("/tasks/:id/resume", cfg.TaskHandler.Resume)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		api.GET("/events/stream", cfg.RealtimeHandler.SSEStream)
	}

	return r
}
