package app

import (
	server "github.com/yungbote/knowledgemap-backend/internal/http"
	"github.com/yungbote/knowledgemap-backend/internal/observability"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, h Handlers, metrics *observability.Metrics) *server.Server {
	log.Info("Wiring router...")
	return server.NewServer(server.RouterConfig{
		Log:                   log,
		ServiceName:           cfg.Otel.ServiceName,
		CORSOrigins:           cfg.CORSOrigins,
		Metrics:               metrics,
		HealthHandler:         h.Health,
		CourseHandler:         h.Course,
		TaskHandler:           h.Task,
		AnnotationHandler:     h.Annotation,
		TutorHandler:          h.Tutor,
		KnowledgeGraphHandler: h.KnowledgeGraph,
		RealtimeHandler:       h.Realtime,
	})
}
