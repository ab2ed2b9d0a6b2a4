package app

import (
	httpH "github.com/yungbote/knowledgemap-backend/internal/http/handlers"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
	"github.com/yungbote/knowledgemap-backend/internal/realtime"
)

type Handlers struct {
	Health         *httpH.HealthHandler
	Course         *httpH.CourseHandler
	Task           *httpH.TaskHandler
	Annotation     *httpH.AnnotationHandler
	Tutor          *httpH.TutorHandler
	KnowledgeGraph *httpH.KnowledgeGraphHandler
	Realtime       *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, svc Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(),
		Course:         httpH.NewCourseHandler(svc.Courses),
		Task:           httpH.NewTaskHandler(svc.Tasks),
		Annotation:     httpH.NewAnnotationHandler(svc.Annotations),
		Tutor:          httpH.NewTutorHandler(svc.Tutor),
		KnowledgeGraph: httpH.NewKnowledgeGraphHandler(svc.KnowledgeGraph),
		Realtime:       httpH.NewRealtimeHandler(log, hub),
	}
}
