package app

import (
	"fmt"

	"github.com/yungbote/knowledgemap-backend/internal/data/graph"
	"github.com/yungbote/knowledgemap-backend/internal/data/store"
	"github.com/yungbote/knowledgemap-backend/internal/jobs/pipeline/course_build"
	"github.com/yungbote/knowledgemap-backend/internal/jobs/runtime"
	"github.com/yungbote/knowledgemap-backend/internal/jobs/worker"
	"github.com/yungbote/knowledgemap-backend/internal/memory"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
	"github.com/yungbote/knowledgemap-backend/internal/services"
)

type Services struct {
	Courses        services.CourseService
	Tasks          services.TaskService
	Annotations    services.AnnotationService
	Tutor          services.TutorService
	KnowledgeGraph services.KnowledgeGraphService

	Notifier services.TaskNotifier
	Worker   *worker.Worker
}

func wireServices(log *logger.Logger, cfg Config, st *store.Store, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	gen := authoring.NewGenerator(clients.LLM, log)
	mirror := graph.NewMirror(clients.Neo4j, log)
	assembler := memory.NewAssembler(st, st, gen, log)
	notify := services.NewTaskNotifier(&services.BusEmitter{Bus: clients.Bus, Log: log})

	registry := runtime.NewRegistry()
	if err := registry.Register(course_build.NewCourseBuildPipeline(log, st, gen, cfg.Policy)); err != nil {
		return Services{}, fmt.Errorf("register course_build: %w", err)
	}

	return Services{
		Courses:        services.NewCourseService(log, st, gen, mirror),
		Tasks:          services.NewTaskService(log, st, notify),
		Annotations:    services.NewAnnotationService(log, st, gen),
		Tutor:          services.NewTutorService(log, clients.LLM, gen, assembler),
		KnowledgeGraph: services.NewKnowledgeGraphService(log, st, gen, mirror),
		Notifier:       notify,
		Worker:         worker.NewWorker(log, st, registry, notify, cfg.Worker),
	}, nil
}
