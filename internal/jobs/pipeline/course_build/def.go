package course_build

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/observability"
	"github.com/yungbote/knowledgemap-backend/internal/platform/envutil"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

// Generator is the slice of authoring.Generator the pipeline drives.
type Generator interface {
	GenerateSubNodes(ctx context.Context, req authoring.SubNodesRequest) ([]course.Node, error)
	GenerateContent(ctx context.Context, req authoring.ContentRequest) (string, error)
}

type CourseStore interface {
	LoadCourse(ctx context.Context, courseID string) (*course.Course, error)
	SaveCourse(ctx context.Context, c *course.Course) error
}

// Policy holds the knobs of structure analysis.
type Policy struct {
	// BatchSize caps the actions of one iteration and the calls in flight.
	BatchSize int
	// ContentCompleteThreshold is the rune count a section body must exceed
	// to count as written.
	ContentCompleteThreshold int
}

func DefaultPolicy() Policy {
	return Policy{BatchSize: 3, ContentCompleteThreshold: 600}
}

func PolicyFromEnv() Policy {
	def := DefaultPolicy()
	return Policy{
		BatchSize:                envutil.Int("TASK_BATCH_SIZE", def.BatchSize),
		ContentCompleteThreshold: envutil.Int("TASK_CONTENT_THRESHOLD", def.ContentCompleteThreshold),
	}.normalized()
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.BatchSize < 1 {
		p.BatchSize = def.BatchSize
	}
	if p.ContentCompleteThreshold < 0 {
		p.ContentCompleteThreshold = def.ContentCompleteThreshold
	}
	return p
}

type CourseBuildPipeline struct {
	log     *logger.Logger
	courses CourseStore
	gen     Generator
	policy  Policy
	tracer  trace.Tracer
}

func NewCourseBuildPipeline(baseLog *logger.Logger, courses CourseStore, gen Generator, policy Policy) *CourseBuildPipeline {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &CourseBuildPipeline{
		log:     baseLog.With("job", "course_build"),
		courses: courses,
		gen:     gen,
		policy:  policy.normalized(),
		tracer:  observability.Tracer("course_build"),
	}
}
