package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/data/graph"
	"github.com/yungbote/knowledgemap-backend/internal/data/store"
	"github.com/yungbote/knowledgemap-backend/internal/data/testutil"
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm/llmtest"
)

type env struct {
	store *store.Store
	fake  *llmtest.Fake
	gen   *authoring.Generator
}

func newEnv(t *testing.T, fake *llmtest.Fake) *env {
	t.Helper()
	if fake == nil {
		fake = &llmtest.Fake{}
	}
	log := testutil.Logger(t)
	return &env{
		store: store.New(testutil.DB(t), log),
		fake:  fake,
		gen:   authoring.NewGenerator(fake, log),
	}
}

func (e *env) courses(t *testing.T) CourseService {
	return NewCourseService(testutil.Logger(t), e.store, e.gen, graph.NewMirror(nil, testutil.Logger(t)))
}

func (e *env) seed(t *testing.T, c *course.Course) {
	t.Helper()
	require.NoError(t, e.store.SaveCourse(context.Background(), c))
}

func (e *env) load(t *testing.T, courseID string) *course.Course {
	t.Helper()
	c, err := e.store.LoadCourse(context.Background(), courseID)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func goCourse() *course.Course {
	return testutil.Course("c1", "Go",
		testutil.Chapter("ch1", "Basics"),
		testutil.Section("s1", "ch1", "Syntax", "body"),
		testutil.Chapter("ch2", "Concurrency"),
	)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) add(kind string, t *jobs.CourseTask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+t.Status)
}

func (r *recordingNotifier) TaskCreated(t *jobs.CourseTask)   { r.add("created", t) }
func (r *recordingNotifier) TaskProgress(t *jobs.CourseTask)  { r.add("progress", t) }
func (r *recordingNotifier) TaskCompleted(t *jobs.CourseTask) { r.add("completed", t) }
func (r *recordingNotifier) TaskFailed(t *jobs.CourseTask)    { r.add("failed", t) }
func (r *recordingNotifier) TaskPaused(t *jobs.CourseTask)    { r.add("paused", t) }
func (r *recordingNotifier) TaskResumed(t *jobs.CourseTask)   { r.add("resumed", t) }

func (r *recordingNotifier) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
