package store

import (
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

/*
Store owns the persisted representation of courses, annotations, knowledge
graphs and generation tasks.

Courses, annotations and graphs are cached in process. The cache is filled
lazily on first read and every mutator writes the database before touching the
cache, all under mu, so a caller always observes its own writes. Reads hand out
deep copies.

Tasks are not cached: the scheduler polls the table and pause/resume/delete
calls from the API must be visible to it immediately.

The store does not serialize concurrent writers of the same course across
callers. The pipeline guarantees a single in-flight iteration per task.
*/
type Store struct {
	db  *gorm.DB
	log *logger.Logger

	mu                sync.Mutex
	courses           map[string]*course.Course
	annotations       []course.Annotation
	annotationsLoaded bool
	graphs            map[string]*course.KnowledgeGraph
}

func New(db *gorm.DB, baseLog *logger.Logger) *Store {
	return &Store{
		db:      db,
		log:     baseLog.With("component", "CourseStore"),
		courses: map[string]*course.Course{},
		graphs:  map[string]*course.KnowledgeGraph{},
	}
}

// DB exposes the underlying handle for collectors that query aggregate state.
func (s *Store) DB() *gorm.DB { return s.db }

// InvalidateCache drops every cached entry. The next read reloads from the database.
func (s *Store) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = map[string]*course.Course{}
	s.graphs = map[string]*course.KnowledgeGraph{}
	s.annotations = nil
	s.annotationsLoaded = false
}
