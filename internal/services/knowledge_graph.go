package services

import (
	"context"

	"github.com/yungbote/knowledgemap-backend/internal/data/graph"
	"github.com/yungbote/knowledgemap-backend/internal/data/store"
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

type KnowledgeGraphService interface {
	// Generate builds a fresh graph, caches it and mirrors it to Neo4j when
	// a mirror is configured.
	Generate(ctx context.Context, courseID string) (*course.KnowledgeGraph, error)
	// Get returns the cached graph, or an empty graph and cached=false.
	Get(ctx context.Context, courseID string) (g *course.KnowledgeGraph, cached bool, err error)
}

type knowledgeGraphService struct {
	log    *logger.Logger
	store  *store.Store
	gen    *authoring.Generator
	mirror *graph.Mirror
}

func NewKnowledgeGraphService(baseLog *logger.Logger, st *store.Store, gen *authoring.Generator, mirror *graph.Mirror) KnowledgeGraphService {
	return &knowledgeGraphService{
		log:    baseLog.With("service", "KnowledgeGraphService"),
		store:  st,
		gen:    gen,
		mirror: mirror,
	}
}

func (s *knowledgeGraphService) Generate(ctx context.Context, courseID string) (*course.KnowledgeGraph, error) {
	c, err := s.store.LoadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, courseNotFound(courseID)
	}
	g := s.gen.GenerateKnowledgeGraph(ctx, c)
	if err := s.store.SaveKnowledgeGraph(ctx, courseID, g); err != nil {
		return nil, err
	}
	if err := s.mirror.UpsertCourseGraph(ctx, courseID, c.CourseName, g); err != nil {
		// the relational copy is authoritative
		s.log.Warn("graph mirror sync failed", "course_id", courseID, "error", err)
	}
	return g, nil
}

func (s *knowledgeGraphService) Get(ctx context.Context, courseID string) (*course.KnowledgeGraph, bool, error) {
	g, err := s.store.LoadKnowledgeGraph(ctx, courseID)
	if err != nil {
		return nil, false, err
	}
	if g == nil {
		return &course.KnowledgeGraph{Nodes: []course.GraphNode{}, Edges: []course.GraphEdge{}}, false, nil
	}
	return g, true, nil
}
