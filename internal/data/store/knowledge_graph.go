package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
)

func (s *Store) SaveKnowledgeGraph(ctx context.Context, courseID string, g *course.KnowledgeGraph) error {
	if g == nil {
		return fmt.Errorf("save knowledge graph %s: nil graph", courseID)
	}
	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode knowledge graph %s: %w", courseID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := course.KnowledgeGraphRecord{CourseID: courseID, Payload: datatypes.JSON(payload)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save knowledge graph %s: %w", courseID, err)
	}
	s.graphs[courseID] = cloneGraph(g)
	return nil
}

// LoadKnowledgeGraph returns nil when no graph was generated for the course.
func (s *Store) LoadKnowledgeGraph(ctx context.Context, courseID string) (*course.KnowledgeGraph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.graphs[courseID]; ok {
		return cloneGraph(g), nil
	}

	var rec course.KnowledgeGraphRecord
	err := s.db.WithContext(ctx).Where("course_id = ?", courseID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load knowledge graph %s: %w", courseID, err)
	}
	var g course.KnowledgeGraph
	if err := json.Unmarshal(rec.Payload, &g); err != nil {
		s.log.Warn("Corrupt knowledge graph record, treating as missing", "course_id", courseID, "error", err)
		return nil, nil
	}
	s.graphs[courseID] = &g
	return cloneGraph(&g), nil
}

func cloneGraph(g *course.KnowledgeGraph) *course.KnowledgeGraph {
	out := &course.KnowledgeGraph{
		Nodes: append([]course.GraphNode(nil), g.Nodes...),
		Edges: append([]course.GraphEdge(nil), g.Edges...),
	}
	return out
}
