package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
)

const annotationSummaryRunes = 50

// ensureAnnotations fills the annotation cache. Callers hold s.mu.
func (s *Store) ensureAnnotations(ctx context.Context) error {
	if s.annotationsLoaded {
		return nil
	}
	var rows []course.Annotation
	if err := s.db.WithContext(ctx).Order("create_time ASC").Find(&rows).Error; err != nil {
		return fmt.Errorf("load annotations: %w", err)
	}
	s.annotations = rows
	s.annotationsLoaded = true
	return nil
}

func (s *Store) filterAnnotations(ctx context.Context, keep func(a course.Annotation) bool) ([]course.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureAnnotations(ctx); err != nil {
		return nil, err
	}
	out := make([]course.Annotation, 0)
	for _, a := range s.annotations {
		if keep == nil || keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// LoadAnnotations returns every annotation in creation order.
func (s *Store) LoadAnnotations(ctx context.Context) ([]course.Annotation, error) {
	return s.filterAnnotations(ctx, nil)
}

func (s *Store) AnnotationsByCourse(ctx context.Context, courseID string) ([]course.Annotation, error) {
	return s.filterAnnotations(ctx, func(a course.Annotation) bool { return a.CourseID == courseID })
}

func (s *Store) AnnotationsByNode(ctx context.Context, nodeID string) ([]course.Annotation, error) {
	return s.filterAnnotations(ctx, func(a course.Annotation) bool { return a.NodeID == nodeID })
}

// AnnotationsByNodes returns annotations attached to any of nodeIDs.
func (s *Store) AnnotationsByNodes(ctx context.Context, nodeIDs []string) ([]course.Annotation, error) {
	want := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		want[id] = true
	}
	return s.filterAnnotations(ctx, func(a course.Annotation) bool { return want[a.NodeID] })
}

// SaveAnnotation upserts a by anno_id.
func (s *Store) SaveAnnotation(ctx context.Context, a *course.Annotation) error {
	if a == nil || strings.TrimSpace(a.AnnoID) == "" {
		return fmt.Errorf("save annotation: missing anno_id")
	}
	if a.CreateTime.IsZero() {
		a.CreateTime = time.Now().UTC()
	}
	if a.SourceType == "" {
		a.SourceType = course.SourceUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureAnnotations(ctx); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "anno_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"node_id", "course_id", "question", "answer", "anno_summary", "source_type", "quote"}),
		}).
		Create(a).Error
	if err != nil {
		return fmt.Errorf("save annotation %s: %w", a.AnnoID, err)
	}
	for i := range s.annotations {
		if s.annotations[i].AnnoID == a.AnnoID {
			created := s.annotations[i].CreateTime
			s.annotations[i] = *a
			s.annotations[i].CreateTime = created
			return nil
		}
	}
	s.annotations = append(s.annotations, *a)
	sort.SliceStable(s.annotations, func(i, j int) bool {
		return s.annotations[i].CreateTime.Before(s.annotations[j].CreateTime)
	})
	return nil
}

// UpdateAnnotation replaces the answer and derives a short summary from it.
// It returns nil when the annotation does not exist.
func (s *Store) UpdateAnnotation(ctx context.Context, annoID, content string) (*course.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureAnnotations(ctx); err != nil {
		return nil, err
	}

	var current course.Annotation
	err := s.db.WithContext(ctx).Where("anno_id = ?", annoID).Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load annotation %s: %w", annoID, err)
	}

	summary := SummaryFromContent(content)
	err = s.db.WithContext(ctx).Model(&course.Annotation{}).
		Where("anno_id = ?", annoID).
		Updates(map[string]interface{}{"answer": content, "anno_summary": summary}).Error
	if err != nil {
		return nil, fmt.Errorf("update annotation %s: %w", annoID, err)
	}
	current.Answer = content
	current.AnnoSummary = summary
	for i := range s.annotations {
		if s.annotations[i].AnnoID == annoID {
			s.annotations[i] = current
		}
	}
	return &current, nil
}

func (s *Store) DeleteAnnotation(ctx context.Context, annoID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureAnnotations(ctx); err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Where("anno_id = ?", annoID).Delete(&course.Annotation{})
	if res.Error != nil {
		return false, fmt.Errorf("delete annotation %s: %w", annoID, res.Error)
	}
	kept := make([]course.Annotation, 0, len(s.annotations))
	for _, a := range s.annotations {
		if a.AnnoID != annoID {
			kept = append(kept, a)
		}
	}
	s.annotations = kept
	return res.RowsAffected > 0, nil
}

// SummaryFromContent keeps short content as is and cuts long content to its
// first 50 characters followed by "...".
func SummaryFromContent(content string) string {
	r := []rune(content)
	if len(r) <= annotationSummaryRunes {
		return content
	}
	return string(r[:annotationSummaryRunes]) + "..."
}
