package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
)

const untitledCourse = "未命名课程"

// LoadCourse returns a copy of the course, or nil when it does not exist or
// its record cannot be decoded. The error is reserved for database failures.
func (s *Store) LoadCourse(ctx context.Context, courseID string) (*course.Course, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.courses[courseID]; ok {
		return c.Clone(), nil
	}

	var rec course.Record
	err := s.db.WithContext(ctx).Where("course_id = ?", courseID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load course %s: %w", courseID, err)
	}

	var c course.Course
	if err := json.Unmarshal(rec.Payload, &c); err != nil {
		s.log.Warn("Corrupt course record, treating as missing", "course_id", courseID, "error", err)
		return nil, nil
	}
	if c.CourseID == "" {
		c.CourseID = rec.CourseID
	}
	s.courses[courseID] = &c
	return c.Clone(), nil
}

// SaveCourse upserts the course and refreshes the cache entry.
func (s *Store) SaveCourse(ctx context.Context, c *course.Course) error {
	if c == nil || strings.TrimSpace(c.CourseID) == "" {
		return fmt.Errorf("save course: missing course_id")
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode course %s: %w", c.CourseID, err)
	}
	rec := course.Record{
		CourseID:   c.CourseID,
		CourseName: c.CourseName,
		NodeCount:  len(c.Nodes),
		Payload:    datatypes.JSON(payload),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"course_name", "node_count", "payload", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save course %s: %w", c.CourseID, err)
	}
	s.courses[c.CourseID] = c.Clone()
	return nil
}

// UpdateCourse applies fn to a fresh copy of the course and saves the result.
// fn returning an error aborts without writing. It returns (nil, nil) when the
// course does not exist.
func (s *Store) UpdateCourse(ctx context.Context, courseID string, fn func(c *course.Course) error) (*course.Course, error) {
	c, err := s.LoadCourse(ctx, courseID)
	if err != nil || c == nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.SaveCourse(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCourse removes the course row together with its annotations and
// knowledge graph. Tasks are removed by the caller.
func (s *Store) DeleteCourse(ctx context.Context, courseID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("course_id = ?", courseID).Delete(&course.Record{})
		if res.Error != nil {
			return res.Error
		}
		existed = res.RowsAffected > 0
		if err := tx.Where("course_id = ?", courseID).Delete(&course.Annotation{}).Error; err != nil {
			return err
		}
		return tx.Where("course_id = ?", courseID).Delete(&course.KnowledgeGraphRecord{}).Error
	})
	if err != nil {
		return false, fmt.Errorf("delete course %s: %w", courseID, err)
	}
	delete(s.courses, courseID)
	delete(s.graphs, courseID)
	if s.annotationsLoaded {
		kept := s.annotations[:0]
		for _, a := range s.annotations {
			if a.CourseID != courseID {
				kept = append(kept, a)
			}
		}
		s.annotations = kept
	}
	return existed, nil
}

// ListCourses reads the listing columns only, newest first.
func (s *Store) ListCourses(ctx context.Context) ([]course.Summary, error) {
	var rows []course.Record
	err := s.db.WithContext(ctx).
		Select("course_id", "course_name", "node_count").
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	out := make([]course.Summary, 0, len(rows))
	for _, r := range rows {
		name := r.CourseName
		if strings.TrimSpace(name) == "" {
			name = untitledCourse
		}
		out = append(out, course.Summary{CourseID: r.CourseID, CourseName: name, NodeCount: r.NodeCount})
	}
	return out, nil
}
