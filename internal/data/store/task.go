package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
	"github.com/yungbote/knowledgemap-backend/internal/pkg/dbctx"
)

// CreateTask inserts a pending course_build task unless the caller filled in
// the fields already.
func (s *Store) CreateTask(dbc dbctx.Context, task *jobs.CourseTask) (*jobs.CourseTask, error) {
	if task == nil || strings.TrimSpace(task.CourseID) == "" {
		return nil, fmt.Errorf("create task: missing course_id")
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.TaskType == "" {
		task.TaskType = jobs.TaskTypeCourseBuild
	}
	if task.Status == "" {
		task.Status = jobs.StatusPending
	}
	if task.Stage == "" {
		task.Stage = jobs.StageQueued
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if err := dbc.Conn(s.db).Create(task).Error; err != nil {
		return nil, fmt.Errorf("create task for course %s: %w", task.CourseID, err)
	}
	return task, nil
}

// GetTask returns nil when the task does not exist.
func (s *Store) GetTask(dbc dbctx.Context, id string) (*jobs.CourseTask, error) {
	if id == "" {
		return nil, nil
	}
	var task jobs.CourseTask
	err := dbc.Conn(s.db).Where("id = ?", id).Take(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns tasks ordered by status priority (running, pending,
// paused, failed, completed), newest first within a status. limit <= 0 means all.
func (s *Store) ListTasks(dbc dbctx.Context, limit int) ([]*jobs.CourseTask, error) {
	var out []*jobs.CourseTask
	if err := dbc.Conn(s.db).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return jobs.StatusPriority(out[i].Status) < jobs.StatusPriority(out[j].Status)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListTasksByCourse(dbc dbctx.Context, courseID string) ([]*jobs.CourseTask, error) {
	var out []*jobs.CourseTask
	err := dbc.Conn(s.db).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LatestTaskForCourse returns the newest task of the course, or nil.
func (s *Store) LatestTaskForCourse(dbc dbctx.Context, courseID string) (*jobs.CourseTask, error) {
	var out []*jobs.CourseTask
	err := dbc.Conn(s.db).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// ActiveTaskForCourse returns the newest task of the course that is not
// terminal (pending, running or paused), or nil.
func (s *Store) ActiveTaskForCourse(dbc dbctx.Context, courseID string) (*jobs.CourseTask, error) {
	var out []*jobs.CourseTask
	err := dbc.Conn(s.db).
		Where("course_id = ? AND status IN ?", courseID, []string{jobs.StatusPending, jobs.StatusRunning, jobs.StatusPaused}).
		Order("created_at DESC").
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// ListRunnableTasks returns pending or running tasks, stalest first, skipping
// ids in exclude.
func (s *Store) ListRunnableTasks(dbc dbctx.Context, exclude []string, limit int) ([]*jobs.CourseTask, error) {
	q := dbc.Conn(s.db).
		Where("status IN ?", []string{jobs.StatusPending, jobs.StatusRunning})
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*jobs.CourseTask
	if err := q.Order("updated_at ASC").Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UpdateTaskFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	if id == "" {
		return nil
	}
	updates = withUpdatedAt(updates)
	return dbc.Conn(s.db).
		Model(&jobs.CourseTask{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateTaskFieldsIfStatus applies updates only while the task is in one of
// allowedStatuses. It reports whether a row changed.
func (s *Store) UpdateTaskFieldsIfStatus(dbc dbctx.Context, id string, allowedStatuses []string, updates map[string]interface{}) (bool, error) {
	if id == "" || len(allowedStatuses) == 0 {
		return false, nil
	}
	updates = withUpdatedAt(updates)
	res := dbc.Conn(s.db).
		Model(&jobs.CourseTask{}).
		Where("id = ? AND status IN ?", id, allowedStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateTaskFieldsUnlessStatus applies updates unless the task is in one of
// disallowedStatuses. It reports whether a row changed.
func (s *Store) UpdateTaskFieldsUnlessStatus(dbc dbctx.Context, id string, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	if id == "" {
		return false, nil
	}
	updates = withUpdatedAt(updates)
	q := dbc.Conn(s.db).
		Model(&jobs.CourseTask{}).
		Where("id = ?", id)
	if len(disallowedStatuses) == 1 {
		q = q.Where("status <> ?", disallowedStatuses[0])
	} else if len(disallowedStatuses) > 1 {
		q = q.Where("status NOT IN ?", disallowedStatuses)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) DeleteTask(dbc dbctx.Context, id string) (bool, error) {
	res := dbc.Conn(s.db).Where("id = ?", id).Delete(&jobs.CourseTask{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) DeleteTasksByStatus(dbc dbctx.Context, status string) (int64, error) {
	res := dbc.Conn(s.db).Where("status = ?", status).Delete(&jobs.CourseTask{})
	return res.RowsAffected, res.Error
}

func (s *Store) DeleteTasksByCourse(dbc dbctx.Context, courseID string) (int64, error) {
	res := dbc.Conn(s.db).Where("course_id = ?", courseID).Delete(&jobs.CourseTask{})
	return res.RowsAffected, res.Error
}

// CountTasksByStatus feeds the task queue gauge.
func (s *Store) CountTasksByStatus(dbc dbctx.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := dbc.Conn(s.db).
		Model(&jobs.CourseTask{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func withUpdatedAt(updates map[string]interface{}) map[string]interface{} {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return updates
}
