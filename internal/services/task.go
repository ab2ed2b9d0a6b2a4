package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yungbote/knowledgemap-backend/internal/data/store"
	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
	"github.com/yungbote/knowledgemap-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/knowledgemap-backend/internal/pkg/errors"
	"github.com/yungbote/knowledgemap-backend/internal/platform/apierr"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

const (
	msgWaiting  = "Waiting to start..."
	msgPaused   = "Paused by user"
	msgResuming = "Resuming..."
)

type TaskService interface {
	// AutoGenerate returns the course's active task when there is one,
	// otherwise it creates a pending course_build task. created reports which.
	AutoGenerate(ctx context.Context, courseID string) (task *jobs.CourseTask, created bool, err error)
	// Latest returns nil when the course never had a task.
	Latest(ctx context.Context, courseID string) (*jobs.CourseTask, error)
	ListByCourse(ctx context.Context, courseID string) ([]*jobs.CourseTask, error)
	List(ctx context.Context, limit int) ([]*jobs.CourseTask, error)
	Get(ctx context.Context, taskID string) (*jobs.CourseTask, error)
	Pause(ctx context.Context, taskID string) (*jobs.CourseTask, error)
	Resume(ctx context.Context, taskID string) (*jobs.CourseTask, error)
	Delete(ctx context.Context, taskID string) error
	ClearFailed(ctx context.Context) (int64, error)
}

type taskService struct {
	log    *logger.Logger
	store  *store.Store
	notify TaskNotifier
}

func NewTaskService(baseLog *logger.Logger, st *store.Store, notify TaskNotifier) TaskService {
	return &taskService{
		log:    baseLog.With("service", "TaskService"),
		store:  st,
		notify: notify,
	}
}

func taskNotFound(taskID string) error {
	return apierr.NotFound("task_not_found", "task %s", taskID)
}

func (s *taskService) AutoGenerate(ctx context.Context, courseID string) (*jobs.CourseTask, bool, error) {
	c, err := s.store.LoadCourse(ctx, courseID)
	if err != nil {
		return nil, false, err
	}
	if c == nil {
		return nil, false, courseNotFound(courseID)
	}
	dbc := dbctx.Of(ctx)
	active, err := s.store.ActiveTaskForCourse(dbc, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("active task for course %s: %w", courseID, err)
	}
	if active != nil {
		return active, false, nil
	}
	task, err := s.store.CreateTask(dbc, &jobs.CourseTask{
		CourseID: courseID,
		TaskType: jobs.TaskTypeCourseBuild,
		Status:   jobs.StatusPending,
		Stage:    jobs.StageQueued,
		Message:  msgWaiting,
	})
	if err != nil {
		return nil, false, err
	}
	s.log.Info("Task created", "task_id", task.ID, "course_id", courseID)
	if s.notify != nil {
		s.notify.TaskCreated(task)
	}
	return task, true, nil
}

func (s *taskService) Latest(ctx context.Context, courseID string) (*jobs.CourseTask, error) {
	return s.store.LatestTaskForCourse(dbctx.Of(ctx), courseID)
}

func (s *taskService) ListByCourse(ctx context.Context, courseID string) ([]*jobs.CourseTask, error) {
	return s.store.ListTasksByCourse(dbctx.Of(ctx), courseID)
}

func (s *taskService) List(ctx context.Context, limit int) ([]*jobs.CourseTask, error) {
	return s.store.ListTasks(dbctx.Of(ctx), limit)
}

func (s *taskService) Get(ctx context.Context, taskID string) (*jobs.CourseTask, error) {
	task, err := s.store.GetTask(dbctx.Of(ctx), taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskNotFound(taskID)
	}
	return task, nil
}

// Pause moves a pending or running task to paused. An iteration already in
// flight finishes its batch; the scheduler will not start another.
func (s *taskService) Pause(ctx context.Context, taskID string) (*jobs.CourseTask, error) {
	return s.transition(ctx, taskID,
		[]string{jobs.StatusPending, jobs.StatusRunning},
		jobs.StatusPaused, msgPaused,
		func(t *jobs.CourseTask) { s.notify.TaskPaused(t) },
	)
}

// Resume moves a paused task back to pending.
func (s *taskService) Resume(ctx context.Context, taskID string) (*jobs.CourseTask, error) {
	return s.transition(ctx, taskID,
		[]string{jobs.StatusPaused},
		jobs.StatusPending, msgResuming,
		func(t *jobs.CourseTask) { s.notify.TaskResumed(t) },
	)
}

// transition applies a conditional status change. Asking for the state the
// task is already in returns it unchanged; terminal tasks are a conflict.
func (s *taskService) transition(ctx context.Context, taskID string, from []string, to, msg string, notify func(*jobs.CourseTask)) (*jobs.CourseTask, error) {
	dbc := dbctx.Of(ctx)
	ok, err := s.store.UpdateTaskFieldsIfStatus(dbc, taskID, from, map[string]interface{}{
		"status":  to,
		"message": msg,
	})
	if err != nil {
		return nil, fmt.Errorf("task %s -> %s: %w", taskID, to, err)
	}
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if ok {
		s.log.Info("Task status changed", "task_id", taskID, "status", to)
		if s.notify != nil {
			notify(task)
		}
		return task, nil
	}
	if task.Status == to || (to == jobs.StatusPending && task.Runnable()) {
		return task, nil
	}
	return nil, apierr.New(http.StatusConflict, "task_state_conflict",
		fmt.Errorf("%w: task %s is %s", pkgerrors.ErrConflict, taskID, task.Status))
}

func (s *taskService) Delete(ctx context.Context, taskID string) error {
	ok, err := s.store.DeleteTask(dbctx.Of(ctx), taskID)
	if err != nil {
		return err
	}
	if !ok {
		return taskNotFound(taskID)
	}
	return nil
}

func (s *taskService) ClearFailed(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteTasksByStatus(dbctx.Of(ctx), jobs.StatusFailed)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("Failed tasks cleared", "count", n)
	}
	return n, nil
}
