package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
	"github.com/yungbote/knowledgemap-backend/internal/pkg/dbctx"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

// DefaultMaxRetries is the failure streak at which a task is failed for good.
const DefaultMaxRetries = 3

// TaskRepo is the slice of the task table a running iteration may touch.
type TaskRepo interface {
	GetTask(dbc dbctx.Context, id string) (*jobs.CourseTask, error)
	UpdateTaskFieldsIfStatus(dbc dbctx.Context, id string, allowedStatuses []string, updates map[string]interface{}) (bool, error)
	UpdateTaskFieldsUnlessStatus(dbc dbctx.Context, id string, disallowedStatuses []string, updates map[string]interface{}) (bool, error)
}

// Notifier receives every persisted task transition.
type Notifier interface {
	TaskProgress(task *jobs.CourseTask)
	TaskCompleted(task *jobs.CourseTask)
	TaskFailed(task *jobs.CourseTask)
}

/*
Context is the execution handle for one iteration of one task.
Pipelines never write the course_task row directly; every transition goes
through Claim, Progress, Complete, Fail or RecordFailure so the guards and
notifications stay in one place.

A terminal row (completed/failed) is never overwritten. A row deleted while
the iteration runs turns every write into a no-op.
*/
type Context struct {
	Ctx    context.Context
	Task   *jobs.CourseTask
	Repo   TaskRepo
	Notify Notifier
	Log    *logger.Logger
}

var terminalStatuses = []string{jobs.StatusCompleted, jobs.StatusFailed}

// A paused task only ever leaves paused through Resume, so status-changing
// writes also skip it.
var settledStatuses = []string{jobs.StatusCompleted, jobs.StatusFailed, jobs.StatusPaused}

func NewContext(ctx context.Context, task *jobs.CourseTask, repo TaskRepo, notify Notifier, log *logger.Logger) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Context{Ctx: ctx, Task: task, Repo: repo, Notify: notify, Log: log}
}

func (c *Context) dbc() dbctx.Context { return dbctx.Context{Ctx: c.Ctx} }

// Claim moves a pending or running task to running. It reports false when the
// task was paused, finished or deleted since it was picked.
func (c *Context) Claim() (bool, error) {
	now := time.Now().UTC()
	ok, err := c.Repo.UpdateTaskFieldsIfStatus(c.dbc(), c.Task.ID,
		[]string{jobs.StatusPending, jobs.StatusRunning},
		map[string]interface{}{"status": jobs.StatusRunning, "updated_at": now})
	if err != nil || !ok {
		return false, err
	}
	c.Task.Status = jobs.StatusRunning
	c.Task.UpdatedAt = now
	return true, nil
}

// Paused re-reads the row and reports whether the task should stop before
// starting more work.
func (c *Context) Paused() bool {
	t, err := c.Repo.GetTask(c.dbc(), c.Task.ID)
	if err != nil {
		c.Log.Warn("task re-read failed", "task_id", c.Task.ID, "error", err)
		return false
	}
	return t == nil || !t.Runnable()
}

// Progress persists a non-terminal update after successful work. progress
// never moves backwards, and the failure streak ends.
func (c *Context) Progress(stage string, progress int, msg string) {
	c.progress(stage, progress, msg, true)
}

// Report is Progress for work that has only started; the failure streak is kept.
func (c *Context) Report(stage string, progress int, msg string) {
	c.progress(stage, progress, msg, false)
}

func (c *Context) progress(stage string, progress int, msg string, succeeded bool) {
	if progress < c.Task.Progress {
		progress = c.Task.Progress
	}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"stage":      stage,
		"progress":   progress,
		"message":    msg,
		"updated_at": now,
	}
	if succeeded && c.Task.FailureStreak > 0 {
		updates["failure_streak"] = 0
	}
	ok, err := c.Repo.UpdateTaskFieldsUnlessStatus(c.dbc(), c.Task.ID, terminalStatuses, updates)
	if err != nil {
		c.Log.Warn("task progress write failed", "task_id", c.Task.ID, "error", err)
		return
	}
	if !ok {
		return
	}
	c.Task.Stage = stage
	c.Task.Progress = progress
	c.Task.Message = msg
	if succeeded {
		c.Task.FailureStreak = 0
	}
	c.Task.UpdatedAt = now
	if c.Notify != nil {
		c.Notify.TaskProgress(c.Task)
	}
}

// Complete marks the task done with progress 100.
func (c *Context) Complete(msg string) {
	now := time.Now().UTC()
	ok, err := c.Repo.UpdateTaskFieldsUnlessStatus(c.dbc(), c.Task.ID, settledStatuses, map[string]interface{}{
		"status":         jobs.StatusCompleted,
		"stage":          jobs.StageDone,
		"progress":       100,
		"message":        msg,
		"error":          "",
		"failure_streak": 0,
		"updated_at":     now,
	})
	if err != nil {
		c.Log.Warn("task completion write failed", "task_id", c.Task.ID, "error", err)
		return
	}
	if !ok {
		return
	}
	c.Task.Status = jobs.StatusCompleted
	c.Task.Stage = jobs.StageDone
	c.Task.Progress = 100
	c.Task.Message = msg
	c.Task.Error = ""
	c.Task.FailureStreak = 0
	c.Task.UpdatedAt = now
	if c.Notify != nil {
		c.Notify.TaskCompleted(c.Task)
	}
}

// Fail marks the task failed without consulting the retry budget.
func (c *Context) Fail(errMsg string) {
	c.fail(errMsg, errMsg, nil)
}

func (c *Context) fail(errMsg, msg string, extra map[string]interface{}) bool {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":     jobs.StatusFailed,
		"error":      errMsg,
		"message":    msg,
		"updated_at": now,
	}
	for k, v := range extra {
		updates[k] = v
	}
	ok, err := c.Repo.UpdateTaskFieldsUnlessStatus(c.dbc(), c.Task.ID, settledStatuses, updates)
	if err != nil {
		c.Log.Warn("task failure write failed", "task_id", c.Task.ID, "error", err)
		return false
	}
	if !ok {
		return false
	}
	c.Task.Status = jobs.StatusFailed
	c.Task.Error = errMsg
	c.Task.Message = msg
	c.Task.UpdatedAt = now
	if c.Notify != nil {
		c.Notify.TaskFailed(c.Task)
	}
	return true
}

// RecordFailure applies the retry policy to a failed iteration. Both
// retry_count and failure_streak grow; once the streak reaches maxRetries the
// task fails. A task paused meanwhile keeps its status and only records the
// counters. It reports whether the task is now failed.
func (c *Context) RecordFailure(iterErr error, maxRetries int) bool {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	cur, err := c.Repo.GetTask(c.dbc(), c.Task.ID)
	if err != nil {
		c.Log.Warn("task re-read failed", "task_id", c.Task.ID, "error", err)
		cur = c.Task
	}
	if cur == nil || cur.Terminal() {
		return cur != nil && cur.Status == jobs.StatusFailed
	}

	errMsg := iterErr.Error()
	retries := cur.RetryCount + 1
	streak := cur.FailureStreak + 1
	c.Task.RetryCount = retries
	c.Task.FailureStreak = streak

	if streak >= maxRetries && cur.Status != jobs.StatusPaused {
		if c.fail(errMsg, fmt.Sprintf("Failed after %d retries: %s", maxRetries, errMsg), map[string]interface{}{
			"retry_count":    retries,
			"failure_streak": streak,
		}) {
			return true
		}
	}

	msg := fmt.Sprintf("Error (Retry %d/%d): %s", streak, maxRetries, errMsg)
	now := time.Now().UTC()
	ok, err := c.Repo.UpdateTaskFieldsUnlessStatus(c.dbc(), c.Task.ID, terminalStatuses, map[string]interface{}{
		"retry_count":    retries,
		"failure_streak": streak,
		"message":        msg,
		"error":          errMsg,
		"updated_at":     now,
	})
	if err != nil {
		c.Log.Warn("task retry write failed", "task_id", c.Task.ID, "error", err)
		return false
	}
	if ok {
		c.Task.Message = msg
		c.Task.Error = errMsg
		c.Task.UpdatedAt = now
		if c.Notify != nil {
			c.Notify.TaskProgress(c.Task)
		}
	}
	return false
}
