package services

import (
	"context"

	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
	"github.com/yungbote/knowledgemap-backend/internal/jobs/runtime"
	"github.com/yungbote/knowledgemap-backend/internal/realtime"
)

// TaskNotifier publishes task transitions on the course channel.
type TaskNotifier interface {
	runtime.Notifier
	TaskCreated(task *jobs.CourseTask)
	TaskPaused(task *jobs.CourseTask)
	TaskResumed(task *jobs.CourseTask)
}

type taskNotifier struct {
	emitter SSEEmitter
}

func NewTaskNotifier(emitter SSEEmitter) TaskNotifier {
	return &taskNotifier{emitter: emitter}
}

func (n *taskNotifier) emit(event realtime.SSEEvent, task *jobs.CourseTask) {
	if n == nil || n.emitter == nil || task == nil {
		return
	}
	n.emitter.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.CourseChannel(task.CourseID),
		Event:   event,
		Data: map[string]any{
			"task_id":   task.ID,
			"course_id": task.CourseID,
			"status":    task.Status,
			"stage":     task.Stage,
			"progress":  task.Progress,
			"message":   task.Message,
			"error":     task.Error,
			"task":      task,
		},
	})
}

func (n *taskNotifier) TaskCreated(task *jobs.CourseTask)   { n.emit(realtime.SSEEventTaskCreated, task) }
func (n *taskNotifier) TaskProgress(task *jobs.CourseTask)  { n.emit(realtime.SSEEventTaskProgress, task) }
func (n *taskNotifier) TaskCompleted(task *jobs.CourseTask) { n.emit(realtime.SSEEventTaskCompleted, task) }
func (n *taskNotifier) TaskFailed(task *jobs.CourseTask)    { n.emit(realtime.SSEEventTaskFailed, task) }
func (n *taskNotifier) TaskPaused(task *jobs.CourseTask)    { n.emit(realtime.SSEEventTaskPaused, task) }
func (n *taskNotifier) TaskResumed(task *jobs.CourseTask)   { n.emit(realtime.SSEEventTaskResumed, task) }
