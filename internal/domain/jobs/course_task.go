package jobs

import "time"

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TaskTypeCourseBuild drives a course tree to completion.
const TaskTypeCourseBuild = "course_build"

const (
	StageQueued   = "queued"
	StageSkeleton = "subsections"
	StageContent  = "content"
	StageDone     = "done"
)

// CourseTask is one "expand this course until nothing is left" run.
//
// RetryCount is cumulative over the task's life. FailureStreak counts
// consecutive failed iterations and is what the retry budget is checked against.
type CourseTask struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	CourseID      string    `gorm:"column:course_id;not null;index" json:"course_id"`
	TaskType      string    `gorm:"column:task_type;not null;index" json:"task_type"`
	Status        string    `gorm:"column:status;not null;index" json:"status"`
	Stage         string    `gorm:"column:stage;not null;default:queued" json:"stage"`
	Progress      int       `gorm:"column:progress;not null;default:0" json:"progress"`
	Message       string    `gorm:"column:message" json:"message"`
	Error         string    `gorm:"column:error" json:"error,omitempty"`
	RetryCount    int       `gorm:"column:retry_count;not null;default:0" json:"retry_count"`
	FailureStreak int       `gorm:"column:failure_streak;not null;default:0" json:"failure_streak"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;index" json:"updated_at"`
}

func (CourseTask) TableName() string { return "course_task" }

// Runnable reports whether the scheduler may pick the task up.
func (t CourseTask) Runnable() bool {
	return t.Status == StatusPending || t.Status == StatusRunning
}

func (t CourseTask) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// StatusPriority orders tasks for listing: active work first, finished last.
func StatusPriority(status string) int {
	switch status {
	case StatusRunning:
		return 0
	case StatusPending:
		return 1
	case StatusPaused:
		return 2
	case StatusFailed:
		return 3
	case StatusCompleted:
		return 4
	default:
		return 5
	}
}
