package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
	"github.com/yungbote/knowledgemap-backend/internal/jobs/runtime"
	"github.com/yungbote/knowledgemap-backend/internal/observability"
	"github.com/yungbote/knowledgemap-backend/internal/pkg/dbctx"
	"github.com/yungbote/knowledgemap-backend/internal/platform/envutil"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

// TaskSource is what the scheduler needs from the task table.
type TaskSource interface {
	runtime.TaskRepo
	ListRunnableTasks(dbc dbctx.Context, exclude []string, limit int) ([]*jobs.CourseTask, error)
}

type Config struct {
	MaxConcurrent int
	PollInterval  time.Duration
	MaxRetries    int
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 5,
		PollInterval:  200 * time.Millisecond,
		MaxRetries:    runtime.DefaultMaxRetries,
	}
}

func ConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		MaxConcurrent: envutil.Int("TASK_MAX_CONCURRENT", def.MaxConcurrent),
		PollInterval:  envutil.Millis("TASK_POLL_INTERVAL_MS", def.PollInterval),
		MaxRetries:    envutil.Int("TASK_MAX_RETRIES", def.MaxRetries),
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = def.MaxRetries
	}
	return c
}

/*
Worker is the process-wide scheduler. Each tick it fills free slots with
runnable tasks that are not already in flight and runs one iteration of each
in its own goroutine. A task is never run by two iterations at once.

Iteration errors and recovered panics go through the retry policy in
runtime.Context.RecordFailure. Errors caused by shutdown are not counted.
*/
type Worker struct {
	log      *logger.Logger
	repo     TaskSource
	registry *runtime.Registry
	notify   runtime.Notifier
	cfg      Config

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(baseLog *logger.Logger, repo TaskSource, registry *runtime.Registry, notify runtime.Notifier, cfg Config) *Worker {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Worker{
		log:      baseLog.With("component", "TaskWorker"),
		repo:     repo,
		registry: registry,
		notify:   notify,
		cfg:      cfg.normalized(),
		inflight: make(map[string]struct{}),
	}
}

// Start launches the polling loop. It returns immediately; call Stop to end it.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.done != nil {
		w.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	w.log.Info("Starting task worker",
		"max_concurrent", w.cfg.MaxConcurrent,
		"poll_interval", w.cfg.PollInterval.String(),
		"task_types", w.registry.Types(),
	)
	go w.runLoop(loopCtx, done)
}

// Stop cancels the loop and waits for in-flight iterations to return.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.wg.Wait()
	w.log.Info("Task worker stopped")
}

func (w *Worker) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		w.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick launches up to one iteration per free slot and reports how many it started.
func (w *Worker) tick(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	exclude, free := w.slots()
	if free <= 0 {
		return 0
	}
	tasks, err := w.repo.ListRunnableTasks(dbctx.Of(ctx), exclude, free)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("ListRunnableTasks failed", "error", err)
		}
		return 0
	}
	started := 0
	for _, task := range tasks {
		if task == nil || !w.acquire(task.ID) {
			continue
		}
		started++
		w.wg.Add(1)
		go w.runIteration(ctx, task)
	}
	return started
}

func (w *Worker) slots() ([]string, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.inflight))
	for id := range w.inflight {
		ids = append(ids, id)
	}
	return ids, w.cfg.MaxConcurrent - len(w.inflight)
}

func (w *Worker) acquire(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inflight[id]; busy {
		return false
	}
	w.inflight[id] = struct{}{}
	return true
}

func (w *Worker) release(id string) {
	w.mu.Lock()
	delete(w.inflight, id)
	w.mu.Unlock()
}

// Inflight reports how many iterations are running.
func (w *Worker) Inflight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.inflight)
}

func (w *Worker) runIteration(ctx context.Context, task *jobs.CourseTask) {
	defer w.wg.Done()
	defer w.release(task.ID)

	start := time.Now()
	log := w.log.With("task_id", task.ID, "course_id", task.CourseID, "task_type", task.TaskType)
	jc := runtime.NewContext(ctx, task, w.repo, w.notify, log)

	h, ok := w.registry.Get(task.TaskType)
	if !ok {
		err := &missingHandlerError{TaskType: task.TaskType}
		log.Warn("No handler registered for task_type")
		jc.Fail(err.Error())
		observability.Current().ObserveTaskIteration("failed", time.Since(start))
		return
	}

	err := runHandler(h, jc)
	outcome := "ok"
	switch {
	case err == nil:
	case ctx.Err() != nil:
		// shutdown interrupted the iteration; the task resumes on next start
		outcome = "canceled"
		log.Info("Task iteration interrupted by shutdown", "error", err)
	default:
		outcome = "retry"
		log.Warn("Task iteration failed", "error", err)
		if jc.RecordFailure(err, w.cfg.MaxRetries) {
			outcome = "failed"
			log.Error("Task failed after retries", "error", err)
		}
	}
	observability.Current().ObserveTaskIteration(outcome, time.Since(start))
}

func runHandler(h runtime.Handler, jc *runtime.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			jc.Log.Error("Task handler panic", "panic", r)
			err = errFromRecover(r)
		}
	}()
	return h.Run(jc)
}

type missingHandlerError struct{ TaskType string }

func (e *missingHandlerError) Error() string {
	return "no handler registered for task_type=" + e.TaskType
}

func errFromRecover(v any) error { return &panicError{Val: v} }

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
