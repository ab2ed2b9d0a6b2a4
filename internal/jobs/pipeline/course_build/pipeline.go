package course_build

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
	"github.com/yungbote/knowledgemap-backend/internal/jobs/runtime"
)

const (
	msgCourseNotFound = "Course not found"
	msgAllCompleted   = "All steps completed"
)

func (p *CourseBuildPipeline) Type() string { return jobs.TaskTypeCourseBuild }

// Run performs one iteration: claim, analyze, dispatch one batch, merge and
// report. The worker calls it again until the task leaves pending/running.
// A returned error counts against the task's retry budget.
func (p *CourseBuildPipeline) Run(jc *runtime.Context) error {
	if jc == nil || jc.Task == nil {
		return nil
	}
	ok, err := jc.Claim()
	if err != nil {
		return fmt.Errorf("claim task: %w", err)
	}
	if !ok {
		return nil
	}

	ctx, span := p.tracer.Start(jc.Ctx, "course_build.iteration")
	defer span.End()
	span.SetAttributes(
		attribute.String("task.id", jc.Task.ID),
		attribute.String("course.id", jc.Task.CourseID),
	)

	if err := p.iterate(ctx, jc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *CourseBuildPipeline) iterate(ctx context.Context, jc *runtime.Context) error {
	courseID := jc.Task.CourseID
	c, err := p.courses.LoadCourse(ctx, courseID)
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	if c == nil {
		jc.Fail(msgCourseNotFound)
		return nil
	}

	plan := Analyze(c, p.policy)
	if plan.Done() {
		jc.Complete(msgAllCompleted)
		p.log.Info("Course generation finished", "course_id", courseID, "task_id", jc.Task.ID)
		return nil
	}

	// pause is cooperative: checked once more before any call goes out
	if jc.Paused() {
		return nil
	}

	before := Measure(c, p.policy)
	jc.Report(plan.Stage, before.Percent(), formatMessage(startedPrefix(plan.Stage), actionNames(plan.Actions), before))

	results := p.dispatch(ctx, c, plan)
	if err := allFailed(results); err != nil {
		return err
	}

	// finished calls are kept even when shutdown began meanwhile
	merged, applied, err := p.merge(context.WithoutCancel(ctx), courseID, results)
	if err != nil {
		return err
	}
	if merged == nil {
		// the next iteration fails the task with "Course not found"
		return nil
	}

	after := Measure(merged, p.policy)
	names := applied
	if len(names) == 0 {
		names = actionNames(plan.Actions)
	}
	jc.Progress(plan.Stage, after.Percent(), formatMessage(finishedPrefix(plan.Stage), names, after))
	return nil
}
