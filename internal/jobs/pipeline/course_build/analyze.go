package course_build

import (
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
)

type ActionKind string

const (
	ActionSubsections ActionKind = "subsections"
	ActionContent     ActionKind = "content"
)

type Action struct {
	Kind ActionKind
	Node course.Node
}

// Plan is the outcome of structure analysis: at most BatchSize actions, all
// of one kind. An empty plan means the course is finished.
type Plan struct {
	Stage   string
	Actions []Action
}

func (p Plan) Done() bool { return len(p.Actions) == 0 }

/*
Analyze picks the next batch of work for c.

Phase 1: every chapter without children gets a subsections action.
Phase 2, only when phase 1 found nothing: every section whose body is not
longer than the threshold gets a content action.

The outline of the whole course therefore exists before any body is written.
Analyze reads c only and returns the same plan for the same tree.
*/
func Analyze(c *course.Course, policy Policy) Plan {
	policy = policy.normalized()
	if c == nil {
		return Plan{Stage: jobs.StageDone}
	}

	var actions []Action
	for _, ch := range c.Chapters() {
		if c.HasChildren(ch.NodeID) {
			continue
		}
		actions = append(actions, Action{Kind: ActionSubsections, Node: ch})
		if len(actions) >= policy.BatchSize {
			break
		}
	}
	if len(actions) > 0 {
		return Plan{Stage: jobs.StageSkeleton, Actions: actions}
	}

	for _, sec := range c.Sections() {
		if contentComplete(sec, policy) {
			continue
		}
		actions = append(actions, Action{Kind: ActionContent, Node: sec})
		if len(actions) >= policy.BatchSize {
			break
		}
	}
	if len(actions) > 0 {
		return Plan{Stage: jobs.StageContent, Actions: actions}
	}
	return Plan{Stage: jobs.StageDone}
}

func contentComplete(n course.Node, policy Policy) bool {
	return n.ContentRunes() > policy.ContentCompleteThreshold
}

// Completion counts the finished units of c: chapters that have children and
// sections whose body is complete, out of chapters plus sections.
type Completion struct {
	Done  int
	Total int
}

func Measure(c *course.Course, policy Policy) Completion {
	if c == nil {
		return Completion{}
	}
	var out Completion
	for _, ch := range c.Chapters() {
		out.Total++
		if c.HasChildren(ch.NodeID) {
			out.Done++
		}
	}
	for _, sec := range c.Sections() {
		out.Total++
		if contentComplete(sec, policy) {
			out.Done++
		}
	}
	return out
}

// Percent is capped at 99; only completing the task reports 100.
func (c Completion) Percent() int {
	if c.Total <= 0 {
		return 0
	}
	pct := c.Done * 100 / c.Total
	if pct > 99 {
		pct = 99
	}
	return pct
}
