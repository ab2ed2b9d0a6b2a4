package course_build

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/observability"
)

var errContentTooShort = errors.New("generated content is below the completeness threshold")

type actionResult struct {
	Action   Action
	Children []course.Node
	Content  string
	Err      error
}

// dispatch runs every action of the plan concurrently and waits for all of
// them. A failing action never cancels its siblings.
func (p *CourseBuildPipeline) dispatch(ctx context.Context, c *course.Course, plan Plan) []actionResult {
	results := make([]actionResult, len(plan.Actions))
	var g errgroup.Group
	g.SetLimit(p.policy.BatchSize)
	for i, a := range plan.Actions {
		g.Go(func() error {
			results[i] = p.runAction(ctx, c, a)
			status := "ok"
			if results[i].Err != nil {
				status = "error"
				p.log.Warn("Action failed",
					"course_id", c.CourseID,
					"action", string(a.Kind),
					"node_id", a.Node.NodeID,
					"node_name", a.Node.NodeName,
					"error", results[i].Err,
				)
			}
			observability.Current().IncTaskAction(string(a.Kind), status)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *CourseBuildPipeline) runAction(ctx context.Context, c *course.Course, a Action) actionResult {
	res := actionResult{Action: a}
	switch a.Kind {
	case ActionSubsections:
		res.Children, res.Err = p.gen.GenerateSubNodes(ctx, authoring.SubNodesRequestFor(c, a.Node))
	case ActionContent:
		var text string
		text, res.Err = p.gen.GenerateContent(ctx, contentRequest(c, a.Node))
		if res.Err == nil && len([]rune(text)) <= p.policy.ContentCompleteThreshold {
			res.Err = fmt.Errorf("%s: %w", a.Node.NodeName, errContentTooShort)
		}
		res.Content = text
	default:
		res.Err = fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return res
}

func contentRequest(c *course.Course, n course.Node) authoring.ContentRequest {
	var nodeContext string
	if parent := c.FindNode(n.ParentNodeID); parent != nil {
		nodeContext = "所属章节：" + parent.NodeName
	}
	return authoring.ContentRequest{
		NodeName:    n.NodeName,
		NodeContext: nodeContext,
		CourseName:  c.CourseName,
		Difficulty:  c.Difficulty,
		Style:       c.Style,
	}
}

// batchError is returned when every action of an iteration failed.
type batchError struct{ errs []error }

func (e *batchError) Error() string {
	msgs := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("all %d actions failed: %s", len(e.errs), strings.Join(msgs, "; "))
}

func (e *batchError) Unwrap() []error { return e.errs }

// allFailed returns a batchError when no result succeeded.
func allFailed(results []actionResult) error {
	if len(results) == 0 {
		return nil
	}
	errs := make([]error, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			return nil
		}
		errs = append(errs, r.Err)
	}
	return &batchError{errs: errs}
}
