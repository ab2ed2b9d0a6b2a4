package course_build

import (
	"context"
	"fmt"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
)

/*
merge applies the results of one batch to a fresh copy of the course and
saves it once.

The course is re-read so edits made while the batch ran (new chapters,
renamed or deleted nodes) survive. Children are only attached to a chapter
that still exists and is still empty; content is only written to a node that
still exists. It returns the saved course, or nil when the course vanished,
plus the names of the nodes that were updated.
*/
func (p *CourseBuildPipeline) merge(ctx context.Context, courseID string, results []actionResult) (*course.Course, []string, error) {
	fresh, err := p.courses.LoadCourse(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("reload course before merge: %w", err)
	}
	if fresh == nil {
		p.log.Error("Course disappeared during generation", "course_id", courseID)
		return nil, nil, nil
	}

	var applied []string
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		switch r.Action.Kind {
		case ActionSubsections:
			if mergeChildren(fresh, r.Action.Node.NodeID, r.Children) {
				applied = append(applied, r.Action.Node.NodeName)
			} else {
				p.log.Info("Skipping sub-sections for changed chapter",
					"course_id", courseID, "node_id", r.Action.Node.NodeID)
			}
		case ActionContent:
			if n := fresh.FindNode(r.Action.Node.NodeID); n != nil {
				n.NodeContent = r.Content
				applied = append(applied, n.NodeName)
			} else {
				p.log.Info("Skipping content for deleted node",
					"course_id", courseID, "node_id", r.Action.Node.NodeID)
			}
		}
	}
	if len(applied) == 0 {
		return fresh, nil, nil
	}
	if err := p.courses.SaveCourse(ctx, fresh); err != nil {
		return nil, nil, fmt.Errorf("save merged course: %w", err)
	}
	return fresh, applied, nil
}

func mergeChildren(c *course.Course, parentID string, children []course.Node) bool {
	parent := c.FindNode(parentID)
	if parent == nil || len(children) == 0 || c.HasChildren(parentID) {
		return false
	}
	level := parent.NodeLevel + 1
	for _, child := range children {
		child.ParentNodeID = parentID
		child.NodeLevel = level
		c.Nodes = append(c.Nodes, child)
	}
	return true
}
