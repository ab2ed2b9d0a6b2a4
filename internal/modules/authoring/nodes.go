package authoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring/prompts"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
)

// ErrEmptyOutline is returned when the model listed no sub-sections.
var ErrEmptyOutline = errors.New("model returned no sub-sections")

type SubNodesRequest struct {
	Parent        course.Node
	CourseName    string
	CourseOutline string
	Difficulty    string
	Style         string
}

// SubNodesRequestFor fills a request from the course the parent belongs to.
func SubNodesRequestFor(c *course.Course, parent course.Node) SubNodesRequest {
	return SubNodesRequest{
		Parent:        parent,
		CourseName:    c.CourseName,
		CourseOutline: c.Outline(),
		Difficulty:    c.Difficulty,
		Style:         c.Style,
	}
}

// GenerateSubNodes returns children of req.Parent one level deeper. They are
// not attached to any course.
func (g *Generator) GenerateSubNodes(ctx context.Context, req SubNodesRequest) ([]course.Node, error) {
	var out struct {
		SubNodes []outlineNode `json:"sub_nodes"`
	}
	_, err := g.callJSON(ctx, prompts.PromptGenerateSubNodes, prompts.Input{
		CourseName:    req.CourseName,
		ParentContext: req.Parent.NodeContent,
		CourseOutline: req.CourseOutline,
		Difficulty:    orDefault(req.Difficulty, DefaultDifficulty),
		Style:         orDefault(req.Style, DefaultStyle),
		NodeName:      req.Parent.NodeName,
		NodeLevel:     req.Parent.NodeLevel,
	}, llm.TierSmart, &out)
	if err != nil {
		return nil, err
	}
	if len(out.SubNodes) == 0 {
		return nil, fmt.Errorf("%s: %w", req.Parent.NodeName, ErrEmptyOutline)
	}

	now := time.Now().UTC()
	nodes := make([]course.Node, 0, len(out.SubNodes))
	for _, sn := range out.SubNodes {
		nodes = append(nodes, newChild(req.Parent, nodeName(sn.NodeName), sn.NodeContent, now))
	}
	return nodes, nil
}

// FallbackSubNodes is the placeholder pair offered when generation fails on
// an interactive request.
func FallbackSubNodes(parent course.Node) []course.Node {
	now := time.Now().UTC()
	return []course.Node{
		newChild(parent, parent.NodeName+" - 子节点 1", "", now),
		newChild(parent, parent.NodeName+" - 子节点 2", "", now),
	}
}

func newChild(parent course.Node, name, content string, now time.Time) course.Node {
	return course.Node{
		NodeID:       uuid.NewString(),
		ParentNodeID: parent.NodeID,
		NodeName:     name,
		NodeLevel:    parent.NodeLevel + 1,
		NodeContent:  content,
		NodeType:     course.NodeTypeCustom,
		CreateTime:   &now,
	}
}
