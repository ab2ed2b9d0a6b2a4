package authoring

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring/prompts"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
)

type CourseRequest struct {
	Keyword      string
	Difficulty   string
	Style        string
	Requirements string
}

type outlineNode struct {
	NodeName    string        `json:"node_name"`
	NodeContent string        `json:"node_content"`
	SubNodes    []outlineNode `json:"sub_nodes"`
}

type courseOutline struct {
	CourseName string        `json:"course_name"`
	Nodes      []outlineNode `json:"nodes"`
}

// GenerateCourse asks for a chapter/section outline. A model that answers but
// produces no usable JSON yields an empty course named after the keyword; a
// transport failure is returned as an error.
func (g *Generator) GenerateCourse(ctx context.Context, req CourseRequest) (*course.Course, error) {
	keyword := strings.TrimSpace(req.Keyword)
	difficulty := orDefault(req.Difficulty, DefaultDifficulty)
	style := orDefault(req.Style, DefaultStyle)

	c := &course.Course{
		CourseID:     uuid.NewString(),
		CourseName:   keyword,
		Difficulty:   difficulty,
		Style:        style,
		Requirements: req.Requirements,
		Nodes:        []course.Node{},
	}

	var outline courseOutline
	_, err := g.callJSON(ctx, prompts.PromptGenerateCourse, prompts.Input{
		Keyword:      keyword,
		Difficulty:   difficulty,
		Style:        style,
		Requirements: strings.TrimSpace(req.Requirements),
	}, llm.TierSmart, &outline)
	if err != nil {
		if !errors.Is(err, llm.ErrNoJSON) {
			return nil, err
		}
		g.log.Warn("course outline unparseable, using empty course", "keyword", keyword)
		return c, nil
	}

	if name := strings.TrimSpace(outline.CourseName); name != "" {
		c.CourseName = name
	}
	now := time.Now().UTC()
	for _, ch := range outline.Nodes {
		chapterID := uuid.NewString()
		c.Nodes = append(c.Nodes, course.Node{
			NodeID:       chapterID,
			ParentNodeID: course.RootParentID,
			NodeName:     nodeName(ch.NodeName),
			NodeLevel:    course.LevelChapter,
			NodeContent:  ch.NodeContent,
			NodeType:     course.NodeTypeOriginal,
			CreateTime:   &now,
		})
		for _, sec := range ch.SubNodes {
			c.Nodes = append(c.Nodes, course.Node{
				NodeID:       uuid.NewString(),
				ParentNodeID: chapterID,
				NodeName:     nodeName(sec.NodeName),
				NodeLevel:    course.LevelSection,
				NodeContent:  sec.NodeContent,
				NodeType:     course.NodeTypeOriginal,
				CreateTime:   &now,
			})
		}
	}
	return c, nil
}

func nodeName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "新节点"
	}
	return name
}
