package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/knowledgemap-backend/internal/data/graph"
	"github.com/yungbote/knowledgemap-backend/internal/data/store"
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/pkg/dbctx"
	"github.com/yungbote/knowledgemap-backend/internal/platform/apierr"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

const customNodeContent = "Custom content..."

type AddNodeInput struct {
	ParentNodeID string `json:"parent_node_id"`
	NodeName     string `json:"node_name"`
}

// NodePatch carries the fields a client may change; nil fields are left alone.
type NodePatch struct {
	NodeName    *string `json:"node_name"`
	NodeContent *string `json:"node_content"`
	IsRead      *bool   `json:"is_read"`
	QuizScore   *int    `json:"quiz_score"`
}

type RedefineInput struct {
	NodeName        string `json:"node_name"`
	OriginalContent string `json:"original_content"`
	UserRequirement string `json:"user_requirement"`
	CourseContext   string `json:"course_context"`
	PreviousContext string `json:"previous_context"`
	Difficulty      string `json:"difficulty"`
	Style           string `json:"style"`
}

type ExtendInput struct {
	NodeName        string `json:"node_name"`
	CurrentContent  string `json:"current_content"`
	UserRequirement string `json:"user_requirement"`
}

type QuizInput struct {
	NodeContent   string               `json:"node_content"`
	NodeName      string               `json:"node_name"`
	Difficulty    string               `json:"difficulty"`
	Style         string               `json:"style"`
	UserPersona   string               `json:"user_persona"`
	QuestionCount int                  `json:"question_count"`
	QuizType      string               `json:"quiz_type"`
	Mistakes      []course.QuizMistake `json:"mistakes"`
}

type CourseService interface {
	List(ctx context.Context) ([]course.Summary, error)
	Get(ctx context.Context, courseID string) (*course.Course, error)
	Delete(ctx context.Context, courseID string) error
	Generate(ctx context.Context, req authoring.CourseRequest) (*course.Course, error)

	AddNode(ctx context.Context, courseID string, in AddNodeInput) (*course.Node, error)
	UpdateNode(ctx context.Context, courseID, nodeID string, patch NodePatch) (*course.Node, error)
	DeleteNode(ctx context.Context, courseID, nodeID string) error
	GenerateSubNodes(ctx context.Context, courseID, nodeID string) ([]course.Node, error)

	Redefine(ctx context.Context, courseID, nodeID string, in RedefineInput) (string, error)
	StreamRedefine(ctx context.Context, courseID, nodeID string, in RedefineInput, onDelta func(string)) error
	Extend(ctx context.Context, courseID, nodeID string, in ExtendInput) (string, error)
	Quiz(ctx context.Context, courseID, nodeID string, in QuizInput) []course.QuizQuestion
	Locate(ctx context.Context, courseID, keyword string) (*authoring.LocateResult, error)
}

type courseService struct {
	log    *logger.Logger
	store  *store.Store
	gen    *authoring.Generator
	mirror *graph.Mirror
}

func NewCourseService(baseLog *logger.Logger, st *store.Store, gen *authoring.Generator, mirror *graph.Mirror) CourseService {
	return &courseService{
		log:    baseLog.With("service", "CourseService"),
		store:  st,
		gen:    gen,
		mirror: mirror,
	}
}

func courseNotFound(courseID string) error {
	return apierr.NotFound("course_not_found", "course %s", courseID)
}

func nodeNotFound(nodeID string) error {
	return apierr.NotFound("node_not_found", "node %s", nodeID)
}

func (s *courseService) List(ctx context.Context) ([]course.Summary, error) {
	return s.store.ListCourses(ctx)
}

func (s *courseService) Get(ctx context.Context, courseID string) (*course.Course, error) {
	c, err := s.store.LoadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, courseNotFound(courseID)
	}
	return c, nil
}

// Delete removes the course with its annotations, graph and tasks. Deleting a
// missing course succeeds.
func (s *courseService) Delete(ctx context.Context, courseID string) error {
	if _, err := s.store.DeleteCourse(ctx, courseID); err != nil {
		return err
	}
	n, err := s.store.DeleteTasksByCourse(dbctx.Of(ctx), courseID)
	if err != nil {
		return fmt.Errorf("delete tasks of course %s: %w", courseID, err)
	}
	if err := s.mirror.DeleteCourse(ctx, courseID); err != nil {
		s.log.Warn("graph mirror delete failed", "course_id", courseID, "error", err)
	}
	s.log.Info("Course deleted", "course_id", courseID, "tasks_removed", n)
	return nil
}

func (s *courseService) Generate(ctx context.Context, req authoring.CourseRequest) (*course.Course, error) {
	if strings.TrimSpace(req.Keyword) == "" {
		return nil, apierr.BadRequest("missing_keyword", "keyword is required")
	}
	c, err := s.gen.GenerateCourse(ctx, req)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, "llm_unavailable", err)
	}
	c.CourseID = uuid.NewString()
	if err := s.store.SaveCourse(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("Course generated", "course_id", c.CourseID, "chapters", len(c.Chapters()))
	return c, nil
}

func (s *courseService) AddNode(ctx context.Context, courseID string, in AddNodeInput) (*course.Node, error) {
	parentID := strings.TrimSpace(in.ParentNodeID)
	if parentID == "" {
		parentID = course.RootParentID
	}
	name := in.NodeName
	if strings.TrimSpace(name) == "" {
		name = "New Node"
	}
	var added course.Node
	c, err := s.store.UpdateCourse(ctx, courseID, func(c *course.Course) error {
		now := time.Now().UTC()
		added = course.Node{
			NodeID:       uuid.NewString(),
			ParentNodeID: parentID,
			NodeName:     name,
			NodeLevel:    c.LevelForParent(parentID),
			NodeContent:  customNodeContent,
			NodeType:     course.NodeTypeCustom,
			CreateTime:   &now,
		}
		c.Nodes = append(c.Nodes, added)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, courseNotFound(courseID)
	}
	return &added, nil
}

func (s *courseService) UpdateNode(ctx context.Context, courseID, nodeID string, patch NodePatch) (*course.Node, error) {
	var updated course.Node
	c, err := s.store.UpdateCourse(ctx, courseID, func(c *course.Course) error {
		n := c.FindNode(nodeID)
		if n == nil {
			return nodeNotFound(nodeID)
		}
		if patch.NodeName != nil {
			n.NodeName = *patch.NodeName
		}
		if patch.NodeContent != nil {
			n.NodeContent = *patch.NodeContent
		}
		if patch.IsRead != nil {
			n.IsRead = *patch.IsRead
		}
		if patch.QuizScore != nil {
			v := *patch.QuizScore
			n.QuizScore = &v
		}
		updated = *n
		return nil
	})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, courseNotFound(courseID)
	}
	return &updated, nil
}

// DeleteNode removes the node and every descendant.
func (s *courseService) DeleteNode(ctx context.Context, courseID, nodeID string) error {
	c, err := s.store.UpdateCourse(ctx, courseID, func(c *course.Course) error {
		if c.RemoveSubtree(nodeID) == 0 {
			return nodeNotFound(nodeID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if c == nil {
		return nodeNotFound(nodeID)
	}
	return nil
}

// GenerateSubNodes returns the node's existing children unchanged when it has
// any. Otherwise it generates, appends and saves a new level.
func (s *courseService) GenerateSubNodes(ctx context.Context, courseID, nodeID string) ([]course.Node, error) {
	c, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if existing := c.Children(nodeID); len(existing) > 0 {
		return existing, nil
	}
	parent := c.FindNode(nodeID)
	if parent == nil {
		return nil, nodeNotFound(nodeID)
	}

	children, err := s.gen.GenerateSubNodes(ctx, authoring.SubNodesRequestFor(c, *parent))
	if err != nil {
		s.log.Warn("sub-section generation failed, using placeholders", "course_id", courseID, "node_id", nodeID, "error", err)
		children = authoring.FallbackSubNodes(*parent)
	}

	var out []course.Node
	saved, err := s.store.UpdateCourse(ctx, courseID, func(c *course.Course) error {
		// another writer may have expanded the node while the model was busy
		if existing := c.Children(nodeID); len(existing) > 0 {
			out = existing
			return nil
		}
		if c.FindNode(nodeID) == nil {
			return nodeNotFound(nodeID)
		}
		c.Nodes = append(c.Nodes, children...)
		out = children
		return nil
	})
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, courseNotFound(courseID)
	}
	return out, nil
}

func (in RedefineInput) request() authoring.RedefineRequest {
	return authoring.RedefineRequest{
		NodeName:        in.NodeName,
		Requirement:     in.UserRequirement,
		OriginalContent: in.OriginalContent,
		CourseContext:   in.CourseContext,
		PreviousContext: in.PreviousContext,
		Difficulty:      in.Difficulty,
		Style:           in.Style,
	}
}

// setNodeContent stores content on the node and marks it custom.
func (s *courseService) setNodeContent(ctx context.Context, courseID, nodeID, content string) error {
	c, err := s.store.UpdateCourse(ctx, courseID, func(c *course.Course) error {
		n := c.FindNode(nodeID)
		if n == nil {
			return nodeNotFound(nodeID)
		}
		n.NodeContent = content
		n.NodeType = course.NodeTypeCustom
		return nil
	})
	if err != nil {
		return err
	}
	if c == nil {
		return courseNotFound(courseID)
	}
	return nil
}

func (s *courseService) Redefine(ctx context.Context, courseID, nodeID string, in RedefineInput) (string, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return "", err
	}
	content, err := s.gen.RedefineContent(ctx, in.request())
	if err != nil {
		s.log.Warn("redefine failed, using placeholder", "course_id", courseID, "node_id", nodeID, "error", err)
		content = authoring.FallbackRedefinition(in.NodeName, in.UserRequirement)
	}
	if err := s.setNodeContent(ctx, courseID, nodeID, content); err != nil {
		return "", err
	}
	return content, nil
}

// StreamRedefine forwards model output to onDelta and saves the cleaned text
// once the stream ends. A failed stream has already written its error marker;
// whatever arrived before the failure is kept.
func (s *courseService) StreamRedefine(ctx context.Context, courseID, nodeID string, in RedefineInput, onDelta func(string)) error {
	if _, err := s.Get(ctx, courseID); err != nil {
		return err
	}
	var received strings.Builder
	text, err := s.gen.StreamRedefine(ctx, in.request(), func(delta string) {
		received.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	})
	if err != nil {
		s.log.Warn("streamed redefine failed", "course_id", courseID, "node_id", nodeID, "error", err)
		text = authoring.CleanResponse(stripErrorMarker(received.String()))
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	// the client may disconnect mid-stream; the text received so far still lands
	return s.setNodeContent(context.WithoutCancel(ctx), courseID, nodeID, text)
}

// stripErrorMarker drops a trailing "\n[Error: ...]" emitted by the gateway.
func stripErrorMarker(s string) string {
	if i := strings.LastIndex(s, "\n[Error: "); i >= 0 && strings.HasSuffix(s, "]") {
		return s[:i]
	}
	return s
}

// Extend writes supplementary reading; the result is not saved.
func (s *courseService) Extend(ctx context.Context, courseID, nodeID string, in ExtendInput) (string, error) {
	content, err := s.gen.ExtendContent(ctx, in.NodeName, in.UserRequirement)
	if err != nil {
		s.log.Warn("extend failed, using placeholder", "course_id", courseID, "node_id", nodeID, "error", err)
		return authoring.FallbackExtension(in.NodeName, in.UserRequirement), nil
	}
	return content, nil
}

func (s *courseService) Quiz(ctx context.Context, courseID, nodeID string, in QuizInput) []course.QuizQuestion {
	return s.gen.GenerateQuiz(ctx, authoring.QuizRequest{
		Content:       in.NodeContent,
		NodeName:      in.NodeName,
		Difficulty:    in.Difficulty,
		Style:         in.Style,
		Persona:       in.UserPersona,
		QuestionCount: in.QuestionCount,
		QuizType:      in.QuizType,
		Mistakes:      in.Mistakes,
	})
}

// Locate returns nil when nothing matches.
func (s *courseService) Locate(ctx context.Context, courseID, keyword string) (*authoring.LocateResult, error) {
	c, err := s.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	res, ok := authoring.LocateNode(keyword, c)
	if !ok {
		return nil, nil
	}
	return &res, nil
}
