package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/knowledgemap-backend/internal/data/store"
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/platform/apierr"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

const (
	annoIDPrefix = "anno_"

	// answers longer than this get a model-written summary when the client
	// sent a lazy one
	aiSummaryMinRunes  = 50
	lazySummaryPrefix  = 20
	placeholderSummary = "Note"
)

type SaveAnnotationInput struct {
	AnnoID      string `json:"anno_id"`
	NodeID      string `json:"node_id"`
	CourseID    string `json:"course_id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	AnnoSummary string `json:"anno_summary"`
	SourceType  string `json:"source_type"`
	Quote       string `json:"quote"`
}

type AnnotationService interface {
	Save(ctx context.Context, in SaveAnnotationInput) (*course.Annotation, error)
	Update(ctx context.Context, annoID, content string) (*course.Annotation, error)
	Delete(ctx context.Context, annoID string) error
	ByNode(ctx context.Context, nodeID string) ([]course.Annotation, error)
	ByCourse(ctx context.Context, courseID string) ([]course.Annotation, error)
}

type annotationService struct {
	log   *logger.Logger
	store *store.Store
	gen   *authoring.Generator
}

func NewAnnotationService(baseLog *logger.Logger, st *store.Store, gen *authoring.Generator) AnnotationService {
	return &annotationService{
		log:   baseLog.With("service", "AnnotationService"),
		store: st,
		gen:   gen,
	}
}

func validSourceType(t string) bool {
	switch t {
	case course.SourceUser, course.SourceAI, course.SourceUserSaved:
		return true
	}
	return false
}

// isLazySummary reports a summary the client derived mechanically: empty, the
// placeholder, or a prefix of the answer.
func isLazySummary(summary, answer string) bool {
	if strings.TrimSpace(summary) == "" || summary == placeholderSummary {
		return true
	}
	return strings.HasPrefix(summary, firstRunes(answer, lazySummaryPrefix))
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (s *annotationService) Save(ctx context.Context, in SaveAnnotationInput) (*course.Annotation, error) {
	if strings.TrimSpace(in.NodeID) == "" {
		return nil, apierr.BadRequest("missing_node_id", "node_id is required")
	}
	sourceType := in.SourceType
	if sourceType == "" {
		sourceType = course.SourceUser
	}
	if !validSourceType(sourceType) {
		return nil, apierr.BadRequest("invalid_source_type", "source_type %q", in.SourceType)
	}
	a := &course.Annotation{
		AnnoID:      strings.TrimSpace(in.AnnoID),
		NodeID:      in.NodeID,
		CourseID:    in.CourseID,
		Question:    in.Question,
		Answer:      in.Answer,
		AnnoSummary: in.AnnoSummary,
		SourceType:  sourceType,
		Quote:       in.Quote,
	}
	if a.AnnoID == "" {
		a.AnnoID = annoIDPrefix + uuid.NewString()
	}
	if len([]rune(a.Answer)) > aiSummaryMinRunes && isLazySummary(a.AnnoSummary, a.Answer) {
		if summary := strings.TrimSpace(s.gen.SummarizeNote(ctx, a.Answer)); summary != "" {
			a.AnnoSummary = summary
		}
	}
	if err := s.store.SaveAnnotation(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *annotationService) Update(ctx context.Context, annoID, content string) (*course.Annotation, error) {
	a, err := s.store.UpdateAnnotation(ctx, annoID, content)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apierr.NotFound("annotation_not_found", "annotation %s", annoID)
	}
	return a, nil
}

// Delete succeeds whether or not the annotation existed.
func (s *annotationService) Delete(ctx context.Context, annoID string) error {
	_, err := s.store.DeleteAnnotation(ctx, annoID)
	return err
}

func (s *annotationService) ByNode(ctx context.Context, nodeID string) ([]course.Annotation, error) {
	return s.store.AnnotationsByNode(ctx, nodeID)
}

// ByCourse returns annotations attached to any node of the course. A missing
// course has none.
func (s *annotationService) ByCourse(ctx context.Context, courseID string) ([]course.Annotation, error) {
	c, err := s.store.LoadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil || len(c.Nodes) == 0 {
		return []course.Annotation{}, nil
	}
	ids := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		ids = append(ids, n.NodeID)
	}
	out, err := s.store.AnnotationsByNodes(ctx, ids)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []course.Annotation{}
	}
	return out, nil
}
