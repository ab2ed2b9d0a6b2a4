package memory

import (
	"context"
	"strings"

	"github.com/yungbote/knowledgemap-backend/internal/domain/chat"
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

type CourseReader interface {
	LoadCourse(ctx context.Context, courseID string) (*course.Course, error)
}

type AnnotationReader interface {
	LoadAnnotations(ctx context.Context) ([]course.Annotation, error)
}

// Summarizer condenses older conversation turns. The authoring generator
// implements it on the fast tier.
type Summarizer interface {
	SummarizeHistory(ctx context.Context, history []chat.Message) (string, error)
}

type Request struct {
	CourseID string
	NodeID   string
	Query    string
	History  []chat.Message
}

// Result.History holds the recent turns only; a compressed summary of older
// turns is rendered into SystemPrompt.
type Result struct {
	SystemPrompt string
	History      []chat.Message
	State        LearningState
}

// Assembler builds the tutor system prompt from the course neighborhood,
// the learner's notes and mistakes, and the shape of the conversation.
type Assembler struct {
	courses     CourseReader
	annotations AnnotationReader
	compressor  *Compressor
	log         *logger.Logger
}

func NewAssembler(courses CourseReader, annotations AnnotationReader, summarizer Summarizer, baseLog *logger.Logger) *Assembler {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	log := baseLog.With("component", "MemoryAssembler")
	return &Assembler{
		courses:     courses,
		annotations: annotations,
		compressor:  NewCompressor(summarizer, log),
		log:         log,
	}
}

// BuildPrompt never fails; every lookup that misses degrades to a placeholder.
func (a *Assembler) BuildPrompt(ctx context.Context, req Request) Result {
	c := a.loadCourse(ctx, req.CourseID)
	annos := a.loadAnnotations(ctx, req.CourseID, c)

	var node *course.Node
	if c != nil {
		node = c.FindNode(req.NodeID)
	}

	state := Evaluate(req.History)
	summary, history := splitSummary(a.compressor.Compress(ctx, req.History))

	data := promptData{
		ContentMemory: contentNeighborhood(c, req.NodeID),
		Notes:         orNone(userNotes(annos, req.NodeID)),
		Mistakes:      orNone(recentMistakes(annos)),
		Preferences:   defaultPreferences,
		State:         state.Description(),
		Tone:          state.Tone(),
		Related:       orNone(relatedNotes(annos, req.Query, req.NodeID)),
		Query:         req.Query,
		NodeID:        req.NodeID,

		HistorySummary: summary,
	}
	if node != nil {
		data.NodeName = node.NodeName
	}

	prompt, err := renderTutorPrompt(data)
	if err != nil {
		a.log.Warn("tutor prompt render failed", "error", err, "course_id", req.CourseID)
		prompt = data.ContentMemory
	}
	return Result{SystemPrompt: prompt, History: history, State: state}
}

func (a *Assembler) loadCourse(ctx context.Context, courseID string) *course.Course {
	if a.courses == nil || strings.TrimSpace(courseID) == "" {
		return nil
	}
	c, err := a.courses.LoadCourse(ctx, courseID)
	if err != nil {
		a.log.Warn("course lookup failed", "error", err, "course_id", courseID)
		return nil
	}
	return c
}

// loadAnnotations returns the course's annotations plus any stored without a
// course id whose node belongs to the course.
func (a *Assembler) loadAnnotations(ctx context.Context, courseID string, c *course.Course) []course.Annotation {
	if a.annotations == nil || strings.TrimSpace(courseID) == "" {
		return nil
	}
	annos, err := a.annotations.LoadAnnotations(ctx)
	if err != nil {
		a.log.Warn("annotation lookup failed", "error", err, "course_id", courseID)
		return nil
	}
	var out []course.Annotation
	for _, an := range annos {
		if an.CourseID == courseID || (an.CourseID == "" && c != nil && c.FindNode(an.NodeID) != nil) {
			out = append(out, an)
		}
	}
	return out
}

// splitSummary pulls the compressor's leading system message out of the
// history so it lands in the system prompt rather than the transcript.
func splitSummary(history []chat.Message) (string, []chat.Message) {
	if len(history) == 0 || history[0].Role != chat.RoleSystem {
		return "", history
	}
	return history[0].Content, history[1:]
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}
