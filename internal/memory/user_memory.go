package memory

import (
	"fmt"
	"strings"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
)

const (
	noteAnswerRunes = 100
	mistakeLimit    = 3

	defaultPreferences = "User prefers detailed explanations with examples. Often asks about practical applications."
)

// userNotes lists the learner's own notes on nodeID.
func userNotes(annos []course.Annotation, nodeID string) string {
	var lines []string
	for _, a := range annos {
		if a.NodeID != nodeID || !a.IsUserNote() {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s...", a.AnnoSummary, firstRunes(a.Answer, noteAnswerRunes)))
	}
	return strings.Join(lines, "\n")
}

// recentMistakes lists the questions of the last few annotations flagged as
// mistakes.
func recentMistakes(annos []course.Annotation) string {
	var mistakes []course.Annotation
	for _, a := range annos {
		if isMistake(a) {
			mistakes = append(mistakes, a)
		}
	}
	if len(mistakes) > mistakeLimit {
		mistakes = mistakes[len(mistakes)-mistakeLimit:]
	}
	lines := make([]string, 0, len(mistakes))
	for _, a := range mistakes {
		lines = append(lines, "- "+a.Question)
	}
	return strings.Join(lines, "\n")
}

func isMistake(a course.Annotation) bool {
	return strings.Contains(a.AnnoSummary, "错题") ||
		strings.Contains(strings.ToLower(a.AnnoSummary), "mistake")
}
