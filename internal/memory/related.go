package memory

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
)

const (
	relatedLimit       = 3
	relatedAnswerRunes = 50
)

type scoredNote struct {
	anno  course.Annotation
	score int
}

// relatedNotes ranks annotations outside the current node by how many query
// keywords appear in their summary or answer.
func relatedNotes(annos []course.Annotation, query, currentNodeID string) string {
	keywords := queryKeywords(query)
	if len(keywords) == 0 {
		return ""
	}

	var scored []scoredNote
	for _, a := range annos {
		if a.NodeID == currentNodeID {
			continue
		}
		score := 0
		for _, k := range keywords {
			if strings.Contains(a.AnnoSummary, k) || strings.Contains(a.Answer, k) {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, scoredNote{anno: a, score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > relatedLimit {
		scored = scored[:relatedLimit]
	}

	lines := make([]string, 0, len(scored))
	for _, s := range scored {
		lines = append(lines, fmt.Sprintf("Related Note (%s): %s...",
			s.anno.AnnoSummary, firstRunes(s.anno.Answer, relatedAnswerRunes)))
	}
	return strings.Join(lines, "\n")
}

func queryKeywords(query string) []string {
	var out []string
	for _, w := range strings.Fields(query) {
		if utf8.RuneCountInString(w) > 1 {
			out = append(out, w)
		}
	}
	return out
}
