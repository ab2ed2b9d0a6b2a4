package course_build

import (
	"fmt"
	"strings"

	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
)

const (
	maxNameRunes    = 20
	maxMessageRunes = 80
)

func startedPrefix(stage string) string {
	switch stage {
	case jobs.StageSkeleton:
		return "Generating sections"
	case jobs.StageContent:
		return "Writing content"
	default:
		return "Working"
	}
}

func finishedPrefix(stage string) string {
	switch stage {
	case jobs.StageSkeleton:
		return "Generated sections"
	case jobs.StageContent:
		return "Wrote content"
	default:
		return "Updated"
	}
}

// formatMessage renders "<prefix>: A | B [done/total pct%]" within 80 runes.
func formatMessage(prefix string, names []string, comp Completion) string {
	short := make([]string, 0, len(names))
	for _, n := range names {
		short = append(short, truncateRunes(n, maxNameRunes, 17))
	}
	total := comp.Total
	if total < 1 {
		total = 1
	}
	msg := fmt.Sprintf("%s: %s [%d/%d %d%%]", prefix, strings.Join(short, " | "), comp.Done, comp.Total, comp.Done*100/total)
	return truncateRunes(msg, maxMessageRunes, maxMessageRunes-3)
}

// truncateRunes cuts s to keep runes plus "..." when it is longer than limit.
func truncateRunes(s string, limit, keep int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:keep]) + "..."
}

func actionNames(actions []Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		name := a.Node.NodeName
		if strings.TrimSpace(name) == "" {
			name = "Unknown"
		}
		out = append(out, name)
	}
	return out
}
