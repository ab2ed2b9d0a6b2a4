package memory

import (
	"fmt"
	"strings"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
)

const parentSummaryRunes = 200

// contentNeighborhood renders the parent chapter, the current node and its
// immediate siblings.
func contentNeighborhood(c *course.Course, nodeID string) string {
	if c == nil {
		return "(Course not found)"
	}
	node := c.FindNode(nodeID)
	if node == nil {
		return "(Node not found)"
	}

	var parts []string
	if parent := c.FindNode(node.ParentNodeID); parent != nil {
		parts = append(parts, fmt.Sprintf("## Parent Chapter: %s\nSummary: %s...",
			parent.NodeName, firstRunes(parent.NodeContent, parentSummaryRunes)))
	}
	parts = append(parts, fmt.Sprintf("## Current Topic: %s\nContent:\n%s", node.NodeName, node.NodeContent))

	prev, next := c.Siblings(nodeID)
	if prev != nil {
		parts = append(parts, "## Previous Context: "+prev.NodeName)
	}
	if next != nil {
		parts = append(parts, "## Next Concept: "+next.NodeName)
	}
	return strings.Join(parts, "\n\n")
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
