package authoring

import (
	"strings"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
)

type LocateResult struct {
	MatchNodeID   string `json:"match_node_id"`
	MatchNodeName string `json:"match_node_name"`
	NodePath      string `json:"node_path"`
}

// LocateNode returns the first node, in stored order, whose name contains keyword.
func LocateNode(keyword string, c *course.Course) (LocateResult, bool) {
	if c == nil || keyword == "" {
		return LocateResult{}, false
	}
	for _, n := range c.Nodes {
		if strings.Contains(n.NodeName, keyword) {
			return LocateResult{
				MatchNodeID:   n.NodeID,
				MatchNodeName: n.NodeName,
				NodePath:      c.Path(n.NodeID),
			}, true
		}
	}
	return LocateResult{}, false
}
