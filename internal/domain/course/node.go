package course

import (
	"strings"
	"time"
)

const (
	// RootParentID is the parent id of every chapter. It is course-scoped and
	// never resolves to a stored node.
	RootParentID = "root"

	LevelChapter = 1
	LevelSection = 2

	NodeTypeOriginal = "original"
	NodeTypeCustom   = "custom"
	NodeTypeExtend   = "extend"
)

type Node struct {
	NodeID       string     `json:"node_id"`
	ParentNodeID string     `json:"parent_node_id"`
	NodeName     string     `json:"node_name"`
	NodeLevel    int        `json:"node_level"`
	NodeContent  string     `json:"node_content"`
	NodeType     string     `json:"node_type"`
	IsRead       bool       `json:"is_read"`
	QuizScore    *int       `json:"quiz_score,omitempty"`
	CreateTime   *time.Time `json:"create_time,omitempty"`
}

// ContentRunes is the length of the node content in characters.
func (n Node) ContentRunes() int {
	return len([]rune(n.NodeContent))
}

func (n Node) HasContent() bool {
	return strings.TrimSpace(n.NodeContent) != ""
}

func (n Node) clone() Node {
	out := n
	if n.QuizScore != nil {
		v := *n.QuizScore
		out.QuizScore = &v
	}
	if n.CreateTime != nil {
		t := *n.CreateTime
		out.CreateTime = &t
	}
	return out
}
