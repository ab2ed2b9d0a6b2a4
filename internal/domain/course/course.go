package course

import (
	"encoding/json"
	"strings"
)

// Course is the persisted tree. Nodes is flat; the hierarchy is carried by
// ParentNodeID.
type Course struct {
	CourseID       string          `json:"course_id"`
	CourseName     string          `json:"course_name"`
	Difficulty     string          `json:"difficulty,omitempty"`
	Style          string          `json:"style,omitempty"`
	Requirements   string          `json:"requirements,omitempty"`
	Nodes          []Node          `json:"nodes"`
	ReviewHistory  json.RawMessage `json:"review_history,omitempty"`
	LearningStreak *int            `json:"learning_streak,omitempty"`
}

// Summary is the list view of a course.
type Summary struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	NodeCount  int    `json:"node_count"`
}

// Clone returns a deep copy. Stores hand out clones so callers can mutate freely.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	out := *c
	if c.Nodes != nil {
		out.Nodes = make([]Node, len(c.Nodes))
		for i, n := range c.Nodes {
			out.Nodes[i] = n.clone()
		}
	}
	if c.ReviewHistory != nil {
		out.ReviewHistory = append(json.RawMessage(nil), c.ReviewHistory...)
	}
	if c.LearningStreak != nil {
		v := *c.LearningStreak
		out.LearningStreak = &v
	}
	return &out
}

func (c *Course) NodeIndex(nodeID string) int {
	for i := range c.Nodes {
		if c.Nodes[i].NodeID == nodeID {
			return i
		}
	}
	return -1
}

// FindNode returns a pointer into c.Nodes, valid until the slice is modified.
func (c *Course) FindNode(nodeID string) *Node {
	if i := c.NodeIndex(nodeID); i >= 0 {
		return &c.Nodes[i]
	}
	return nil
}

func (c *Course) Children(parentID string) []Node {
	var out []Node
	for _, n := range c.Nodes {
		if n.ParentNodeID == parentID {
			out = append(out, n)
		}
	}
	return out
}

func (c *Course) HasChildren(nodeID string) bool {
	for _, n := range c.Nodes {
		if n.ParentNodeID == nodeID {
			return true
		}
	}
	return false
}

func (c *Course) Chapters() []Node { return c.NodesAtLevel(LevelChapter) }
func (c *Course) Sections() []Node { return c.NodesAtLevel(LevelSection) }

// LevelForParent is the level a new child of parentID gets: parent level + 1,
// or 1 when the parent is root or unknown.
func (c *Course) LevelForParent(parentID string) int {
	if p := c.FindNode(parentID); p != nil {
		return p.NodeLevel + 1
	}
	return LevelChapter
}

func (c *Course) NodesAtLevel(level int) []Node {
	var out []Node
	for _, n := range c.Nodes {
		if n.NodeLevel == level {
			out = append(out, n)
		}
	}
	return out
}

// Siblings returns the nodes immediately before and after nodeID among the
// children of its parent, in stored order.
func (c *Course) Siblings(nodeID string) (prev, next *Node) {
	node := c.FindNode(nodeID)
	if node == nil {
		return nil, nil
	}
	group := c.Children(node.ParentNodeID)
	for i := range group {
		if group[i].NodeID != nodeID {
			continue
		}
		if i > 0 {
			p := group[i-1]
			prev = &p
		}
		if i+1 < len(group) {
			n := group[i+1]
			next = &n
		}
		break
	}
	return prev, next
}

// Descendants returns the ids of every node below nodeID, computed as an
// iterative closure over ParentNodeID. nodeID itself is not included.
func (c *Course) Descendants(nodeID string) []string {
	var out []string
	seen := map[string]bool{nodeID: true}
	frontier := []string{nodeID}
	for len(frontier) > 0 {
		var nextFrontier []string
		for _, n := range c.Nodes {
			if seen[n.NodeID] {
				continue
			}
			for _, p := range frontier {
				if n.ParentNodeID == p {
					seen[n.NodeID] = true
					out = append(out, n.NodeID)
					nextFrontier = append(nextFrontier, n.NodeID)
					break
				}
			}
		}
		frontier = nextFrontier
	}
	return out
}

// RemoveSubtree deletes nodeID and all of its descendants. It returns the
// number of nodes removed.
func (c *Course) RemoveSubtree(nodeID string) int {
	if c.FindNode(nodeID) == nil {
		return 0
	}
	doomed := map[string]bool{nodeID: true}
	for _, id := range c.Descendants(nodeID) {
		doomed[id] = true
	}
	kept := c.Nodes[:0]
	for _, n := range c.Nodes {
		if !doomed[n.NodeID] {
			kept = append(kept, n)
		}
	}
	removed := len(c.Nodes) - len(kept)
	c.Nodes = kept
	return removed
}

// Path joins node names from the chapter down to nodeID.
func (c *Course) Path(nodeID string) string {
	var parts []string
	seen := map[string]bool{}
	for cur := c.FindNode(nodeID); cur != nil && !seen[cur.NodeID]; cur = c.FindNode(cur.ParentNodeID) {
		seen[cur.NodeID] = true
		parts = append([]string{cur.NodeName}, parts...)
	}
	return strings.Join(parts, " / ")
}

// Outline renders chapter and section names as an indented list.
func (c *Course) Outline() string {
	var b strings.Builder
	for _, ch := range c.Chapters() {
		b.WriteString("- " + ch.NodeName + "\n")
		for _, sec := range c.Children(ch.NodeID) {
			b.WriteString("  - " + sec.NodeName + "\n")
		}
	}
	return b.String()
}
