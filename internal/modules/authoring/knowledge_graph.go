package authoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring/prompts"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
)

const (
	graphPromptNodes   = 50
	graphPromptLines   = 15
	fallbackGraphNodes = 15
	fallbackGraphEdges = 30
)

type graphNodeSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Level   int    `json:"level"`
	Content string `json:"content"`
}

// GenerateKnowledgeGraph asks the model for a concept graph over the course
// and repairs chapter references that do not name a course node. When the
// model output is unusable a graph is derived from the node hierarchy.
func (g *Generator) GenerateKnowledgeGraph(ctx context.Context, c *course.Course) *course.KnowledgeGraph {
	nodes := c.Nodes
	summaries := make([]graphNodeSummary, 0, graphPromptNodes)
	for i, n := range nodes {
		if i >= graphPromptNodes {
			break
		}
		summaries = append(summaries, graphNodeSummary{
			ID:      n.NodeID,
			Name:    n.NodeName,
			Level:   n.NodeLevel,
			Content: firstRunes(n.NodeContent, 200),
		})
	}
	nodesJSON, _ := json.MarshalIndent(summaries, "", "  ")

	var lines []string
	for i, s := range summaries {
		if i >= graphPromptLines {
			break
		}
		lines = append(lines, fmt.Sprintf("- [ID: %s] %s: %s...", s.ID, s.Name, firstRunes(s.Content, 50)))
	}

	var out struct {
		Nodes []course.GraphNode  `json:"nodes"`
		Edges *[]course.GraphEdge `json:"edges"`
	}
	_, err := g.callJSON(ctx, prompts.PromptKnowledgeGraph, prompts.Input{
		CourseName:    c.CourseName,
		CourseContext: c.Outline(),
		NodesJSON:     string(nodesJSON),
		ChapterLines:  strings.Join(lines, "\n"),
	}, llm.TierSmart, &out)
	if err != nil || len(out.Nodes) == 0 || out.Edges == nil {
		g.log.Warn("knowledge graph generation failed, using fallback", "course_id", c.CourseID, "error", err)
		return FallbackKnowledgeGraph(nodes)
	}

	graph := &course.KnowledgeGraph{Nodes: out.Nodes, Edges: dropDanglingEdges(out.Nodes, *out.Edges)}
	HealChapterIDs(graph, nodes)
	return graph
}

// HealChapterIDs points every graph node at a real course node. A missing or
// unknown chapter_id is resolved, in order, as a node name, by exact label
// match, by label/name containment, and finally to the first course node.
func HealChapterIDs(graph *course.KnowledgeGraph, nodes []course.Node) {
	valid := make(map[string]bool, len(nodes))
	byName := make(map[string]string, len(nodes))
	for _, n := range nodes {
		valid[n.NodeID] = true
		if _, ok := byName[n.NodeName]; !ok {
			byName[n.NodeName] = n.NodeID
		}
	}

	for i := range graph.Nodes {
		gn := &graph.Nodes[i]
		if gn.ChapterID != "" && valid[gn.ChapterID] {
			continue
		}
		best := ""
		if gn.ChapterID != "" {
			best = byName[gn.ChapterID]
		}
		if best == "" {
			for _, n := range nodes {
				if n.NodeName == gn.Label {
					best = n.NodeID
					break
				}
			}
		}
		if best == "" {
			for _, n := range nodes {
				if strings.Contains(n.NodeName, gn.Label) || strings.Contains(gn.Label, n.NodeName) {
					best = n.NodeID
					break
				}
			}
		}
		if best == "" && len(nodes) > 0 {
			best = nodes[0].NodeID
		}
		if best != "" {
			gn.ChapterID = best
		}
	}
}

func dropDanglingEdges(nodes []course.GraphNode, edges []course.GraphEdge) []course.GraphEdge {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	out := make([]course.GraphEdge, 0, len(edges))
	for _, e := range edges {
		if ids[e.Source] && ids[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// FallbackKnowledgeGraph derives a graph from the first course nodes: a root,
// one graph node per course node, hierarchy edges, and "related" edges
// between neighbours of the same type.
func FallbackKnowledgeGraph(nodes []course.Node) *course.KnowledgeGraph {
	if len(nodes) > fallbackGraphNodes {
		nodes = nodes[:fallbackGraphNodes]
	}

	rootChapter := ""
	if len(nodes) > 0 {
		rootChapter = nodes[0].NodeID
	}
	rootID := "root_" + uuid.NewString()[:8]
	graphNodes := []course.GraphNode{{
		ID:          rootID,
		Label:       "课程核心",
		Type:        course.GraphNodeRoot,
		Description: "课程根节点",
		ChapterID:   rootChapter,
	}}
	for _, n := range nodes {
		typ := course.GraphNodeConcept
		if n.NodeLevel == course.LevelChapter {
			typ = course.GraphNodeModule
		}
		label := n.NodeName
		if label == "" {
			label = "Unknown"
		}
		graphNodes = append(graphNodes, course.GraphNode{
			ID:          n.NodeID,
			Label:       label,
			Type:        typ,
			Description: firstRunes(n.NodeContent, 50),
			ChapterID:   n.NodeID,
		})
	}

	contains := func(src, dst string) course.GraphEdge {
		return course.GraphEdge{Source: src, Target: dst, Relation: course.RelationContains, Label: "包含"}
	}
	var edges []course.GraphEdge
	for _, gn := range graphNodes {
		if gn.Type == course.GraphNodeModule {
			edges = append(edges, contains(rootID, gn.ID))
		}
	}
	present := make(map[string]bool, len(graphNodes))
	for _, gn := range graphNodes {
		present[gn.ID] = true
	}
	for _, n := range nodes {
		if n.ParentNodeID != "" && present[n.ParentNodeID] && present[n.NodeID] {
			edges = append(edges, contains(n.ParentNodeID, n.NodeID))
		}
	}

	var order []string
	groups := map[string][]course.GraphNode{}
	for _, gn := range graphNodes {
		if _, ok := groups[gn.Type]; !ok {
			order = append(order, gn.Type)
		}
		groups[gn.Type] = append(groups[gn.Type], gn)
	}
	for _, typ := range order {
		group := groups[typ]
		for i := 0; i+1 < len(group); i++ {
			if len(edges) >= fallbackGraphEdges {
				break
			}
			edges = append(edges, course.GraphEdge{
				Source:   group[i].ID,
				Target:   group[i+1].ID,
				Relation: course.RelationRelated,
				Label:    "关联",
			})
		}
	}
	if edges == nil {
		edges = []course.GraphEdge{}
	}
	return &course.KnowledgeGraph{Nodes: graphNodes, Edges: edges}
}
