package authoring

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/data/testutil"
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm/llmtest"
)

func graphCourse() *course.Course {
	return testutil.Course("c1", "Go",
		testutil.Chapter("ch1", "并发"),
		testutil.Section("s1", "ch1", "通道", "channel body"),
		testutil.Chapter("ch2", "内存"),
		testutil.Section("s2", "ch2", "逃逸分析", ""),
	)
}

func TestHealChapterIDsResolutionOrder(t *testing.T) {
	g := &course.KnowledgeGraph{Nodes: []course.GraphNode{
		{ID: "a", Label: "x", ChapterID: "s1"},
		{ID: "b", Label: "x", ChapterID: "内存"},
		{ID: "c", Label: "通道"},
		{ID: "d", Label: "逃逸", ChapterID: "bogus"},
		{ID: "e", Label: "unrelated", ChapterID: "bogus"},
	}}
	HealChapterIDs(g, graphCourse().Nodes)
	got := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		got[i] = n.ChapterID
	}
	assert.Equal(t, []string{"s1", "ch2", "s1", "s2", "ch1"}, got)
}

func TestGenerateKnowledgeGraphHealsModelOutput(t *testing.T) {
	fake := &llmtest.Fake{Text: `{"nodes":[{"id":"k1","label":"通道","type":"concept"},{"id":"k2","label":"内存","type":"module","chapter_id":"ch2"}],
		"edges":[{"source":"k2","target":"k1","relation":"related"},{"source":"k1","target":"ghost","relation":"related"}]}`}
	g := newGen(t, fake).GenerateKnowledgeGraph(context.Background(), graphCourse())
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "s1", g.Nodes[0].ChapterID)
	assert.Equal(t, "ch2", g.Nodes[1].ChapterID)
	assert.Len(t, g.Edges, 1)
}

func TestGenerateKnowledgeGraphFallsBackWhenEmpty(t *testing.T) {
	g := newGen(t, &llmtest.Fake{Text: `{"nodes":[],"edges":[]}`}).GenerateKnowledgeGraph(context.Background(), graphCourse())
	require.NotEmpty(t, g.Nodes)
	assert.Equal(t, course.GraphNodeRoot, g.Nodes[0].Type)
}

func TestFallbackKnowledgeGraphShape(t *testing.T) {
	g := FallbackKnowledgeGraph(graphCourse().Nodes)
	require.Len(t, g.Nodes, 5)
	root := g.Nodes[0]
	assert.True(t, strings.HasPrefix(root.ID, "root_"))
	assert.Len(t, root.ID, len("root_")+8)
	assert.Equal(t, "课程核心", root.Label)
	assert.Equal(t, "ch1", root.ChapterID)

	var contains, related int
	for _, e := range g.Edges {
		switch e.Relation {
		case course.RelationContains:
			contains++
			assert.Equal(t, "包含", e.Label)
		case course.RelationRelated:
			related++
			assert.Equal(t, "关联", e.Label)
		}
	}
	// root->ch1, root->ch2, ch1->s1, ch2->s2
	assert.Equal(t, 4, contains)
	// ch1->ch2, s1->s2
	assert.Equal(t, 2, related)
}

func TestFallbackKnowledgeGraphCapsNodesAndEdges(t *testing.T) {
	var nodes []course.Node
	for i := 0; i < 40; i++ {
		nodes = append(nodes, testutil.Chapter(string(rune('A'+i)), "ch"))
	}
	g := FallbackKnowledgeGraph(nodes)
	assert.Len(t, g.Nodes, fallbackGraphNodes+1)
	assert.LessOrEqual(t, len(g.Edges), fallbackGraphEdges)
}

func TestFallbackKnowledgeGraphNoNodes(t *testing.T) {
	g := FallbackKnowledgeGraph(nil)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "", g.Nodes[0].ChapterID)
	assert.NotNil(t, g.Edges)
}
