package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

func TestGraphRecordsScopeKeysAndDropDanglingEdges(t *testing.T) {
	g := &course.KnowledgeGraph{
		Nodes: []course.GraphNode{
			{ID: "root", Label: "Go", Type: "root"},
			{ID: "m1", Label: "Concurrency", Type: "module", ChapterID: "ch1"},
			{ID: "m1", Label: "duplicate"},
			{ID: " "},
		},
		Edges: []course.GraphEdge{
			{Source: "root", Target: "m1", Relation: "contains", Label: "包含"},
			{Source: "m1", Target: "ghost", Relation: "related"},
		},
	}
	nodes, rels := graphRecords("c1", g, "now")
	require.Len(t, nodes, 2)
	assert.Equal(t, "c1:root", nodes[0]["key"])
	assert.Equal(t, "Concurrency", nodes[1]["label"])
	assert.Equal(t, "ch1", nodes[1]["chapter_id"])

	require.Len(t, rels, 1)
	assert.Equal(t, "c1:root", rels[0]["from_key"])
	assert.Equal(t, "c1:m1", rels[0]["to_key"])
	assert.Equal(t, "contains", rels[0]["relation"])
}

func TestGraphRecordsNilGraph(t *testing.T) {
	nodes, rels := graphRecords("c1", nil, "now")
	assert.Nil(t, nodes)
	assert.Nil(t, rels)
}

func TestDisabledMirrorIsNoop(t *testing.T) {
	m := NewMirror(nil, logger.Nop())
	assert.False(t, m.Enabled())
	assert.NoError(t, m.UpsertCourseGraph(context.Background(), "c1", "Go", &course.KnowledgeGraph{}))
	assert.NoError(t, m.DeleteCourse(context.Background(), "c1"))

	var nilMirror *Mirror
	assert.False(t, nilMirror.Enabled())
}
