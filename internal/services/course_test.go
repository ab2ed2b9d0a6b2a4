package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/knowledgemap-backend/internal/pkg/errors"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm/llmtest"
)

func TestGenerateSubNodesReturnsExistingChildren(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Text: `{"sub_nodes":[{"node_name":"should not appear"}]}`})
	e.seed(t, goCourse())

	got, err := e.courses(t).GenerateSubNodes(context.Background(), "c1", "ch1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].NodeID)
	assert.Empty(t, e.fake.Requests())
	assert.Len(t, e.load(t, "c1").Nodes, 3)
}

func TestGenerateSubNodesAppendsAndSaves(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Text: `{"sub_nodes":[{"node_name":"2.1 goroutine"},{"node_name":"2.2 channel"}]}`})
	e.seed(t, goCourse())

	got, err := e.courses(t).GenerateSubNodes(context.Background(), "c1", "ch2")
	require.NoError(t, err)
	require.Len(t, got, 2)

	c := e.load(t, "c1")
	children := c.Children("ch2")
	require.Len(t, children, 2)
	for _, n := range children {
		assert.Equal(t, course.LevelSection, n.NodeLevel)
		assert.Equal(t, course.NodeTypeCustom, n.NodeType)
	}

	// a second call is a no-op
	again, err := e.courses(t).GenerateSubNodes(context.Background(), "c1", "ch2")
	require.NoError(t, err)
	assert.Equal(t, got[0].NodeID, again[0].NodeID)
	assert.Len(t, e.fake.Requests(), 1)
}

func TestGenerateSubNodesFallsBackOnModelFailure(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Err: errors.New("upstream down")})
	e.seed(t, goCourse())

	got, err := e.courses(t).GenerateSubNodes(context.Background(), "c1", "ch2")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[0].NodeName, "Concurrency - "))
}

func TestGenerateSubNodesUnknownNode(t *testing.T) {
	e := newEnv(t, nil)
	e.seed(t, goCourse())

	_, err := e.courses(t).GenerateSubNodes(context.Background(), "c1", "nope")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	_, err = e.courses(t).GenerateSubNodes(context.Background(), "missing", "ch1")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestAddNodeTakesLevelFromParent(t *testing.T) {
	e := newEnv(t, nil)
	e.seed(t, goCourse())
	svc := e.courses(t)

	sec, err := svc.AddNode(context.Background(), "c1", AddNodeInput{ParentNodeID: "s1", NodeName: "Deep"})
	require.NoError(t, err)
	assert.Equal(t, 3, sec.NodeLevel)
	assert.Equal(t, course.NodeTypeCustom, sec.NodeType)
	assert.Equal(t, customNodeContent, sec.NodeContent)

	root, err := svc.AddNode(context.Background(), "c1", AddNodeInput{})
	require.NoError(t, err)
	assert.Equal(t, course.RootParentID, root.ParentNodeID)
	assert.Equal(t, course.LevelChapter, root.NodeLevel)
	assert.Equal(t, "New Node", root.NodeName)

	assert.Len(t, e.load(t, "c1").Nodes, 5)
}

func TestUpdateNodeAppliesOnlyGivenFields(t *testing.T) {
	e := newEnv(t, nil)
	e.seed(t, goCourse())

	read := true
	score := 80
	n, err := e.courses(t).UpdateNode(context.Background(), "c1", "s1", NodePatch{IsRead: &read, QuizScore: &score})
	require.NoError(t, err)
	assert.Equal(t, "Syntax", n.NodeName)
	assert.Equal(t, "body", n.NodeContent)

	stored := e.load(t, "c1").FindNode("s1")
	assert.True(t, stored.IsRead)
	require.NotNil(t, stored.QuizScore)
	assert.Equal(t, 80, *stored.QuizScore)

	_, err = e.courses(t).UpdateNode(context.Background(), "c1", "nope", NodePatch{IsRead: &read})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestDeleteNodeRemovesSubtree(t *testing.T) {
	e := newEnv(t, nil)
	e.seed(t, goCourse())
	svc := e.courses(t)

	require.NoError(t, svc.DeleteNode(context.Background(), "c1", "ch1"))
	c := e.load(t, "c1")
	require.Len(t, c.Nodes, 1)
	assert.Equal(t, "ch2", c.Nodes[0].NodeID)

	assert.ErrorIs(t, svc.DeleteNode(context.Background(), "c1", "ch1"), pkgerrors.ErrNotFound)
}

func TestDeleteCourseRemovesItsTasks(t *testing.T) {
	e := newEnv(t, nil)
	e.seed(t, goCourse())
	dbc := dbctx.Of(context.Background())
	_, err := e.store.CreateTask(dbc, &jobs.CourseTask{CourseID: "c1"})
	require.NoError(t, err)
	_, err = e.store.CreateTask(dbc, &jobs.CourseTask{CourseID: "other"})
	require.NoError(t, err)

	require.NoError(t, e.courses(t).Delete(context.Background(), "c1"))

	_, err = e.courses(t).Get(context.Background(), "c1")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	left, err := e.store.ListTasks(dbc, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "other", left[0].CourseID)
}

func TestGenerateCourseAssignsNewID(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Text: `{"course_name":"Rust","nodes":[{"node_name":"第一章","sub_nodes":[]}]}`})
	c, err := e.courses(t).Generate(context.Background(), authoring.CourseRequest{Keyword: "Rust"})
	require.NoError(t, err)
	require.NotEmpty(t, c.CourseID)
	assert.Len(t, e.load(t, c.CourseID).Nodes, 1)

	_, err = e.courses(t).Generate(context.Background(), authoring.CourseRequest{})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

func TestRedefineSavesContentAsCustom(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Text: "rewritten body"})
	e.seed(t, goCourse())

	got, err := e.courses(t).Redefine(context.Background(), "c1", "s1", RedefineInput{NodeName: "Syntax", UserRequirement: "simpler"})
	require.NoError(t, err)
	assert.Equal(t, "rewritten body", got)

	n := e.load(t, "c1").FindNode("s1")
	assert.Equal(t, "rewritten body", n.NodeContent)
	assert.Equal(t, course.NodeTypeCustom, n.NodeType)

	_, err = e.courses(t).Redefine(context.Background(), "c1", "nope", RedefineInput{})
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
}

func TestStreamRedefineSavesCleanedText(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Text: "```markdown\nstreamed body\n```"})
	e.seed(t, goCourse())

	var deltas []string
	err := e.courses(t).StreamRedefine(context.Background(), "c1", "s1", RedefineInput{NodeName: "Syntax"}, func(d string) {
		deltas = append(deltas, d)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, deltas)

	n := e.load(t, "c1").FindNode("s1")
	assert.Equal(t, "streamed body", n.NodeContent)
	assert.Equal(t, course.NodeTypeCustom, n.NodeType)
}

func TestStreamRedefineFailureKeepsOriginal(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Err: errors.New("boom")})
	e.seed(t, goCourse())

	var out strings.Builder
	err := e.courses(t).StreamRedefine(context.Background(), "c1", "s1", RedefineInput{NodeName: "Syntax"}, func(d string) {
		out.WriteString(d)
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[Error: ")
	assert.Equal(t, "body", e.load(t, "c1").FindNode("s1").NodeContent)
}

func TestExtendDoesNotSave(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Text: "further reading"})
	e.seed(t, goCourse())

	got, err := e.courses(t).Extend(context.Background(), "c1", "s1", ExtendInput{NodeName: "Syntax", UserRequirement: "more"})
	require.NoError(t, err)
	assert.Equal(t, "further reading", got)
	assert.Equal(t, "body", e.load(t, "c1").FindNode("s1").NodeContent)
}

func TestLocateFirstMatch(t *testing.T) {
	e := newEnv(t, nil)
	e.seed(t, goCourse())

	res, err := e.courses(t).Locate(context.Background(), "c1", "Syn")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "s1", res.MatchNodeID)
	assert.Equal(t, "Basics / Syntax", res.NodePath)

	res, err = e.courses(t).Locate(context.Background(), "c1", "zzz")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestStripErrorMarker(t *testing.T) {
	assert.Equal(t, "partial", stripErrorMarker("partial\n[Error: boom]"))
	assert.Equal(t, "clean", stripErrorMarker("clean"))
}
