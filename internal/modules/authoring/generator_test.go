package authoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/data/testutil"
	"github.com/yungbote/knowledgemap-backend/internal/domain/chat"
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm/llmtest"
)

func newGen(t *testing.T, fake *llmtest.Fake) *Generator {
	t.Helper()
	return NewGenerator(fake, testutil.Logger(t))
}

func TestGenerateCourseAssignsIdsAndLevels(t *testing.T) {
	fake := &llmtest.Fake{Text: "```json\n" + `{"course_name":"Go 并发","nodes":[
		{"node_name":"第一章 基础","node_content":"","sub_nodes":[{"node_name":"1.1 goroutine"},{"node_name":"1.2 channel"}]},
		{"node_name":"第二章 进阶","sub_nodes":[]}
	]}` + "\n```"}
	c, err := newGen(t, fake).GenerateCourse(context.Background(), CourseRequest{Keyword: "Go"})
	require.NoError(t, err)

	assert.Equal(t, "Go 并发", c.CourseName)
	assert.Equal(t, DefaultDifficulty, c.Difficulty)
	require.Len(t, c.Nodes, 4)
	ch1 := c.Nodes[0]
	assert.Equal(t, course.RootParentID, ch1.ParentNodeID)
	assert.Equal(t, course.LevelChapter, ch1.NodeLevel)
	for _, sec := range c.Nodes[1:3] {
		assert.Equal(t, ch1.NodeID, sec.ParentNodeID)
		assert.Equal(t, course.LevelSection, sec.NodeLevel)
		assert.Equal(t, course.NodeTypeOriginal, sec.NodeType)
	}
	assert.NotEqual(t, c.Nodes[1].NodeID, c.Nodes[2].NodeID)
	assert.Equal(t, llm.TierSmart, fake.Requests()[0].Tier)
}

func TestGenerateCourseUnparseableFallsBackToEmptyCourse(t *testing.T) {
	c, err := newGen(t, &llmtest.Fake{Text: "sorry, I cannot"}).GenerateCourse(context.Background(), CourseRequest{Keyword: "Rust"})
	require.NoError(t, err)
	assert.Equal(t, "Rust", c.CourseName)
	assert.Empty(t, c.Nodes)
}

func TestGenerateCourseTransportErrorIsReturned(t *testing.T) {
	_, err := newGen(t, &llmtest.Fake{Err: llm.ErrCredentialsExhausted}).GenerateCourse(context.Background(), CourseRequest{Keyword: "Rust"})
	assert.ErrorIs(t, err, llm.ErrCredentialsExhausted)
}

func TestGenerateSubNodesOneLevelDeeper(t *testing.T) {
	fake := &llmtest.Fake{Text: `{"sub_nodes":[{"node_name":"1.1 A"},{"node_name":""}]}`}
	parent := testutil.Chapter("ch1", "第一章")
	nodes, err := newGen(t, fake).GenerateSubNodes(context.Background(), SubNodesRequest{Parent: parent})
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		assert.Equal(t, "ch1", n.ParentNodeID)
		assert.Equal(t, 2, n.NodeLevel)
		assert.Equal(t, course.NodeTypeCustom, n.NodeType)
	}
	assert.Equal(t, "新节点", nodes[1].NodeName)
	assert.Contains(t, fake.Requests()[0].User, "名称=第一章")
}

func TestGenerateSubNodesEmptyListIsError(t *testing.T) {
	_, err := newGen(t, &llmtest.Fake{Text: `{"sub_nodes":[]}`}).GenerateSubNodes(context.Background(),
		SubNodesRequest{Parent: testutil.Chapter("ch1", "x")})
	assert.ErrorIs(t, err, ErrEmptyOutline)
}

func TestFallbackSubNodes(t *testing.T) {
	nodes := FallbackSubNodes(testutil.Chapter("ch1", "Intro"))
	require.Len(t, nodes, 2)
	assert.Equal(t, "Intro - 子节点 1", nodes[0].NodeName)
	assert.Equal(t, "ch1", nodes[1].ParentNodeID)
}

func TestGenerateContentCleansMarkdownFence(t *testing.T) {
	fake := &llmtest.Fake{Text: "```markdown\n# Body\ntext\n```"}
	out, err := newGen(t, fake).GenerateContent(context.Background(), ContentRequest{NodeName: "1.1 A", CourseName: "C"})
	require.NoError(t, err)
	assert.Equal(t, "# Body\ntext", out)
	assert.Contains(t, fake.Requests()[0].System, "课程名称：C")
}

func TestGenerateContentEmptyIsError(t *testing.T) {
	_, err := newGen(t, &llmtest.Fake{Text: "   "}).GenerateContent(context.Background(), ContentRequest{NodeName: "A"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestStreamRedefineForwardsDeltas(t *testing.T) {
	var got strings.Builder
	out, err := newGen(t, &llmtest.Fake{Text: "new body"}).StreamRedefine(context.Background(),
		RedefineRequest{NodeName: "A", Requirement: "simpler"}, func(d string) { got.WriteString(d) })
	require.NoError(t, err)
	assert.Equal(t, "new body", out)
	assert.Equal(t, "new body", got.String())
}

func TestStreamRedefineErrorEmitsMarker(t *testing.T) {
	var got strings.Builder
	_, err := newGen(t, &llmtest.Fake{Err: errors.New("down")}).StreamRedefine(context.Background(),
		RedefineRequest{NodeName: "A"}, func(d string) { got.WriteString(d) })
	require.Error(t, err)
	assert.Contains(t, got.String(), "[Error: down]")
}

func TestSummarizeNoteFallsBackToPrefix(t *testing.T) {
	g := newGen(t, &llmtest.Fake{Err: errors.New("down")})
	assert.Equal(t, "一二三四五六七八九十一二三四五六七八九十...", g.SummarizeNote(context.Background(), "一二三四五六七八九十一二三四五六七八九十多余"))
}

func TestSummarizeNoteUsesFastTier(t *testing.T) {
	fake := &llmtest.Fake{Text: " 标题 "}
	assert.Equal(t, "标题", newGen(t, fake).SummarizeNote(context.Background(), "content"))
	assert.Equal(t, llm.TierFast, fake.Requests()[0].Tier)
}

func TestSummarizeChatProseBecomesContent(t *testing.T) {
	history := []chat.Message{{Role: chat.RoleUser, Content: "hi"}}
	out := newGen(t, &llmtest.Fake{Text: "just prose"}).SummarizeChat(context.Background(), history, "", "")
	assert.Equal(t, ChatSummary{Title: "对话总结", Content: "just prose"}, out)

	out = newGen(t, &llmtest.Fake{Err: errors.New("x")}).SummarizeChat(context.Background(), history, "", "")
	assert.Equal(t, "总结失败", out.Title)
}

func TestLocateNodeFirstMatch(t *testing.T) {
	c := testutil.Course("c1", "C",
		testutil.Chapter("ch1", "并发基础"),
		testutil.Section("s1", "ch1", "并发模型", ""),
	)
	res, ok := LocateNode("并发", c)
	require.True(t, ok)
	assert.Equal(t, "ch1", res.MatchNodeID)

	res, ok = LocateNode("模型", c)
	require.True(t, ok)
	assert.Equal(t, "并发基础 / 并发模型", res.NodePath)

	_, ok = LocateNode("nothing", c)
	assert.False(t, ok)
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, "x", CleanResponse("  x  "))
	assert.Equal(t, "body", CleanResponse("```markdown\nbody\n```"))
	assert.Equal(t, "```go\ncode\n```", CleanResponse("```go\ncode\n```"))
}
