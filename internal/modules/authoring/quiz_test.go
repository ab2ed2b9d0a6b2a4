package authoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm/llmtest"
)

func TestGenerateQuizValidatesAndCaps(t *testing.T) {
	fake := &llmtest.Fake{Text: `[
		{"id": 7, "type": "analysis", "question": "Q1", "options": ["a","b"], "correct_index": 1},
		{"question": "Q2"},
		{"question": "Q3"},
		{"question": "Q4"}
	]`}
	qs := newGen(t, fake).GenerateQuiz(context.Background(), QuizRequest{Content: "short", NodeName: "Topic", QuestionCount: 3})
	require.Len(t, qs, 3)
	assert.Equal(t, 7, qs[0].ID)
	assert.Equal(t, []string{"a", "b"}, qs[0].Options)

	q2 := qs[1]
	assert.Equal(t, 2, q2.ID)
	assert.Equal(t, course.QuizConceptual, q2.Type)
	assert.Equal(t, []string{"选项A", "选项B", "选项C", "选项D"}, q2.Options)
	assert.Equal(t, "暂无解析", q2.Explanation)
	assert.Equal(t, "未知知识点", q2.KnowledgePoint)
	assert.Equal(t, 3, q2.DifficultyScore)

	assert.Contains(t, fake.Requests()[0].User, "Topic: Topic")
}

func TestGenerateQuizAcceptsWrappedQuestions(t *testing.T) {
	fake := &llmtest.Fake{Text: `{"questions":[{"question":"only"}]}`}
	qs := newGen(t, fake).GenerateQuiz(context.Background(), QuizRequest{Content: "c", NodeName: "n"})
	require.Len(t, qs, 1)
	assert.Equal(t, "only", qs[0].Question)
}

func TestGenerateQuizFallsBackOnFailure(t *testing.T) {
	qs := newGen(t, &llmtest.Fake{Err: errors.New("down")}).GenerateQuiz(context.Background(),
		QuizRequest{NodeName: "指针", QuestionCount: 2})
	require.Len(t, qs, 2)
	assert.Contains(t, qs[0].Question, "「指针」")
	assert.Equal(t, 1, qs[0].CorrectIndex)
}

func TestFallbackQuizPrioritisesWeakTypes(t *testing.T) {
	qs := FallbackQuiz("X", 3, []course.QuizMistake{{QuestionType: course.QuizSynthesis}, {QuestionType: course.QuizAnalysis}})
	require.Len(t, qs, 3)
	assert.Equal(t, course.QuizAnalysis, qs[0].Type)
	assert.Equal(t, course.QuizSynthesis, qs[1].Type)
	assert.Equal(t, course.QuizConceptual, qs[2].Type)
}

func TestFallbackQuizDefaults(t *testing.T) {
	qs := FallbackQuiz("", 10, nil)
	require.Len(t, qs, 5)
	assert.Contains(t, qs[0].Question, "「此主题」")
	assert.Equal(t, []int{1, 1, 1, 2, 1}, []int{qs[0].CorrectIndex, qs[1].CorrectIndex, qs[2].CorrectIndex, qs[3].CorrectIndex, qs[4].CorrectIndex})
	assert.Equal(t, []int{2, 3, 3, 2, 4}, []int{qs[0].DifficultyScore, qs[1].DifficultyScore, qs[2].DifficultyScore, qs[3].DifficultyScore, qs[4].DifficultyScore})
}
