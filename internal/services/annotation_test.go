package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/data/testutil"
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	pkgerrors "github.com/yungbote/knowledgemap-backend/internal/pkg/errors"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm/llmtest"
)

var longAnswer = strings.Repeat("goroutines are cheap threads. ", 4)

func newAnnotationService(t *testing.T, fake *llmtest.Fake) (*env, AnnotationService) {
	t.Helper()
	e := newEnv(t, fake)
	return e, NewAnnotationService(testutil.Logger(t), e.store, e.gen)
}

func TestSaveAnnotationReplacesLazySummary(t *testing.T) {
	e, svc := newAnnotationService(t, &llmtest.Fake{Text: "Goroutine 成本"})

	a, err := svc.Save(context.Background(), SaveAnnotationInput{
		NodeID:      "s1",
		Question:    "why?",
		Answer:      longAnswer,
		AnnoSummary: longAnswer[:30],
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.AnnoID, annoIDPrefix))
	assert.Equal(t, "Goroutine 成本", a.AnnoSummary)
	assert.Equal(t, course.SourceUser, a.SourceType)

	reqs := e.fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, llm.TierFast, reqs[0].Tier)
}

func TestSaveAnnotationKeepsDeliberateSummary(t *testing.T) {
	e, svc := newAnnotationService(t, &llmtest.Fake{Text: "unused"})

	a, err := svc.Save(context.Background(), SaveAnnotationInput{
		AnnoID:      "anno_fixed",
		NodeID:      "s1",
		Answer:      longAnswer,
		AnnoSummary: "my own title",
		SourceType:  course.SourceAI,
	})
	require.NoError(t, err)
	assert.Equal(t, "anno_fixed", a.AnnoID)
	assert.Equal(t, "my own title", a.AnnoSummary)
	assert.Empty(t, e.fake.Requests())

	// short answers never reach the model
	_, err = svc.Save(context.Background(), SaveAnnotationInput{NodeID: "s1", Answer: "short", AnnoSummary: "Note"})
	require.NoError(t, err)
	assert.Empty(t, e.fake.Requests())
}

func TestSaveAnnotationValidates(t *testing.T) {
	_, svc := newAnnotationService(t, nil)
	_, err := svc.Save(context.Background(), SaveAnnotationInput{Answer: "x"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
	_, err = svc.Save(context.Background(), SaveAnnotationInput{NodeID: "s1", SourceType: "external"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

func TestIsLazySummary(t *testing.T) {
	assert.True(t, isLazySummary("", longAnswer))
	assert.True(t, isLazySummary("Note", longAnswer))
	assert.True(t, isLazySummary(longAnswer[:25]+"...", longAnswer))
	assert.False(t, isLazySummary("a real title", longAnswer))
}

func TestAnnotationsByCourseFiltersByNode(t *testing.T) {
	e, svc := newAnnotationService(t, nil)
	e.seed(t, goCourse())
	ctx := context.Background()

	for _, node := range []string{"s1", "ch2", "elsewhere"} {
		_, err := svc.Save(ctx, SaveAnnotationInput{NodeID: node, Answer: "n", AnnoSummary: "n"})
		require.NoError(t, err)
	}

	got, err := svc.ByCourse(ctx, "c1")
	require.NoError(t, err)
	var nodes []string
	for _, a := range got {
		nodes = append(nodes, a.NodeID)
	}
	assert.ElementsMatch(t, []string{"s1", "ch2"}, nodes)

	none, err := svc.ByCourse(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateAndDeleteAnnotation(t *testing.T) {
	_, svc := newAnnotationService(t, nil)
	ctx := context.Background()
	a, err := svc.Save(ctx, SaveAnnotationInput{NodeID: "s1", Answer: "old", AnnoSummary: "old"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, a.AnnoID, "new text")
	require.NoError(t, err)
	assert.Equal(t, "new text", updated.Answer)

	_, err = svc.Update(ctx, "anno_missing", "x")
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, a.AnnoID))
	require.NoError(t, svc.Delete(ctx, a.AnnoID))
	left, err := svc.ByNode(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, left)
}
