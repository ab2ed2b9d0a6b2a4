package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/data/testutil"
	"github.com/yungbote/knowledgemap-backend/internal/domain/chat"
	"github.com/yungbote/knowledgemap-backend/internal/memory"
	pkgerrors "github.com/yungbote/knowledgemap-backend/internal/pkg/errors"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm/llmtest"
)

const tutorAnswer = "Syntax is the grammar.\n\n---METADATA---\n{\"node_id\":\"s1\",\"quote\":null,\"anno_summary\":\"- grammar\"}"

func newTutor(t *testing.T, fake *llmtest.Fake) (*env, TutorService) {
	t.Helper()
	e := newEnv(t, fake)
	e.seed(t, goCourse())
	log := testutil.Logger(t)
	asm := memory.NewAssembler(e.store, e.store, e.gen, log)
	return e, NewTutorService(log, fake, e.gen, asm)
}

func TestAskAnchoredUsesCourseMemory(t *testing.T) {
	e, svc := newTutor(t, &llmtest.Fake{Text: tutorAnswer})

	var out strings.Builder
	err := svc.Ask(context.Background(), AskInput{
		CourseID:    "c1",
		NodeID:      "s1",
		NodeContent: "body",
		Question:    "what is syntax?",
		History:     []chat.Message{{Role: chat.RoleUser, Content: "hi"}},
	}, func(d string) { out.WriteString(d) })
	require.NoError(t, err)
	assert.Equal(t, tutorAnswer, out.String())

	reqs := e.fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, llm.TierSmart, reqs[0].Tier)
	assert.Contains(t, reqs[0].System, memory.MetadataSeparator)
	assert.Contains(t, reqs[0].System, "Syntax")
	assert.Contains(t, reqs[0].User, "用户问题：what is syntax?")
}

func TestAskWithoutCourseUsesGenericPrompt(t *testing.T) {
	e, svc := newTutor(t, &llmtest.Fake{Text: tutorAnswer})

	err := svc.Ask(context.Background(), AskInput{NodeID: "n9", Question: "q", UserPersona: "beginner"}, nil)
	require.NoError(t, err)
	sys := e.fake.Requests()[0].System
	assert.Contains(t, sys, "beginner")
	assert.Contains(t, sys, memory.MetadataSeparator)
	assert.Contains(t, sys, `"node_id": "n9"`)
}

func TestAskKeepsLastFiveTurns(t *testing.T) {
	var history []chat.Message
	for i := 0; i < 8; i++ {
		history = append(history, chat.Message{Role: chat.RoleUser, Content: "turn" + string(rune('a'+i))})
	}
	user := tutorUserPrompt(AskInput{Question: "q"}, history)
	assert.NotContains(t, user, "turnc")
	assert.Contains(t, user, "turnd")
	assert.Contains(t, user, "turnh")
	assert.Contains(t, user, "选中内容（用户针对这段文字提问）：\n无")
}

func TestAskStreamFailureSurfaces(t *testing.T) {
	_, svc := newTutor(t, &llmtest.Fake{Err: errors.New("boom")})
	var out strings.Builder
	err := svc.Ask(context.Background(), AskInput{Question: "q"}, func(d string) { out.WriteString(d) })
	require.Error(t, err)
	assert.Contains(t, out.String(), "[Error: boom]")

	err = svc.Ask(context.Background(), AskInput{}, nil)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidArgument)
}

func TestSummarizeChatDelegates(t *testing.T) {
	_, svc := newTutor(t, &llmtest.Fake{Text: `{"title":"Recap","content":"- goroutines"}`})
	got := svc.SummarizeChat(context.Background(), SummarizeChatInput{
		History: []chat.Message{{Role: chat.RoleUser, Content: "hi"}},
	})
	assert.Equal(t, "Recap", got.Title)
	assert.Equal(t, "- goroutines", got.Content)
}

func TestAskLongHistorySummaryReachesSmartTier(t *testing.T) {
	fake := &llmtest.Fake{Respond: func(req llmtest.Request) (string, error) {
		if req.Tier == llm.TierFast {
			return "learner already covered goroutine leaks", nil
		}
		return tutorAnswer, nil
	}}
	e, svc := newTutor(t, fake)

	var history []chat.Message
	for i := 0; i < 10; i++ {
		history = append(history, chat.Message{
			Role:    chat.RoleUser,
			Content: "turn" + string(rune('a'+i)) + " " + strings.Repeat("字", 400),
		})
	}
	err := svc.Ask(context.Background(), AskInput{
		CourseID: "c1",
		NodeID:   "s1",
		Question: "and channels?",
		History:  history,
	}, nil)
	require.NoError(t, err)

	reqs := e.fake.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, llm.TierFast, reqs[0].Tier)
	final := reqs[1]
	assert.Equal(t, llm.TierSmart, final.Tier)
	assert.Contains(t, final.System, "CONVERSATION MEMORY")
	assert.Contains(t, final.System, "learner already covered goroutine leaks")
	for _, turn := range []string{"turnf", "turng", "turnh", "turni", "turnj"} {
		assert.Contains(t, final.User, turn)
	}
	assert.NotContains(t, final.User, "turne")
}
