package memory

import (
	"strings"

	"github.com/yungbote/knowledgemap-backend/internal/domain/chat"
)

type LearningState string

const (
	StateNewSession    LearningState = "Neutral (New Session)"
	StateNeutral       LearningState = "Neutral"
	StateConfused      LearningState = "Confused"
	StateUnderstanding LearningState = "Understanding"
	StateActive        LearningState = "Active Learning"
)

var (
	confusionKeywords     = []string{"不懂", "难", "为什么", "error", "fail", "hard", "explain again"}
	understandingKeywords = []string{"明白", "懂了", "great", "thanks", "ok", "good"}
)

// Evaluate classifies the learner from the most recent user message.
func Evaluate(history []chat.Message) LearningState {
	if len(history) == 0 {
		return StateNewSession
	}
	last, ok := chat.LastUserMessage(history)
	if !ok {
		return StateNeutral
	}
	text := strings.ToLower(last)
	switch {
	case containsAny(text, confusionKeywords):
		return StateConfused
	case containsAny(text, understandingKeywords):
		return StateUnderstanding
	default:
		return StateActive
	}
}

// Description is the state as written into the tutor prompt.
func (s LearningState) Description() string {
	switch s {
	case StateConfused:
		return "Confused/Struggling - Needs simplified explanation"
	case StateUnderstanding:
		return "Understanding - Ready for next step or deeper detail"
	default:
		return string(s)
	}
}

func (s LearningState) Tone() string {
	switch s {
	case StateConfused:
		return "supportive and simplified"
	case StateUnderstanding:
		return "challenging and deep"
	default:
		return "balanced"
	}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
