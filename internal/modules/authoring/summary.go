package authoring

import (
	"context"
	"strings"

	"github.com/yungbote/knowledgemap-backend/internal/domain/chat"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring/prompts"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
)

const (
	noteExcerptRunes  = 2000
	noteFallbackRunes = 20
)

// SummarizeNote produces a short title for a note on the fast tier. It falls
// back to the first characters of the note.
func (g *Generator) SummarizeNote(ctx context.Context, content string) string {
	text, err := g.call(ctx, prompts.PromptSummarizeNote, prompts.Input{
		Content: firstRunes(content, noteExcerptRunes),
	}, llm.TierFast)
	if err != nil {
		g.log.Warn("note summary failed", "error", err)
		return firstRunes(content, noteFallbackRunes) + "..."
	}
	return strings.TrimSpace(text)
}

// SummarizeHistory condenses older tutoring turns on the fast tier.
func (g *Generator) SummarizeHistory(ctx context.Context, history []chat.Message) (string, error) {
	text, err := g.call(ctx, prompts.PromptSummarizeHistory, prompts.Input{
		History: chat.Transcript(history),
	}, llm.TierFast)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

type ChatSummary struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SummarizeChat writes a recap of a tutoring conversation. Prose output is
// kept as the recap body; a failed call yields a fixed notice.
func (g *Generator) SummarizeChat(ctx context.Context, history []chat.Message, courseContext, persona string) ChatSummary {
	in := prompts.Input{
		History:       chat.Transcript(history),
		CourseContext: courseContext,
		Persona:       persona,
	}
	text, err := g.call(ctx, prompts.PromptSummarizeChat, in, llm.TierSmart)
	if err != nil {
		g.log.Warn("chat summary failed", "error", err)
		return ChatSummary{Title: "总结失败", Content: "无法生成总结。"}
	}
	var out ChatSummary
	if err := llm.ExtractJSON(text, &out); err != nil || strings.TrimSpace(out.Content) == "" {
		return ChatSummary{Title: "对话总结", Content: strings.TrimSpace(text)}
	}
	if strings.TrimSpace(out.Title) == "" {
		out.Title = "对话总结"
	}
	return out
}
