package memory

import (
	"context"
	"unicode/utf8"

	"github.com/yungbote/knowledgemap-backend/internal/domain/chat"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

const (
	DefaultMaxHistoryTokens = 2000
	DefaultKeepRecent       = 5

	summaryUnavailable = "Previous conversation summary (Auto-summary unavailable)"
)

// Compressor folds the older part of a long conversation into a single
// system message.
type Compressor struct {
	summarizer Summarizer
	log        *logger.Logger
	MaxTokens  int
	KeepRecent int
}

func NewCompressor(summarizer Summarizer, log *logger.Logger) *Compressor {
	if log == nil {
		log = logger.Nop()
	}
	return &Compressor{
		summarizer: summarizer,
		log:        log,
		MaxTokens:  DefaultMaxHistoryTokens,
		KeepRecent: DefaultKeepRecent,
	}
}

// EstimateTokens approximates tokens as runes / 1.5.
func EstimateTokens(history []chat.Message) int {
	runes := 0
	for _, m := range history {
		runes += utf8.RuneCountInString(m.Content)
	}
	return int(float64(runes) / 1.5)
}

func (c *Compressor) Compress(ctx context.Context, history []chat.Message) []chat.Message {
	if EstimateTokens(history) < c.MaxTokens || len(history) <= c.KeepRecent {
		return history
	}
	split := len(history) - c.KeepRecent
	older, recent := history[:split], history[split:]

	summary := summaryUnavailable
	if c.summarizer != nil {
		text, err := c.summarizer.SummarizeHistory(ctx, older)
		if err != nil {
			c.log.Warn("history summary failed", "error", err, "messages", len(older))
		} else if text != "" {
			summary = "Previous conversation summary: " + text
		}
	}

	out := make([]chat.Message, 0, len(recent)+1)
	out = append(out, chat.Message{Role: chat.RoleSystem, Content: "Context Summary: " + summary})
	return append(out, recent...)
}
