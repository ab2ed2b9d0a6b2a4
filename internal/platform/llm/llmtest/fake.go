package llmtest

import (
	"context"
	"sync"

	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
)

// Request records one call made against Fake.
type Request struct {
	System string
	User   string
	Tier   llm.Tier
}

// Fake is a scripted llm.Client. Respond decides every answer; when it is nil
// the fake returns Text.
type Fake struct {
	Text    string
	Err     error
	Respond func(req Request) (string, error)

	mu       sync.Mutex
	requests []Request
}

var _ llm.Client = (*Fake)(nil)

func (f *Fake) Call(ctx context.Context, system, user string, tier llm.Tier) (string, error) {
	return f.answer(ctx, Request{System: system, User: user, Tier: tier})
}

func (f *Fake) Stream(ctx context.Context, system, user string, tier llm.Tier, onDelta func(string)) (string, error) {
	text, err := f.answer(ctx, Request{System: system, User: user, Tier: tier})
	if onDelta != nil {
		if text != "" {
			onDelta(text)
		}
		if err != nil {
			onDelta("\n[Error: " + err.Error() + "]")
		}
	}
	return text, err
}

func (f *Fake) answer(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.Respond
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if respond != nil {
		return respond(req)
	}
	return f.Text, f.Err
}

func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}
