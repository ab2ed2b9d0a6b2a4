package authoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring/prompts"
	"github.com/yungbote/knowledgemap-backend/internal/observability"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

const (
	DefaultDifficulty = "intermediate"
	DefaultStyle      = "academic"
)

// ErrEmptyResponse is returned when the model answered with nothing usable.
var ErrEmptyResponse = errors.New("empty model response")

// Generator turns course structure into prompts and model output back into
// course structure. Every model call goes through the llm gateway.
type Generator struct {
	llm    llm.Client
	log    *logger.Logger
	tracer trace.Tracer
}

func NewGenerator(client llm.Client, baseLog *logger.Logger) *Generator {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Generator{
		llm:    client,
		log:    baseLog.With("component", "Authoring"),
		tracer: observability.Tracer("authoring"),
	}
}

func (g *Generator) build(name prompts.PromptName, in prompts.Input) (prompts.Prompt, error) {
	p, err := prompts.Build(name, in)
	if err != nil {
		return prompts.Prompt{}, fmt.Errorf("build prompt: %w", err)
	}
	return p, nil
}

// call renders name and waits for the full completion.
func (g *Generator) call(ctx context.Context, name prompts.PromptName, in prompts.Input, tier llm.Tier) (string, error) {
	p, err := g.build(name, in)
	if err != nil {
		return "", err
	}
	ctx, span := g.tracer.Start(ctx, "authoring."+string(name), trace.WithAttributes(
		attribute.String("prompt.fingerprint", p.Fingerprint()),
		attribute.Int("prompt.version", p.Version),
		attribute.String("llm.tier", tier.String()),
	))
	defer span.End()

	text, err := g.llm.Call(ctx, p.System, p.User, tier)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return text, nil
}

// callJSON is call followed by ExtractJSON into out.
func (g *Generator) callJSON(ctx context.Context, name prompts.PromptName, in prompts.Input, tier llm.Tier, out any) (string, error) {
	text, err := g.call(ctx, name, in, tier)
	if err != nil {
		return "", err
	}
	if err := llm.ExtractJSON(text, out); err != nil {
		return text, fmt.Errorf("%s: %w", name, err)
	}
	return text, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return strings.ToLower(v)
}
