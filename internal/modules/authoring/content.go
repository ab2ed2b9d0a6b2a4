package authoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring/prompts"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
)

const DefaultRedefineDifficulty = "advanced"

type ContentRequest struct {
	NodeName    string
	NodeContext string
	CourseName  string
	Difficulty  string
	Style       string
}

// GenerateContent writes the body text of a section.
func (g *Generator) GenerateContent(ctx context.Context, req ContentRequest) (string, error) {
	courseContext := "课程名称：" + req.CourseName
	if strings.TrimSpace(req.NodeContext) != "" {
		courseContext += "\n上下文线索：" + req.NodeContext
	}
	text, err := g.call(ctx, prompts.PromptGenerateContent, prompts.Input{
		NodeName:      req.NodeName,
		NodeLevel:     2,
		CourseContext: courseContext,
		Difficulty:    orDefault(req.Difficulty, DefaultRedefineDifficulty),
		Style:         orDefault(req.Style, DefaultStyle),
	}, llm.TierSmart)
	if err != nil {
		return "", err
	}
	return CleanResponse(text), nil
}

// FallbackContent is shown in place of a body that could not be generated.
func FallbackContent(nodeName string) string {
	return fmt.Sprintf("## %s\n\n详细正文内容生成中...\n\n请稍后重试。", nodeName)
}

type RedefineRequest struct {
	NodeName        string
	Requirement     string
	OriginalContent string
	CourseContext   string
	PreviousContext string
	Difficulty      string
	Style           string
}

func (r RedefineRequest) input() prompts.Input {
	return prompts.Input{
		NodeName:        r.NodeName,
		Requirement:     r.Requirement,
		OriginalContent: r.OriginalContent,
		CourseContext:   r.CourseContext,
		PreviousContext: r.PreviousContext,
		Difficulty:      orDefault(r.Difficulty, DefaultRedefineDifficulty),
		Style:           orDefault(r.Style, DefaultStyle),
	}
}

func (g *Generator) RedefineContent(ctx context.Context, req RedefineRequest) (string, error) {
	text, err := g.call(ctx, prompts.PromptRedefineContent, req.input(), llm.TierSmart)
	if err != nil {
		return "", err
	}
	return CleanResponse(text), nil
}

// StreamRedefine forwards deltas as they arrive and returns the cleaned full
// text for saving. On failure the error marker has already been emitted.
func (g *Generator) StreamRedefine(ctx context.Context, req RedefineRequest, onDelta func(string)) (string, error) {
	p, err := g.build(prompts.PromptRedefineContent, req.input())
	if err != nil {
		return "", err
	}
	text, err := g.llm.Stream(ctx, p.System, p.User, llm.TierSmart, onDelta)
	if err != nil {
		return "", fmt.Errorf("%s: %w", prompts.PromptRedefineContent, err)
	}
	return CleanResponse(text), nil
}

func FallbackRedefinition(nodeName, requirement string) string {
	return fmt.Sprintf("基于需求 '%s' 重定义的 %s 内容。\n\n1. 核心点一：...\n2. 核心点二：...\n(参考来源：权威资料)", requirement, nodeName)
}

// ExtendContent writes supplementary reading for a node.
func (g *Generator) ExtendContent(ctx context.Context, nodeName, requirement string) (string, error) {
	text, err := g.call(ctx, prompts.PromptExtendContent, prompts.Input{
		NodeName:    nodeName,
		Requirement: requirement,
	}, llm.TierSmart)
	if err != nil {
		return "", err
	}
	return CleanResponse(text), nil
}

func FallbackExtension(nodeName, requirement string) string {
	return fmt.Sprintf("拓展知识点：\n关于 %s 的延伸阅读... %s", nodeName, requirement)
}
