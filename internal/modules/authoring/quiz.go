package authoring

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring/prompts"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
)

const (
	DefaultQuestionCount = 3
	minQuizContentRunes  = 50
)

var quizTypeGuidance = map[string]string{
	"mixed":       "混合题型：40%概念理解 + 40%应用分析 + 20%综合判断",
	"conceptual":  "概念题型：侧重基础概念和定义的理解",
	"application": "应用题型：侧重实际场景应用和问题解决",
	"analysis":    "分析题型：侧重逻辑推理和深度分析",
}

type QuizRequest struct {
	Content       string
	NodeName      string
	Difficulty    string
	Style         string
	Persona       string
	QuestionCount int
	QuizType      string
	Mistakes      []course.QuizMistake
}

// rawQuestion mirrors QuizQuestion with optional fields so omissions can be
// told apart from zero values.
type rawQuestion struct {
	ID              *int     `json:"id"`
	Type            *string  `json:"type"`
	Question        *string  `json:"question"`
	Options         []string `json:"options"`
	CorrectIndex    *int     `json:"correct_index"`
	Explanation     *string  `json:"explanation"`
	KnowledgePoint  *string  `json:"knowledge_point"`
	DifficultyScore *int     `json:"difficulty_score"`
}

// GenerateQuiz never fails: unusable model output falls back to template
// questions steered by past mistakes.
func (g *Generator) GenerateQuiz(ctx context.Context, req QuizRequest) []course.QuizQuestion {
	count := req.QuestionCount
	if count <= 0 {
		count = DefaultQuestionCount
	}
	difficulty := orDefault(req.Difficulty, DefaultDifficulty)

	content := req.Content
	if utf8.RuneCountInString(strings.TrimSpace(content)) < minQuizContentRunes {
		content = fmt.Sprintf("Topic: %s\n(The detailed content is missing, please generate general questions based on this topic)", req.NodeName)
	}
	guidance, ok := quizTypeGuidance[req.QuizType]
	if !ok {
		guidance = quizTypeGuidance["mixed"]
	}
	in := prompts.Input{
		Content:       content,
		Difficulty:    difficulty,
		Style:         orDefault(req.Style, DefaultStyle),
		QuestionCount: count,
		TypeGuidance:  guidance,
	}
	if strings.TrimSpace(req.Persona) != "" {
		in.Personalization = "用户画像：" + req.Persona + "\n请根据用户背景调整题目难度和表述方式。"
	}
	if len(req.Mistakes) > 0 {
		recent := req.Mistakes
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		topics := make([]string, 0, len(recent))
		for _, m := range recent {
			topics = append(topics, m.Topic)
		}
		in.MistakeFocus = "用户之前在以下知识点容易出错：" + strings.Join(topics, ", ") + "\n请针对这些薄弱环节设计题目。"
	}

	text, err := g.call(ctx, prompts.PromptGenerateQuiz, in, llm.TierSmart)
	if err == nil {
		if raw, ok := decodeQuestions(text); ok {
			return validateQuestions(raw, count)
		}
	}
	g.log.Warn("quiz generation failed, using fallback", "node_name", req.NodeName, "error", err)
	return FallbackQuiz(req.NodeName, count, req.Mistakes)
}

func decodeQuestions(text string) ([]rawQuestion, bool) {
	var arr []rawQuestion
	if err := llm.ExtractJSON(text, &arr); err == nil && len(arr) > 0 {
		return arr, true
	}
	var wrapped struct {
		Questions []rawQuestion `json:"questions"`
	}
	if err := llm.ExtractJSON(text, &wrapped); err == nil && len(wrapped.Questions) > 0 {
		return wrapped.Questions, true
	}
	return nil, false
}

// validateQuestions keeps at most expected questions and fills missing fields.
func validateQuestions(raw []rawQuestion, expected int) []course.QuizQuestion {
	if len(raw) > expected {
		raw = raw[:expected]
	}
	out := make([]course.QuizQuestion, 0, len(raw))
	for i, q := range raw {
		v := course.QuizQuestion{
			ID:              i + 1,
			Type:            course.QuizConceptual,
			Question:        "题目加载失败",
			Options:         []string{"选项A", "选项B", "选项C", "选项D"},
			CorrectIndex:    0,
			Explanation:     "暂无解析",
			KnowledgePoint:  "未知知识点",
			DifficultyScore: 3,
		}
		if q.ID != nil {
			v.ID = *q.ID
		}
		if q.Type != nil {
			v.Type = *q.Type
		}
		if q.Question != nil {
			v.Question = *q.Question
		}
		if q.Options != nil {
			v.Options = q.Options
		}
		if q.CorrectIndex != nil {
			v.CorrectIndex = *q.CorrectIndex
		}
		if q.Explanation != nil {
			v.Explanation = *q.Explanation
		}
		if q.KnowledgePoint != nil {
			v.KnowledgePoint = *q.KnowledgePoint
		}
		if q.DifficultyScore != nil {
			v.DifficultyScore = *q.DifficultyScore
		}
		out = append(out, v)
	}
	return out
}

// FallbackQuiz returns template questions about nodeName. Question types the
// learner recently missed are served first.
func FallbackQuiz(nodeName string, count int, mistakes []course.QuizMistake) []course.QuizQuestion {
	topic := nodeName
	if strings.TrimSpace(topic) == "" {
		topic = "此主题"
	}
	base := templateQuestions(topic)

	if len(mistakes) > 0 {
		recent := mistakes
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		weak := map[string]bool{}
		for _, m := range recent {
			t := m.QuestionType
			if t == "" {
				t = course.QuizConceptual
			}
			weak[t] = true
		}
		var prioritized, other []course.QuizQuestion
		for _, q := range base {
			if weak[q.Type] {
				prioritized = append(prioritized, q)
			} else {
				other = append(other, q)
			}
		}
		base = append(prioritized, other...)
	}
	if count < len(base) {
		base = base[:count]
	}
	return base
}

func templateQuestions(topic string) []course.QuizQuestion {
	return []course.QuizQuestion{
		{
			ID:       1,
			Type:     course.QuizConceptual,
			Question: fmt.Sprintf("关于「%s」的核心概念，以下描述正确的是？", topic),
			Options: []string{
				topic + " 是一个孤立的概念，与其他知识无关",
				topic + " 是该学科体系中的关键组成部分",
				topic + " 已经被现代理论完全推翻",
				topic + " 仅在特定极端情况下适用",
			},
			CorrectIndex:    1,
			Explanation:     fmt.Sprintf("**解析**：%s 作为核心知识点，在学科体系中起着承上启下的作用，是理解后续内容的基础。", topic),
			KnowledgePoint:  topic + "的核心概念",
			DifficultyScore: 2,
		},
		{
			ID:              2,
			Type:            course.QuizApplication,
			Question:        fmt.Sprintf("在实际应用中，理解「%s」主要有助于解决什么问题？", topic),
			Options:         []string{"历史背景的考证", "复杂系统中的关键机制分析", "无关数据的随机处理", "纯粹的理论推导游戏"},
			CorrectIndex:    1,
			Explanation:     fmt.Sprintf("**解析**：掌握%s的原理，能够帮助我们分析和处理实际系统中的复杂机制与关键问题。", topic),
			KnowledgePoint:  topic + "的实际应用",
			DifficultyScore: 3,
		},
		{
			ID:              3,
			Type:            course.QuizAnalysis,
			Question:        fmt.Sprintf("对于初学者来说，学习「%s」最大的挑战通常是？", topic),
			Options:         []string{"概念过于简单，缺乏挑战", "理解其抽象逻辑与实际场景的映射", "相关资料太少，无法查阅", "没有任何挑战，一学就会"},
			CorrectIndex:    1,
			Explanation:     fmt.Sprintf("**解析**：%s往往包含一定的抽象逻辑，将其准确映射到实际应用场景中是初学者常见的难点。", topic),
			KnowledgePoint:  topic + "的学习难点",
			DifficultyScore: 3,
		},
		{
			ID:              4,
			Type:            course.QuizConceptual,
			Question:        fmt.Sprintf("以下哪项不是「%s」的典型特征？", topic),
			Options:         []string{"系统性", "逻辑性", "随意性", "实用性"},
			CorrectIndex:    2,
			Explanation:     fmt.Sprintf("**解析**：%s作为科学或专业知识，具有严密的逻辑和系统性，绝非随意构建。", topic),
			KnowledgePoint:  topic + "的特征",
			DifficultyScore: 2,
		},
		{
			ID:              5,
			Type:            course.QuizSynthesis,
			Question:        fmt.Sprintf("深入掌握「%s」后，下一步通常应该学习？", topic),
			Options:         []string{"放弃该学科", "该领域的进阶理论或相关交叉学科", "完全不相关的领域", "重复学习基础概念"},
			CorrectIndex:    1,
			Explanation:     "**解析**：在掌握基础后，进阶理论或交叉学科的应用是深入研究的必经之路。",
			KnowledgePoint:  topic + "的学习路径",
			DifficultyScore: 4,
		},
	}
}
