package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/knowledgemap-backend/internal/domain/chat"
	"github.com/yungbote/knowledgemap-backend/internal/memory"
	"github.com/yungbote/knowledgemap-backend/internal/modules/authoring"
	"github.com/yungbote/knowledgemap-backend/internal/platform/apierr"
	"github.com/yungbote/knowledgemap-backend/internal/platform/llm"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
)

const (
	tutorHistoryTurns = 5
	noneText          = "无"
	defaultPersona    = "通用学习者"
)

type AskInput struct {
	CourseID    string         `json:"course_id"`
	NodeID      string         `json:"node_id"`
	NodeName    string         `json:"node_name"`
	NodeContent string         `json:"node_content"`
	Question    string         `json:"question"`
	History     []chat.Message `json:"history"`
	Selection   string         `json:"selection"`
	UserNotes   string         `json:"user_notes"`
	UserPersona string         `json:"user_persona"`
}

type SummarizeChatInput struct {
	History       []chat.Message `json:"history"`
	CourseContext string         `json:"course_context"`
	UserPersona   string         `json:"user_persona"`
}

type TutorService interface {
	// Ask streams the answer followed by "---METADATA---" and a JSON object
	// naming the node, a quote and a note summary.
	Ask(ctx context.Context, in AskInput, onDelta func(string)) error
	SummarizeChat(ctx context.Context, in SummarizeChatInput) authoring.ChatSummary
}

type tutorService struct {
	log       *logger.Logger
	llm       llm.Client
	gen       *authoring.Generator
	assembler *memory.Assembler
}

func NewTutorService(baseLog *logger.Logger, client llm.Client, gen *authoring.Generator, assembler *memory.Assembler) TutorService {
	return &tutorService{
		log:       baseLog.With("service", "TutorService"),
		llm:       client,
		gen:       gen,
		assembler: assembler,
	}
}

func (s *tutorService) Ask(ctx context.Context, in AskInput, onDelta func(string)) error {
	if strings.TrimSpace(in.Question) == "" {
		return apierr.BadRequest("missing_question", "question is required")
	}
	system, history := s.systemPrompt(ctx, in)
	user := tutorUserPrompt(in, history)
	if _, err := s.llm.Stream(ctx, system, user, llm.TierSmart, onDelta); err != nil {
		s.log.Warn("tutor stream failed", "course_id", in.CourseID, "node_id", in.NodeID, "error", err)
		return err
	}
	return nil
}

// systemPrompt uses the assembled course memory when the question is anchored
// to a course node, and a generic tutor prompt otherwise.
func (s *tutorService) systemPrompt(ctx context.Context, in AskInput) (string, []chat.Message) {
	if s.assembler != nil && strings.TrimSpace(in.CourseID) != "" && strings.TrimSpace(in.NodeID) != "" {
		res := s.assembler.BuildPrompt(ctx, memory.Request{
			CourseID: in.CourseID,
			NodeID:   in.NodeID,
			Query:    in.Question,
			History:  in.History,
		})
		if strings.TrimSpace(res.SystemPrompt) != "" {
			return res.SystemPrompt, res.History
		}
	}
	persona := in.UserPersona
	if strings.TrimSpace(persona) == "" {
		persona = defaultPersona
	}
	return fmt.Sprintf(genericTutorPrompt, persona, memory.MetadataSeparator, in.NodeID), in.History
}

func tutorUserPrompt(in AskInput, history []chat.Message) string {
	if len(history) > tutorHistoryTurns {
		history = history[len(history)-tutorHistoryTurns:]
	}
	var b strings.Builder
	b.WriteString("课程内容片段（正文知识）：\n")
	b.WriteString(in.NodeContent)
	b.WriteString("\n\n用户笔记（学习足迹）：\n")
	b.WriteString(orText(in.UserNotes, noneText))
	b.WriteString("\n\n对话历史：\n")
	b.WriteString(chat.Transcript(history))
	b.WriteString("\n选中内容（用户针对这段文字提问）：\n")
	b.WriteString(orText(in.Selection, noneText))
	b.WriteString("\n\n用户问题：")
	b.WriteString(in.Question)
	b.WriteString("\n\n请开始回答（记得在最后附加元数据）：\n")
	return b.String()
}

func orText(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func (s *tutorService) SummarizeChat(ctx context.Context, in SummarizeChatInput) authoring.ChatSummary {
	return s.gen.SummarizeChat(ctx, in.History, in.CourseContext, in.UserPersona)
}

const genericTutorPrompt = `你是学术助手，请根据提供的课程内容、对话历史和选中的文本回答用户的问题。

用户画像：%s
请根据用户画像调整回答的风格、深度和举例方式。

回答要求：
1. 直接、专业、简洁地回答用户问题，对比和步骤类内容使用 Markdown 表格。
2. 尽量在课程内容中找到支持回答的原句，放入元数据的 quote 字段；找不到时不要编造。
3. 回答结束后另起一段，用加粗字体提出一个后续思考题。

输出格式：正文结束后另起一行输出分隔符 %s，紧接着输出一个 JSON 对象（不要用代码块包裹）：
{"node_id": "%s", "quote": "引用的原文或 null", "anno_summary": "3-5 条 Markdown 列表形式的知识点概括"}
`
