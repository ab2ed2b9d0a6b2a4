package prompts

type PromptName string

const (
	// Structure
	PromptGenerateCourse   PromptName = "generate_course"
	PromptGenerateSubNodes PromptName = "generate_sub_nodes"

	// Body text
	PromptGenerateContent PromptName = "generate_content"
	PromptRedefineContent PromptName = "redefine_content"
	PromptExtendContent   PromptName = "extend_content"

	// Assessment
	PromptGenerateQuiz PromptName = "generate_quiz"

	// Summaries
	PromptSummarizeNote    PromptName = "summarize_note"
	PromptSummarizeHistory PromptName = "summarize_history"
	PromptSummarizeChat    PromptName = "summarize_chat"

	// Graph
	PromptKnowledgeGraph PromptName = "generate_knowledge_graph"
)
