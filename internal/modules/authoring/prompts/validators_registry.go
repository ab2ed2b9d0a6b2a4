package prompts

// validators are attached to catalogue entries by name; the YAML carries text only.
var validators = map[PromptName][]Validator{
	PromptGenerateCourse: {
		RequireNonEmpty("Keyword", func(in Input) string { return in.Keyword }),
	},
	PromptGenerateSubNodes: {
		RequireNonEmpty("NodeName", func(in Input) string { return in.NodeName }),
	},
	PromptGenerateContent: {
		RequireNonEmpty("NodeName", func(in Input) string { return in.NodeName }),
	},
	PromptRedefineContent: {
		RequireNonEmpty("NodeName", func(in Input) string { return in.NodeName }),
	},
	PromptExtendContent: {
		RequireNonEmpty("NodeName", func(in Input) string { return in.NodeName }),
	},
	PromptGenerateQuiz: {
		RequireNonEmpty("Content", func(in Input) string { return in.Content }),
		RequirePositive("QuestionCount", func(in Input) int { return in.QuestionCount }),
	},
	PromptSummarizeNote: {
		RequireNonEmpty("Content", func(in Input) string { return in.Content }),
	},
	PromptSummarizeHistory: {
		RequireNonEmpty("History", func(in Input) string { return in.History }),
	},
	PromptSummarizeChat: {
		RequireNonEmpty("History", func(in Input) string { return in.History }),
	},
	PromptKnowledgeGraph: {
		RequireNonEmpty("CourseName", func(in Input) string { return in.CourseName }),
	},
}
