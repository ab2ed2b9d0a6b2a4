package course

const (
	QuizConceptual  = "conceptual"
	QuizApplication = "application"
	QuizAnalysis    = "analysis"
	QuizSynthesis   = "synthesis"
)

type QuizQuestion struct {
	ID              int      `json:"id"`
	Type            string   `json:"type"`
	Question        string   `json:"question"`
	Options         []string `json:"options"`
	CorrectIndex    int      `json:"correct_index"`
	Explanation     string   `json:"explanation"`
	KnowledgePoint  string   `json:"knowledge_point"`
	DifficultyScore int      `json:"difficulty_score"`
}

// QuizMistake is a previously missed question used to steer new quizzes.
type QuizMistake struct {
	Topic        string `json:"topic"`
	QuestionType string `json:"question_type"`
}
