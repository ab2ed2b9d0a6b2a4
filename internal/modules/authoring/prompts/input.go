package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Course configuration
	Keyword      string
	Difficulty   string
	Style        string
	Requirements string
	CourseName   string
	// Outline context
	CourseOutline string
	ParentContext string
	CourseContext string
	// Node
	NodeName        string
	NodeLevel       int
	OriginalContent string
	PreviousContext string
	Requirement     string
	// Quiz
	Content         string
	QuestionCount   int
	TypeGuidance    string
	Personalization string
	MistakeFocus    string
	// Conversation
	History string
	Persona string
	// Knowledge graph
	NodesJSON    string
	ChapterLines string
}
