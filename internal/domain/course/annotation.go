package course

import "time"

const (
	SourceUser      = "user"
	SourceAI        = "ai"
	SourceUserSaved = "user_saved"
)

type Annotation struct {
	AnnoID      string    `gorm:"column:anno_id;primaryKey" json:"anno_id"`
	NodeID      string    `gorm:"column:node_id;not null;index" json:"node_id"`
	CourseID    string    `gorm:"column:course_id;index" json:"course_id,omitempty"`
	Question    string    `gorm:"column:question" json:"question"`
	Answer      string    `gorm:"column:answer" json:"answer"`
	AnnoSummary string    `gorm:"column:anno_summary" json:"anno_summary"`
	SourceType  string    `gorm:"column:source_type;not null;default:user" json:"source_type"`
	Quote       string    `gorm:"column:quote" json:"quote,omitempty"`
	CreateTime  time.Time `gorm:"column:create_time;not null;index" json:"create_time"`
}

func (Annotation) TableName() string { return "annotation" }

// IsUserNote reports annotations written or kept by the learner.
func (a Annotation) IsUserNote() bool {
	return a.SourceType == SourceUser || a.SourceType == SourceUserSaved
}
