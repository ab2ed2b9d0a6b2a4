package course

import (
	"time"

	"gorm.io/datatypes"
)

// Record is the row backing a Course. The tree itself lives in Payload;
// CourseName and NodeCount are denormalized for listing.
type Record struct {
	CourseID   string         `gorm:"column:course_id;primaryKey" json:"course_id"`
	CourseName string         `gorm:"column:course_name;index" json:"course_name"`
	NodeCount  int            `gorm:"column:node_count;not null;default:0" json:"node_count"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;index" json:"updated_at"`
}

func (Record) TableName() string { return "course" }
