package course

import (
	"time"

	"gorm.io/datatypes"
)

const (
	GraphNodeRoot    = "root"
	GraphNodeModule  = "module"
	GraphNodeConcept = "concept"

	RelationContains = "contains"
	RelationRelated  = "related"
)

type GraphNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	ChapterID   string `json:"chapter_id,omitempty"`
}

type GraphEdge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
	Label    string `json:"label,omitempty"`
}

type KnowledgeGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// KnowledgeGraphRecord stores one graph per course as a JSON document.
type KnowledgeGraphRecord struct {
	CourseID  string         `gorm:"column:course_id;primaryKey" json:"course_id"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (KnowledgeGraphRecord) TableName() string { return "knowledge_graph" }
