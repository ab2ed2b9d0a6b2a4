package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Courses
		&course.Record{},
		&course.Annotation{},
		&course.KnowledgeGraphRecord{},

		// Generation tasks
		&jobs.CourseTask{},
	)
}
