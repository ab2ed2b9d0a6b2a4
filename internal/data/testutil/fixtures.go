package testutil

import (
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
)

// Chapter builds a level-1 node.
func Chapter(id, name string) course.Node {
	return course.Node{
		NodeID:       id,
		ParentNodeID: course.RootParentID,
		NodeName:     name,
		NodeLevel:    course.LevelChapter,
		NodeType:     course.NodeTypeOriginal,
	}
}

// Section builds a level-2 node under parentID.
func Section(id, parentID, name, content string) course.Node {
	return course.Node{
		NodeID:       id,
		ParentNodeID: parentID,
		NodeName:     name,
		NodeLevel:    course.LevelSection,
		NodeContent:  content,
		NodeType:     course.NodeTypeOriginal,
	}
}

// Course assembles a course from nodes.
func Course(id, name string, nodes ...course.Node) *course.Course {
	return &course.Course{CourseID: id, CourseName: name, Nodes: nodes}
}
