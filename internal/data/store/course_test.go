package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/data/testutil"
	"github.com/yungbote/knowledgemap-backend/internal/domain/course"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(testutil.DB(t), testutil.Logger(t))
}

func TestLoadCourseMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)
	c, err := s.LoadCourse(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	in := testutil.Course("c1", "Go",
		testutil.Chapter("ch1", "Basics"),
		testutil.Section("s1", "ch1", "Syntax", "body"),
	)
	require.NoError(t, s.SaveCourse(ctx, in))

	got, err := s.LoadCourse(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in.Nodes, got.Nodes)

	// survives a cold cache
	s.InvalidateCache()
	got, err = s.LoadCourse(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Go", got.CourseName)
	assert.Len(t, got.Nodes, 2)
}

func TestLoadReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveCourse(ctx, testutil.Course("c1", "Go", testutil.Chapter("ch1", "Basics"))))

	a, err := s.LoadCourse(ctx, "c1")
	require.NoError(t, err)
	a.Nodes[0].NodeName = "mutated"
	a.Nodes = append(a.Nodes, testutil.Chapter("ch2", "Extra"))

	b, err := s.LoadCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Basics", b.Nodes[0].NodeName)
	assert.Len(t, b.Nodes, 1)
}

func TestCorruptPayloadTreatedAsMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.db.Create(&course.Record{CourseID: "bad", CourseName: "x", Payload: []byte(`{"nodes": [`)}).Error)

	c, err := s.LoadCourse(ctx, "bad")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestListCoursesDefaultsName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveCourse(ctx, testutil.Course("c1", "", testutil.Chapter("ch1", "A"))))

	list, err := s.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, untitledCourse, list[0].CourseName)
	assert.Equal(t, 1, list[0].NodeCount)
}

func TestDeleteCourseRemovesAnnotationsAndGraph(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveCourse(ctx, testutil.Course("c1", "Go", testutil.Chapter("ch1", "A"))))
	require.NoError(t, s.SaveAnnotation(ctx, &course.Annotation{AnnoID: "a1", NodeID: "ch1", CourseID: "c1", Answer: "x"}))
	require.NoError(t, s.SaveKnowledgeGraph(ctx, "c1", &course.KnowledgeGraph{Nodes: []course.GraphNode{{ID: "n"}}}))

	ok, err := s.DeleteCourse(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	c, err := s.LoadCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, c)
	annos, err := s.AnnotationsByCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, annos)
	g, err := s.LoadKnowledgeGraph(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, g)

	ok, err = s.DeleteCourse(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateCourseAbortsOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveCourse(ctx, testutil.Course("c1", "Go", testutil.Chapter("ch1", "A"))))

	_, err := s.UpdateCourse(ctx, "c1", func(c *course.Course) error {
		c.CourseName = "changed"
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := s.LoadCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Go", got.CourseName)
}
