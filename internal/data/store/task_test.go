package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/knowledgemap-backend/internal/domain/jobs"
	"github.com/yungbote/knowledgemap-backend/internal/pkg/dbctx"
)

func TestListTasksOrdersByStatusPriority(t *testing.T) {
	s := newTestStore(t)
	dbc := dbctx.Of(context.Background())
	for _, st := range []string{jobs.StatusCompleted, jobs.StatusFailed, jobs.StatusPending, jobs.StatusPaused, jobs.StatusRunning} {
		_, err := s.CreateTask(dbc, &jobs.CourseTask{CourseID: "c-" + st, Status: st})
		require.NoError(t, err)
	}
	list, err := s.ListTasks(dbc, 0)
	require.NoError(t, err)
	var got []string
	for _, task := range list {
		got = append(got, task.Status)
	}
	assert.Equal(t, []string{jobs.StatusRunning, jobs.StatusPending, jobs.StatusPaused, jobs.StatusFailed, jobs.StatusCompleted}, got)
}

func TestListRunnableTasksStalestFirstAndExcludes(t *testing.T) {
	s := newTestStore(t)
	dbc := dbctx.Of(context.Background())
	a, err := s.CreateTask(dbc, &jobs.CourseTask{CourseID: "a"})
	require.NoError(t, err)
	b, err := s.CreateTask(dbc, &jobs.CourseTask{CourseID: "b"})
	require.NoError(t, err)
	_, err = s.CreateTask(dbc, &jobs.CourseTask{CourseID: "p", Status: jobs.StatusPaused})
	require.NoError(t, err)

	// a becomes the freshest
	require.NoError(t, s.UpdateTaskFields(dbc, a.ID, map[string]interface{}{"updated_at": time.Now().UTC().Add(time.Minute)}))

	list, err := s.ListRunnableTasks(dbc, nil, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)

	list, err = s.ListRunnableTasks(dbc, []string{b.ID}, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestConditionalTaskUpdates(t *testing.T) {
	s := newTestStore(t)
	dbc := dbctx.Of(context.Background())
	task, err := s.CreateTask(dbc, &jobs.CourseTask{CourseID: "c1", Status: jobs.StatusPaused})
	require.NoError(t, err)

	ok, err := s.UpdateTaskFieldsIfStatus(dbc, task.ID, []string{jobs.StatusPending, jobs.StatusRunning}, map[string]interface{}{"status": jobs.StatusRunning})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.UpdateTaskFieldsUnlessStatus(dbc, task.ID, []string{jobs.StatusCompleted, jobs.StatusFailed}, map[string]interface{}{"status": jobs.StatusPending})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetTask(dbc, task.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusPending, got.Status)
}

func TestDeleteTasksByStatusAndCourse(t *testing.T) {
	s := newTestStore(t)
	dbc := dbctx.Of(context.Background())
	_, err := s.CreateTask(dbc, &jobs.CourseTask{CourseID: "c1", Status: jobs.StatusFailed})
	require.NoError(t, err)
	_, err = s.CreateTask(dbc, &jobs.CourseTask{CourseID: "c1"})
	require.NoError(t, err)
	_, err = s.CreateTask(dbc, &jobs.CourseTask{CourseID: "c2"})
	require.NoError(t, err)

	n, err := s.DeleteTasksByStatus(dbc, jobs.StatusFailed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.DeleteTasksByCourse(dbc, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	counts, err := s.CountTasksByStatus(dbc)
	require.NoError(t, err)
	assert.EqualValues(t, map[string]int64{jobs.StatusPending: 1}, counts)

	latest, err := s.LatestTaskForCourse(dbc, "c2")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "c2", latest.CourseID)
}
