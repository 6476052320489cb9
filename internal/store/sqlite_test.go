package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/voiceflow/internal/model"
	"github.com/nhle/voiceflow/internal/store"
	"github.com/nhle/voiceflow/tests/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestCreateTask_and_round_trip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	due := time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)
	created, err := s.CreateTask(ctx, "u1", "buy milk", &due)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsCompleted)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Description)
	assert.Equal(t, "u1", got.UserID)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))
}

func TestCreateTask_validation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, "u1", "  ", nil)
	assert.Error(t, err)

	_, err = s.CreateTask(ctx, "", "buy milk", nil)
	assert.Error(t, err)
}

func TestGetTasks_scoped_to_user_newest_first(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, "u1", "first", nil)
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, "u2", "other user", nil)
	require.NoError(t, err)

	tasks, err := s.GetTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "first", tasks[0].Description)
}

func TestUpdateTask_partial_fields(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	due := time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)
	created, err := s.CreateTask(ctx, "u1", "buy milk", &due)
	require.NoError(t, err)

	// Toggle completion only; the other fields stay put.
	updated, err := s.UpdateTask(ctx, created.ID, store.TaskUpdate{IsCompleted: ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	assert.Equal(t, "buy milk", updated.Description)
	require.NotNil(t, updated.DueDate)

	// Clearing the due date is explicit, not a nil pointer.
	updated, err = s.UpdateTask(ctx, created.ID, store.TaskUpdate{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)

	got, err := s.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)
	assert.True(t, got.IsCompleted)
}

func TestUpdateTask_rejects_empty_description(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTask(ctx, "u1", "buy milk", nil)
	require.NoError(t, err)

	_, err = s.UpdateTask(ctx, created.ID, store.TaskUpdate{Description: ptr("  ")})
	assert.Error(t, err)
}

func TestTask_not_found_paths(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetTaskByID(ctx, "missing")
	assert.True(t, store.IsNotFound(err))

	_, err = s.UpdateTask(ctx, "missing", store.TaskUpdate{IsCompleted: ptr(true)})
	assert.True(t, store.IsNotFound(err))

	err = s.DeleteTask(ctx, "missing")
	assert.True(t, store.IsNotFound(err))
}

func TestDeleteTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTask(ctx, "u1", "buy milk", nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(ctx, created.ID))

	_, err = s.GetTaskByID(ctx, created.ID)
	assert.True(t, store.IsNotFound(err))
}

func TestCreateEvent_defaults_reminder_time(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	created, err := s.CreateEvent(ctx, "u1", "standup", start, start.Add(time.Hour), time.Time{})
	require.NoError(t, err)
	assert.True(t, created.ReminderTime.Equal(start.Add(-model.DefaultReminderLead)))

	got, err := s.GetEventByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "standup", got.Title)
	assert.True(t, got.ReminderTime.Equal(created.ReminderTime))
}

func TestCreateEvent_rejects_end_before_start(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	_, err := s.CreateEvent(ctx, "u1", "standup", start, start.Add(-time.Minute), time.Time{})
	assert.Error(t, err)
}

func TestGetEvents_sorted_by_start(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	_, err := s.CreateEvent(ctx, "u1", "later", base.Add(2*time.Hour), base.Add(3*time.Hour), time.Time{})
	require.NoError(t, err)
	_, err = s.CreateEvent(ctx, "u1", "sooner", base, base.Add(time.Hour), time.Time{})
	require.NoError(t, err)

	events, err := s.GetEvents(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "sooner", events[0].Title)
	assert.Equal(t, "later", events[1].Title)
}

func TestUpdateEvent_validates_resulting_window(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	created, err := s.CreateEvent(ctx, "u1", "standup", start, start.Add(time.Hour), time.Time{})
	require.NoError(t, err)

	// Moving the start past the existing end is rejected.
	_, err = s.UpdateEvent(ctx, created.ID, store.EventUpdate{
		StartTime: ptr(start.Add(2 * time.Hour)),
	})
	assert.Error(t, err)

	// A consistent move is accepted.
	updated, err := s.UpdateEvent(ctx, created.ID, store.EventUpdate{
		StartTime: ptr(start.Add(2 * time.Hour)),
		EndTime:   ptr(start.Add(3 * time.Hour)),
		Title:     ptr("standup (moved)"),
	})
	require.NoError(t, err)
	assert.Equal(t, "standup (moved)", updated.Title)
	assert.True(t, updated.StartTime.Equal(start.Add(2*time.Hour)))
}

func TestEvent_not_found_paths(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetEventByID(ctx, "missing")
	assert.True(t, store.IsNotFound(err))

	err = s.DeleteEvent(ctx, "missing")
	assert.True(t, store.IsNotFound(err))
}

func TestDeleteEvent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	created, err := s.CreateEvent(ctx, "u1", "standup", start, start.Add(time.Hour), time.Time{})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEvent(ctx, created.ID))

	_, err = s.GetEventByID(ctx, created.ID)
	assert.True(t, store.IsNotFound(err))
}
