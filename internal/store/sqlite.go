package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/voiceflow/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// CreateTask inserts a new task, assigning its ID and creation time.
func (s *SQLiteStore) CreateTask(
	ctx context.Context,
	userID, description string,
	dueDate *time.Time,
) (*model.Task, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("task user id must not be empty")
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("task description must not be empty")
	}

	task := model.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Description: description,
		IsCompleted: false,
		CreatedAt:   time.Now().UTC(),
		DueDate:     dueDate,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, description, is_completed, created_at, due_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		task.ID, task.UserID, task.Description, task.IsCompleted,
		task.CreatedAt, task.DueDate,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	return &task, nil
}

// GetTasks retrieves all tasks for a user, newest first.
func (s *SQLiteStore) GetTasks(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.SelectContext(ctx, &tasks, `
		SELECT id, user_id, description, is_completed, created_at, due_date
		FROM tasks WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}

// GetTaskByID retrieves a single task by ID.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := s.db.GetContext(ctx, &task, `
		SELECT id, user_id, description, is_completed, created_at, due_date
		FROM tasks WHERE id = ?`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying task %s: %w", id, err)
	}
	return &task, nil
}

// UpdateTask applies a partial update to a task and returns the result.
func (s *SQLiteStore) UpdateTask(
	ctx context.Context,
	id string,
	update TaskUpdate,
) (*model.Task, error) {
	task, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Description != nil {
		if strings.TrimSpace(*update.Description) == "" {
			return nil, fmt.Errorf("task description must not be empty")
		}
		task.Description = *update.Description
	}
	if update.IsCompleted != nil {
		task.IsCompleted = *update.IsCompleted
	}
	if update.ClearDueDate {
		task.DueDate = nil
	} else if update.DueDate != nil {
		task.DueDate = update.DueDate
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE tasks SET description = ?, is_completed = ?, due_date = ?
		WHERE id = ?`,
		task.Description, task.IsCompleted, task.DueDate, task.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}

	return task, nil
}

// DeleteTask removes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateEvent inserts a new event, assigning its ID and creation time.
// A zero reminderTime defaults to startTime minus the standard lead.
func (s *SQLiteStore) CreateEvent(
	ctx context.Context,
	userID, title string,
	startTime, endTime, reminderTime time.Time,
) (*model.Event, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("event user id must not be empty")
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("event title must not be empty")
	}
	if endTime.Before(startTime) {
		return nil, fmt.Errorf("event end time %s is before start time %s",
			endTime.Format(time.RFC3339), startTime.Format(time.RFC3339))
	}
	if reminderTime.IsZero() {
		reminderTime = startTime.Add(-model.DefaultReminderLead)
	}

	event := model.Event{
		ID:           uuid.New().String(),
		UserID:       userID,
		Title:        title,
		StartTime:    startTime,
		EndTime:      endTime,
		ReminderTime: reminderTime,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, user_id, title, start_time, end_time, reminder_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.UserID, event.Title,
		event.StartTime, event.EndTime, event.ReminderTime, event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	return &event, nil
}

// GetEvents retrieves all events for a user, soonest first.
func (s *SQLiteStore) GetEvents(ctx context.Context, userID string) ([]model.Event, error) {
	var events []model.Event
	err := s.db.SelectContext(ctx, &events, `
		SELECT id, user_id, title, start_time, end_time, reminder_time, created_at
		FROM events WHERE user_id = ?
		ORDER BY start_time ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	return events, nil
}

// GetEventByID retrieves a single event by ID.
func (s *SQLiteStore) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := s.db.GetContext(ctx, &event, `
		SELECT id, user_id, title, start_time, end_time, reminder_time, created_at
		FROM events WHERE id = ?`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying event %s: %w", id, err)
	}
	return &event, nil
}

// UpdateEvent applies a partial update to an event and returns the result.
func (s *SQLiteStore) UpdateEvent(
	ctx context.Context,
	id string,
	update EventUpdate,
) (*model.Event, error) {
	event, err := s.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, fmt.Errorf("event title must not be empty")
		}
		event.Title = *update.Title
	}
	if update.StartTime != nil {
		event.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		event.EndTime = *update.EndTime
	}
	if update.ReminderTime != nil {
		event.ReminderTime = *update.ReminderTime
	}
	if event.EndTime.Before(event.StartTime) {
		return nil, fmt.Errorf("event end time %s is before start time %s",
			event.EndTime.Format(time.RFC3339), event.StartTime.Format(time.RFC3339))
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE events SET title = ?, start_time = ?, end_time = ?, reminder_time = ?
		WHERE id = ?`,
		event.Title, event.StartTime, event.EndTime, event.ReminderTime, event.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating event %s: %w", id, err)
	}

	return event, nil
}

// DeleteEvent removes an event by ID.
func (s *SQLiteStore) DeleteEvent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting event %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}
