package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/voiceflow/internal/model"
)

// ErrNotFound is returned when an operation targets a task or event
// that does not exist.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err (or any error in its chain) is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// TaskUpdate holds the optional fields of a partial task update.
// Nil pointers leave the current value untouched.
type TaskUpdate struct {
	Description *string
	IsCompleted *bool
	DueDate     *time.Time

	// ClearDueDate removes the due date. Takes precedence over DueDate.
	ClearDueDate bool
}

// EventUpdate holds the optional fields of a partial event update.
// Nil pointers leave the current value untouched.
type EventUpdate struct {
	Title        *string
	StartTime    *time.Time
	EndTime      *time.Time
	ReminderTime *time.Time
}

// Store defines the persistence contract consumed by the voice session
// controller and the UI. Create operations assign the entity's ID and
// CreatedAt; update operations return the full updated record.
type Store interface {
	// === Tasks ===

	CreateTask(ctx context.Context, userID, description string, dueDate *time.Time) (*model.Task, error)
	GetTasks(ctx context.Context, userID string) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, update TaskUpdate) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error

	// === Events ===

	CreateEvent(ctx context.Context, userID, title string, startTime, endTime, reminderTime time.Time) (*model.Event, error)
	GetEvents(ctx context.Context, userID string) ([]model.Event, error)
	GetEventByID(ctx context.Context, id string) (*model.Event, error)
	UpdateEvent(ctx context.Context, id string, update EventUpdate) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	Close() error
}
