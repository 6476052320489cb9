package model

import "time"

// Task is a to-do item captured from a voice command (or created directly).
type Task struct {
	// ID is the unique identifier for this task.
	ID string `db:"id" json:"task_id"`

	// UserID identifies the owner of this task.
	UserID string `db:"user_id" json:"user_id"`

	// Description is the task text. Never empty.
	Description string `db:"description" json:"description"`

	// IsCompleted marks the task as done. Completed tasks keep their
	// due date but carry no active reminder.
	IsCompleted bool `db:"is_completed" json:"is_completed"`

	// CreatedAt is set once at creation and never changes.
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// DueDate is the optional deadline for this task.
	DueDate *time.Time `db:"due_date" json:"due_date,omitempty"`
}
