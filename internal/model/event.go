package model

import "time"

// DefaultReminderLead is how long before an event's start time its
// reminder fires when the user did not ask for a specific reminder.
const DefaultReminderLead = 30 * time.Minute

// Event is a calendar entry captured from a voice command.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `db:"id" json:"event_id"`

	// UserID identifies the owner of this event.
	UserID string `db:"user_id" json:"user_id"`

	// Title is the human-readable event summary. Never empty.
	Title string `db:"title" json:"title"`

	// StartTime is when the event begins.
	StartTime time.Time `db:"start_time" json:"start_time"`

	// EndTime is when the event ends. Always >= StartTime.
	EndTime time.Time `db:"end_time" json:"end_time"`

	// ReminderTime is when the reminder for this event fires.
	// Defaults to StartTime - DefaultReminderLead.
	ReminderTime time.Time `db:"reminder_time" json:"reminder_time"`

	// CreatedAt is set once at creation and never changes.
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
