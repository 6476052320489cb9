package model

import "time"

// IntentKind discriminates the two shapes a parsed voice command can take.
type IntentKind string

const (
	IntentTask  IntentKind = "task"
	IntentEvent IntentKind = "event"
)

// ParsedIntent is the structured result of interpreting one spoken command.
// It is transient: produced once per voice session and consumed immediately
// to build a Task or an Event.
//
// Task intents carry Description and optionally DueDate. Event intents carry
// Title, StartTime, EndTime, and ReminderTime, all resolved to absolute
// times relative to the reference time the parser was given.
type ParsedIntent struct {
	Kind IntentKind

	// Task fields.
	Description string
	DueDate     *time.Time

	// Event fields.
	Title        string
	StartTime    time.Time
	EndTime      time.Time
	ReminderTime time.Time
}
