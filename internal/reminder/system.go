package reminder

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nhle/voiceflow/internal/model"
)

// Kind identifies the domain entity a reminder belongs to.
type Kind string

const (
	KindTask  Kind = "task"
	KindEvent Kind = "event"
)

// Purpose distinguishes reminder sub-types for the same item.
type Purpose string

const (
	// PurposeDueSoon fires one hour before a task's due date.
	PurposeDueSoon Purpose = "due-soon"

	// PurposeDueNow fires at a task's due date.
	PurposeDueNow Purpose = "due-now"

	// PurposeUpcoming fires at an event's reminder time.
	PurposeUpcoming Purpose = "upcoming"
)

// dueSoonLead is how far ahead of a task's due date its early reminder fires.
const dueSoonLead = time.Hour

// upcomingWindow bounds the UpcomingReminders query.
const upcomingWindow = 24 * time.Hour

// key uniquely identifies a live reminder.
type key struct {
	kind    Kind
	purpose Purpose
	itemID  string
}

func (k key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.kind, k.purpose, k.itemID)
}

// Reminder is a scheduled one-shot notification tied to a task or event.
// Reminders are owned exclusively by the System; they are removed when they
// fire, when cancelled, or when the owning item's date changes (in which
// case a fresh reminder replaces them, never mutated in place).
type Reminder struct {
	Kind          Kind
	Purpose       Purpose
	Title         string
	Message       string
	ScheduledTime time.Time
	ItemID        string
	IsActive      bool
}

// System owns the live set of pending reminders and their armed timers.
// It is an explicit instance with injected clock, notification sink, and
// signal bus; callers only invoke its operations and never touch timer
// handles directly.
type System struct {
	clock Clock
	sink  Sink
	bus   *Bus

	mu        sync.Mutex
	reminders map[key]*Reminder
	timers    map[key]Timer
}

// NewSystem creates a reminder system with the given dependencies.
func NewSystem(clock Clock, sink Sink, bus *Bus) *System {
	return &System{
		clock:     clock,
		sink:      sink,
		bus:       bus,
		reminders: make(map[key]*Reminder),
		timers:    make(map[key]Timer),
	}
}

// RequestNotificationPermission negotiates native delivery with the sink.
// Absence of permission only suppresses the native side effect; the
// in-process fired signal still publishes.
func (s *System) RequestNotificationPermission() bool {
	return s.sink.RequestPermission()
}

// ScheduleTaskReminders (re)populates reminders for a batch of tasks.
// Each incomplete task with a due date gets a due-soon reminder one hour
// ahead and a due-now reminder at the due date itself, skipping any fire
// time not strictly in the future. Calling this again with unchanged due
// dates leaves existing timers untouched; a changed due date cancels and
// recreates the affected reminders. Completed tasks have any lingering
// reminders cancelled.
func (s *System) ScheduleTaskReminders(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range tasks {
		if task.IsCompleted || task.DueDate == nil {
			s.cancelItemLocked(task.ID, KindTask)
			continue
		}

		due := *task.DueDate
		s.upsertLocked(&Reminder{
			Kind:          KindTask,
			Purpose:       PurposeDueSoon,
			Title:         "Task Due Soon",
			Message:       fmt.Sprintf("Don't forget: %s", task.Description),
			ScheduledTime: due.Add(-dueSoonLead),
			ItemID:        task.ID,
			IsActive:      true,
		})
		s.upsertLocked(&Reminder{
			Kind:          KindTask,
			Purpose:       PurposeDueNow,
			Title:         "Task Overdue",
			Message:       fmt.Sprintf("Overdue task: %s", task.Description),
			ScheduledTime: due,
			ItemID:        task.ID,
			IsActive:      true,
		})
	}
}

// ScheduleEventReminders (re)populates reminders for a batch of events.
// Each event gets one reminder at its reminder time if still in the
// future, with the same idempotence rule as task scheduling.
func (s *System) ScheduleEventReminders(events []model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range events {
		s.upsertLocked(&Reminder{
			Kind:          KindEvent,
			Purpose:       PurposeUpcoming,
			Title:         "Upcoming Event",
			Message:       fmt.Sprintf("%s starts at %s", event.Title, event.StartTime.Format("3:04 PM")),
			ScheduledTime: event.ReminderTime,
			ItemID:        event.ID,
			IsActive:      true,
		})
	}
}

// upsertLocked installs a reminder under its composite key. An existing
// reminder with an unchanged fire time is left untouched; a changed fire
// time invalidates the stale timer before the replacement is armed. A fire
// time not strictly in the future is a silent skip, never an error.
func (s *System) upsertLocked(r *Reminder) {
	k := key{kind: r.Kind, purpose: r.Purpose, itemID: r.ItemID}

	if existing, ok := s.reminders[k]; ok {
		if existing.ScheduledTime.Equal(r.ScheduledTime) {
			return
		}
		s.cancelLocked(k)
	}

	delay := r.ScheduledTime.Sub(s.clock.Now())
	if delay <= 0 {
		return
	}

	s.reminders[k] = r
	s.timers[k] = s.clock.AfterFunc(delay, func() {
		s.fire(k)
	})
}

// fire emits the reminder-fired signal and removes the reminder from the
// live set. Fired is terminal and self-cleaning; no history is retained.
func (s *System) fire(k key) {
	s.mu.Lock()
	r, ok := s.reminders[k]
	if ok {
		delete(s.reminders, k)
		delete(s.timers, k)
	}
	s.mu.Unlock()

	// A timer can race its own cancellation; the map is authoritative.
	if !ok {
		return
	}

	log.Debug().Str("reminder", k.String()).Msg("reminder fired")

	s.bus.Publish(Fired{
		Kind:    r.Kind,
		Title:   r.Title,
		Message: r.Message,
		ItemID:  r.ItemID,
	})
	s.sink.Deliver(r.Title, r.Message, k.String())
}

// CancelItemReminders cancels and removes every reminder belonging to the
// given item, disarming its timers. Must be called when an item is marked
// complete or deleted so no stale notification fires for it.
func (s *System) CancelItemReminders(itemID string, kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelItemLocked(itemID, kind)
}

func (s *System) cancelItemLocked(itemID string, kind Kind) {
	for k := range s.reminders {
		if k.itemID == itemID && k.kind == kind {
			s.cancelLocked(k)
		}
	}
}

func (s *System) cancelLocked(k key) {
	if t, ok := s.timers[k]; ok {
		t.Stop()
		delete(s.timers, k)
	}
	delete(s.reminders, k)
}

// ActiveReminders returns a snapshot of all live reminders.
func (s *System) ActiveReminders() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		out = append(out, *r)
	}
	return out
}

// UpcomingReminders returns the live reminders scheduled within the next
// 24 hours, ascending by scheduled time.
func (s *System) UpcomingReminders() []Reminder {
	now := s.clock.Now()
	horizon := now.Add(upcomingWindow)

	s.mu.Lock()
	out := make([]Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		if !r.ScheduledTime.Before(now) && !r.ScheduledTime.After(horizon) {
			out = append(out, *r)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out
}

// ClearAll disarms every timer and empties the reminder set. Used at
// session teardown.
func (s *System) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.reminders {
		s.cancelLocked(k)
	}
}
