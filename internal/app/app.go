package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/nhle/voiceflow/internal/keys"
	"github.com/nhle/voiceflow/internal/reminder"
	"github.com/nhle/voiceflow/internal/session"
	"github.com/nhle/voiceflow/internal/store"
	"github.com/nhle/voiceflow/internal/ui"
	"github.com/nhle/voiceflow/internal/ui/eventlist"
	"github.com/nhle/voiceflow/internal/ui/tasklist"
	"github.com/nhle/voiceflow/internal/ui/voice"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewVoice ViewState = iota
	ViewTasks
	ViewEvents
)

// toastDuration is how long a fired-reminder banner stays on screen.
const toastDuration = 8 * time.Second

// ReminderFiredMsg carries a fired reminder from the bus to the UI.
type ReminderFiredMsg struct {
	Fired reminder.Fired
}

// toastExpiredMsg clears the current reminder banner.
type toastExpiredMsg struct{}

// remindersPrimedMsg reports the startup bulk-scheduling pass.
type remindersPrimedMsg struct {
	Err error
}

// Model is the root Bubble Tea model that manages view routing, layout,
// the reminder toast, and access to the persistence layer.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	store       store.Store
	keys        *keys.KeyMap
	controller  *session.Controller
	reminders   *reminder.System
	userID      string

	voiceView voice.Model
	taskList  tasklist.Model
	eventList eventlist.Model
	firedCh   chan reminder.Fired
	toast     *reminder.Fired
	ready     bool
}

// New creates the root application model and subscribes to the
// reminder-fired bus.
func New(
	s store.Store,
	controller *session.Controller,
	reminders *reminder.System,
	bus *reminder.Bus,
	userID string,
) Model {
	k := keys.DefaultKeyMap()

	// The bus callback runs on a timer goroutine; hand the signal to the
	// Bubble Tea runtime through a buffered channel.
	firedCh := make(chan reminder.Fired, 16)
	bus.Subscribe(func(f reminder.Fired) {
		select {
		case firedCh <- f:
		default:
			log.Warn().Str("item_id", f.ItemID).Msg("dropping reminder signal; UI channel full")
		}
	})

	return Model{
		currentView: ViewVoice,
		layout:      ui.NewLayout(80, 24),
		store:       s,
		keys:        k,
		controller:  controller,
		reminders:   reminders,
		userID:      userID,
		voiceView:   voice.New(controller, k, 80, 24),
		taskList:    tasklist.New(s, reminders, k, userID, 80, 24),
		eventList:   eventlist.New(s, reminders, k, userID, 80, 24),
		firedCh:     firedCh,
	}
}

// Init primes reminders from the store, loads both lists, and starts
// listening for fired reminders.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.primeReminders(),
		m.taskList.Init(),
		m.eventList.Init(),
		m.waitForReminder(),
	)
}

// primeReminders bulk-schedules reminders for everything already in the
// store and negotiates notification permission.
func (m Model) primeReminders() tea.Cmd {
	s, rem, userID := m.store, m.reminders, m.userID
	return func() tea.Msg {
		rem.RequestNotificationPermission()

		ctx := context.Background()
		tasks, err := s.GetTasks(ctx, userID)
		if err != nil {
			return remindersPrimedMsg{Err: fmt.Errorf("loading tasks: %w", err)}
		}
		events, err := s.GetEvents(ctx, userID)
		if err != nil {
			return remindersPrimedMsg{Err: fmt.Errorf("loading events: %w", err)}
		}

		rem.ScheduleTaskReminders(tasks)
		rem.ScheduleEventReminders(events)
		return remindersPrimedMsg{}
	}
}

// waitForReminder blocks on the fired-reminder channel and forwards the
// next signal to the update loop.
func (m Model) waitForReminder() tea.Cmd {
	ch := m.firedCh
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return nil
		}
		return ReminderFiredMsg{Fired: f}
	}
}

// Update routes messages to the active view and handles global keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		contentHeight := m.layout.ContentHeight()
		m.voiceView.SetSize(msg.Width, contentHeight)
		m.taskList.SetSize(msg.Width, contentHeight)
		m.eventList.SetSize(msg.Width, contentHeight)
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			if m.currentView != ViewVoice || m.voiceView.Status() == "idle" {
				m.reminders.ClearAll()
				return m, tea.Quit
			}
		case key.Matches(msg, m.keys.NextView):
			m.currentView = (m.currentView + 1) % 3
			return m, nil
		}

	case ReminderFiredMsg:
		m.toast = &msg.Fired
		return m, tea.Batch(
			m.waitForReminder(),
			tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{} }),
		)

	case toastExpiredMsg:
		m.toast = nil
		return m, nil

	case remindersPrimedMsg:
		if msg.Err != nil {
			log.Error().Err(msg.Err).Msg("priming reminders failed")
		}
		return m, nil

	case voice.ItemCreatedMsg:
		// A new item exists; refresh whichever list displays it.
		return m, tea.Batch(m.taskList.LoadTasks(), m.eventList.LoadEvents())
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewEvents:
		m.eventList, cmd = m.eventList.Update(msg)
	default:
		m.voiceView, cmd = m.voiceView.Update(msg)
	}
	return m, cmd
}

// View renders the header, active view, optional toast, upcoming strip,
// and status bar.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var body string
	switch m.currentView {
	case ViewTasks:
		body = m.taskList.View()
	case ViewEvents:
		body = m.eventList.View()
	default:
		body = m.voiceView.View()
	}

	sections := []string{
		m.layout.RenderHeader("VoiceFlow", m.voiceView.Status()),
	}

	if m.toast != nil {
		sections = append(sections, ui.RenderToast(m.layout.Width, m.toast.Title, m.toast.Message))
	}

	if strip := m.renderUpcoming(); strip != "" {
		sections = append(sections, strip)
	}

	sections = append(sections, body, m.layout.RenderStatusBar(m.hints()))
	return strings.Join(sections, "\n")
}

// renderUpcoming shows the next reminders due within 24 hours.
func (m Model) renderUpcoming() string {
	upcoming := m.reminders.UpcomingReminders()
	if len(upcoming) == 0 {
		return ""
	}
	if len(upcoming) > 3 {
		upcoming = upcoming[:3]
	}

	parts := make([]string, 0, len(upcoming))
	for _, r := range upcoming {
		parts = append(parts, fmt.Sprintf("%s %s", r.ScheduledTime.Format("3:04 PM"), r.Title))
	}
	return ui.RenderUpcomingStrip(m.layout.Width, strings.Join(parts, "  ·  "))
}

// hints returns the status bar keyboard hints for the active view.
func (m Model) hints() string {
	switch m.currentView {
	case ViewTasks:
		return "tab: switch view · c: toggle complete · d: delete · r: refresh · q: quit"
	case ViewEvents:
		return "tab: switch view · d: delete · r: refresh · q: quit"
	default:
		return "space: record/stop · esc: cancel · tab: switch view · q: quit"
	}
}
