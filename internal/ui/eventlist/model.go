package eventlist

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/voiceflow/internal/keys"
	"github.com/nhle/voiceflow/internal/model"
	"github.com/nhle/voiceflow/internal/reminder"
	"github.com/nhle/voiceflow/internal/store"
	"github.com/nhle/voiceflow/internal/theme"
)

// EventsLoadedMsg is sent when events have been loaded from the store.
type EventsLoadedMsg struct {
	Events []model.Event
	Err    error
}

// EventChangedMsg is sent after an event was deleted.
type EventChangedMsg struct {
	Err error
}

// EventItem wraps a model.Event so it can be used in a bubbles/list.
type EventItem struct {
	Event model.Event
}

// FilterValue returns the string used for fuzzy filtering.
func (i EventItem) FilterValue() string { return i.Event.Title }

// itemDelegate renders event lines.
type itemDelegate struct{}

func (d itemDelegate) Height() int  { return 1 }
func (d itemDelegate) Spacing() int { return 0 }

func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(EventItem)
	if !ok {
		return
	}

	line := fmt.Sprintf("%s  %s – %s",
		ei.Event.StartTime.Format("Mon Jan 2 3:04 PM"),
		ei.Event.EndTime.Format("3:04 PM"),
		ei.Event.Title,
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the event list view.
type Model struct {
	list      list.Model
	store     store.Store
	reminders *reminder.System
	keys      *keys.KeyMap
	userID    string
	width     int
	height    int
	err       error
}

// New creates a new event list model.
func New(s store.Store, rem *reminder.System, k *keys.KeyMap, userID string, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "Events"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:      l,
		store:     s,
		reminders: rem,
		keys:      k,
		userID:    userID,
		width:     width,
		height:    height,
	}
}

// Init returns a command that loads the initial set of events.
func (m Model) Init() tea.Cmd {
	return m.LoadEvents()
}

// Update handles messages for the event list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventsLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, 0, len(msg.Events))
		for _, e := range msg.Events {
			items = append(items, EventItem{Event: e})
		}
		return m, m.list.SetItems(items)

	case EventChangedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		return m, m.LoadEvents()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Delete):
			if item, ok := m.list.SelectedItem().(EventItem); ok {
				return m, m.deleteEvent(item.Event)
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.LoadEvents()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// View renders the event list.
func (m Model) View() string {
	if m.err != nil {
		return theme.ErrorStyle.Render("Error: "+m.err.Error()) + "\n" + m.list.View()
	}
	return m.list.View()
}

// LoadEvents returns a command that fetches the user's events.
func (m Model) LoadEvents() tea.Cmd {
	s, userID := m.store, m.userID
	return func() tea.Msg {
		events, err := s.GetEvents(context.Background(), userID)
		return EventsLoadedMsg{Events: events, Err: err}
	}
}

// deleteEvent removes an event and cancels its reminder.
func (m Model) deleteEvent(event model.Event) tea.Cmd {
	s, rem := m.store, m.reminders
	return func() tea.Msg {
		if err := s.DeleteEvent(context.Background(), event.ID); err != nil {
			return EventChangedMsg{Err: fmt.Errorf("deleting event: %w", err)}
		}
		rem.CancelItemReminders(event.ID, reminder.KindEvent)
		return EventChangedMsg{}
	}
}
