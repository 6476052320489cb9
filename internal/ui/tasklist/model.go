package tasklist

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/voiceflow/internal/keys"
	"github.com/nhle/voiceflow/internal/model"
	"github.com/nhle/voiceflow/internal/reminder"
	"github.com/nhle/voiceflow/internal/store"
	"github.com/nhle/voiceflow/internal/theme"
)

// TasksLoadedMsg is sent when tasks have been loaded from the store.
type TasksLoadedMsg struct {
	Tasks []model.Task
	Err   error
}

// TaskChangedMsg is sent after a task was completed, reopened, or deleted.
type TaskChangedMsg struct {
	Err error
}

// Model is the task list view.
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

// New creates a new task list model.
func New(s store.Store, rem *reminder.System, k *keys.KeyMap, userID string, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Tasks"
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

// Init returns a command that loads the initial set of tasks.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, 0, len(msg.Tasks))
		for _, t := range msg.Tasks {
			items = append(items, TaskItem{Task: t})
		}
		return m, m.list.SetItems(items)

	case TaskChangedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		return m, m.LoadTasks()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.ToggleComplete):
			if item, ok := m.list.SelectedItem().(TaskItem); ok {
				return m, m.toggleComplete(item.Task)
			}
		case key.Matches(msg, m.keys.Delete):
			if item, ok := m.list.SelectedItem().(TaskItem); ok {
				return m, m.deleteTask(item.Task)
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.LoadTasks()
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

// View renders the task list.
func (m Model) View() string {
	if m.err != nil {
		return theme.ErrorStyle.Render("Error: "+m.err.Error()) + "\n" + m.list.View()
	}
	return m.list.View()
}

// LoadTasks returns a command that fetches the user's tasks.
func (m Model) LoadTasks() tea.Cmd {
	s, userID := m.store, m.userID
	return func() tea.Msg {
		tasks, err := s.GetTasks(context.Background(), userID)
		return TasksLoadedMsg{Tasks: tasks, Err: err}
	}
}

// toggleComplete flips a task's completion state. Completing a task
// cancels its reminders; reopening reschedules them.
func (m Model) toggleComplete(task model.Task) tea.Cmd {
	s, rem := m.store, m.reminders
	return func() tea.Msg {
		completed := !task.IsCompleted
		updated, err := s.UpdateTask(context.Background(), task.ID, store.TaskUpdate{
			IsCompleted: &completed,
		})
		if err != nil {
			return TaskChangedMsg{Err: fmt.Errorf("updating task: %w", err)}
		}

		if completed {
			rem.CancelItemReminders(task.ID, reminder.KindTask)
		} else {
			rem.ScheduleTaskReminders([]model.Task{*updated})
		}
		return TaskChangedMsg{}
	}
}

// deleteTask removes a task and cancels its reminders.
func (m Model) deleteTask(task model.Task) tea.Cmd {
	s, rem := m.store, m.reminders
	return func() tea.Msg {
		if err := s.DeleteTask(context.Background(), task.ID); err != nil {
			return TaskChangedMsg{Err: fmt.Errorf("deleting task: %w", err)}
		}
		rem.CancelItemReminders(task.ID, reminder.KindTask)
		return TaskChangedMsg{}
	}
}
