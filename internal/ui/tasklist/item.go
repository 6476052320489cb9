package tasklist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/voiceflow/internal/model"
	"github.com/nhle/voiceflow/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Description }

// ItemDelegate implements list.ItemDelegate for rendering task lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task line: checkbox, description, due hint.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if ti.Task.IsCompleted {
		checkbox = "[x]"
	}

	line := fmt.Sprintf("%s %s", checkbox, ti.Task.Description)
	if ti.Task.DueDate != nil {
		line += theme.HelpStyle.Render("  due " + dueHint(*ti.Task.DueDate))
	}

	switch {
	case index == m.Index():
		line = theme.SelectedItemStyle.Render(line)
	case ti.Task.IsCompleted:
		line = theme.CompletedItemStyle.Render(line)
	default:
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// dueHint formats a due date compactly relative to today.
func dueHint(due time.Time) string {
	now := time.Now()
	if due.Year() == now.Year() && due.YearDay() == now.YearDay() {
		return due.Format("3:04 PM")
	}
	return due.Format("Jan 2 3:04 PM")
}
