package voice

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/voiceflow/internal/keys"
	"github.com/nhle/voiceflow/internal/model"
	"github.com/nhle/voiceflow/internal/session"
	"github.com/nhle/voiceflow/internal/theme"
)

// RecordingStartedMsg reports the outcome of a start-recording attempt.
type RecordingStartedMsg struct {
	Err error
}

// ProcessedMsg reports the outcome of one stop-recording pipeline run.
type ProcessedMsg struct {
	Result     *session.Result
	Transcript string
	Err        error
}

// CancelledMsg reports that an in-progress recording was discarded.
type CancelledMsg struct{}

// ItemCreatedMsg tells the root model a task or event was persisted so
// sibling views can reload.
type ItemCreatedMsg struct {
	Kind model.IntentKind
}

// Model is the voice capture view: the default landing view where the
// user records a command and sees the transcript and created item.
type Model struct {
	controller *session.Controller
	keys       *keys.KeyMap
	spinner    spinner.Model
	width      int
	height     int

	recording  bool
	processing bool
	transcript string
	result     *session.Result
	err        error
}

// New creates the voice view around a session controller.
func New(c *session.Controller, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.RecordingStyle

	return Model{
		controller: c,
		keys:       k,
		spinner:    sp,
		width:      width,
		height:     height,
	}
}

// Init is a no-op; commands are issued on keypresses.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the voice view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Record):
			if m.processing {
				return m, nil
			}
			if m.recording {
				m.recording = false
				m.processing = true
				return m, tea.Batch(m.spinner.Tick, m.stopRecording())
			}
			return m, m.startRecording()

		case key.Matches(msg, m.keys.Cancel):
			if m.recording {
				m.recording = false
				return m, m.cancelRecording()
			}
		}

	case RecordingStartedMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.recording = true
		m.err = nil
		m.result = nil
		m.transcript = ""
		return m, nil

	case ProcessedMsg:
		m.processing = false
		m.transcript = msg.Transcript
		m.err = msg.Err
		m.result = msg.Result
		if msg.Result != nil {
			return m, func() tea.Msg {
				return ItemCreatedMsg{Kind: msg.Result.Kind}
			}
		}
		return m, nil

	case CancelledMsg:
		return m, nil

	case spinner.TickMsg:
		if m.processing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Status returns a short state description for the header.
func (m Model) Status() string {
	switch {
	case m.recording:
		return "recording"
	case m.processing:
		return "processing"
	default:
		return "idle"
	}
}

// View renders the voice view.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString("\n")
	switch {
	case m.recording:
		sb.WriteString(theme.RecordingStyle.Render("● Recording... press space to stop, esc to cancel"))
	case m.processing:
		sb.WriteString(m.spinner.View())
		sb.WriteString(" Processing your command...")
	default:
		sb.WriteString("Press space and speak a command:")
		sb.WriteString("\n\n")
		sb.WriteString(theme.HelpStyle.Render(
			"  \"Remind me to buy milk tomorrow at 5 PM\"\n" +
				"  \"Schedule meeting with John for Tuesday at 10 AM\"\n" +
				"  \"Call mom this evening\"\n" +
				"  \"Doctor appointment next Friday at 2 PM\"",
		))
	}
	sb.WriteString("\n\n")

	if m.transcript != "" {
		sb.WriteString(theme.CardStyle.Width(m.width - 4).Render(
			"You said:\n" + theme.HelpStyle.Render(fmt.Sprintf("%q", m.transcript)),
		))
		sb.WriteString("\n")
	}

	if m.err != nil {
		sb.WriteString(theme.ErrorStyle.Render("Error: " + m.err.Error()))
		sb.WriteString("\n")
	}

	if m.result != nil {
		sb.WriteString(theme.CardStyle.Width(m.width - 4).Render(m.renderResult()))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m Model) renderResult() string {
	switch m.result.Kind {
	case model.IntentEvent:
		e := m.result.Event
		return theme.SuccessStyle.Render("Event scheduled") + "\n" +
			fmt.Sprintf("%s\n%s – %s (reminder at %s)",
				e.Title,
				e.StartTime.Format("Mon Jan 2 3:04 PM"),
				e.EndTime.Format("3:04 PM"),
				e.ReminderTime.Format("3:04 PM"),
			)
	default:
		t := m.result.Task
		out := theme.SuccessStyle.Render("Task created") + "\n" + t.Description
		if t.DueDate != nil {
			out += "\nDue " + t.DueDate.Format("Mon Jan 2 3:04 PM")
		}
		return out
	}
}

// startRecording acquires the capture capability off the UI goroutine.
func (m Model) startRecording() tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		return RecordingStartedMsg{Err: c.StartRecording(context.Background())}
	}
}

// stopRecording runs the full processing pipeline off the UI goroutine.
func (m Model) stopRecording() tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		result, err := c.StopRecording(context.Background())
		return ProcessedMsg{
			Result:     result,
			Transcript: c.Transcript(),
			Err:        err,
		}
	}
}

func (m Model) cancelRecording() tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		_ = c.CancelRecording(context.Background())
		return CancelledMsg{}
	}
}
