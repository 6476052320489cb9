package ui

import (
	"github.com/nhle/voiceflow/internal/theme"
)

// RenderToast renders a fired-reminder banner across the top of the
// content area.
func RenderToast(width int, title, message string) string {
	return theme.ToastStyle.Width(width - 2).Render(title + ": " + message)
}

// RenderUpcomingStrip renders the next-24h reminders summary line.
func RenderUpcomingStrip(width int, content string) string {
	return theme.HelpStyle.Width(width).Render("Upcoming: " + content)
}
