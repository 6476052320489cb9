package reminder

import (
	"os/exec"
	"runtime"

	"github.com/rs/zerolog/log"
)

// Sink delivers native notifications to the host. Delivery is best-effort
// and fire-and-forget: a sink without permission no-ops silently, and a
// failed delivery never propagates an error.
type Sink interface {
	// RequestPermission negotiates delivery capability with the host.
	// Returns whether native delivery is possible.
	RequestPermission() bool

	// Deliver shows a notification. dedupeKey lets the host collapse
	// repeated deliveries of the same reminder.
	Deliver(title, message, dedupeKey string)
}

// DesktopSink delivers notifications through the platform's notification
// command (notify-send on Linux, osascript on macOS).
type DesktopSink struct {
	granted bool
}

// NewDesktopSink creates a desktop notification sink. Permission is not
// probed until RequestPermission is called.
func NewDesktopSink() *DesktopSink {
	return &DesktopSink{}
}

// RequestPermission checks that the platform notification command exists.
func (s *DesktopSink) RequestPermission() bool {
	cmd := notifyCommand()
	if cmd == "" {
		s.granted = false
		return false
	}
	_, err := exec.LookPath(cmd)
	s.granted = err == nil
	return s.granted
}

// Deliver shows a desktop notification. No-ops when permission was never
// granted; a spawn failure is logged and swallowed.
func (s *DesktopSink) Deliver(title, message, dedupeKey string) {
	if !s.granted {
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := "display notification " + appleScriptQuote(message) +
			" with title " + appleScriptQuote(title)
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", "--hint", "string:x-dedupe-key:"+dedupeKey, title, message)
	}

	if err := cmd.Run(); err != nil {
		log.Debug().Err(err).Str("title", title).Msg("desktop notification failed")
	}
}

// notifyCommand returns the notification binary for the current platform.
func notifyCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "osascript"
	case "linux":
		return "notify-send"
	default:
		return ""
	}
}

// appleScriptQuote wraps s in AppleScript double quotes, escaping any
// embedded quotes and backslashes.
func appleScriptQuote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(append(out, '"'))
}

// LogSink writes notifications to the structured log. Used when no
// desktop notification command is available.
type LogSink struct{}

func (LogSink) RequestPermission() bool {
	return true
}

func (LogSink) Deliver(title, message, dedupeKey string) {
	log.Info().Str("title", title).Str("dedupe_key", dedupeKey).Msg(message)
}
