package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"

	"github.com/nhle/voiceflow/internal/model"
)

// defaultEventDuration is assumed when the user gave a start but no end.
const defaultEventDuration = time.Hour

// Parser turns a voice-command transcript into a structured intent by
// delegating interpretation to a text-completion capability.
//
// Parse never fails: when the capability is unreachable, returns malformed
// JSON, or produces an unrecognized shape, the parser falls back to a
// task intent carrying the verbatim transcript so the user's utterance is
// never lost.
type Parser struct {
	completer Completer
}

// NewParser creates a parser on top of the given completion capability.
func NewParser(c Completer) *Parser {
	return &Parser{completer: c}
}

// Parse interprets a transcript relative to referenceTime. The reference
// time anchors relative expressions like "tomorrow" and "next Friday" and
// must be passed explicitly so resolution stays deterministic.
func (p *Parser) Parse(
	ctx context.Context,
	transcript string,
	referenceTime time.Time,
) *model.ParsedIntent {
	fallback := &model.ParsedIntent{
		Kind:        model.IntentTask,
		Description: transcript,
	}

	content, err := p.completer.Complete(
		ctx,
		systemPrompt,
		buildUserPrompt(transcript, referenceTime),
	)
	if err != nil {
		log.Warn().Err(err).Msg("voice command completion failed; falling back to verbatim task")
		return fallback
	}

	raw, err := decodeRawIntent(content)
	if err != nil {
		log.Warn().Err(err).Str("content", content).
			Msg("voice command response unusable; falling back to verbatim task")
		return fallback
	}

	intent, err := resolveIntent(raw, referenceTime)
	if err != nil {
		log.Warn().Err(err).Msg("voice command intent invalid; falling back to verbatim task")
		return fallback
	}

	return intent
}

// rawIntent is the JSON shape the completion capability is instructed to
// return. Treated as untrusted input.
type rawIntent struct {
	Type         string `json:"type"`
	Description  string `json:"description"`
	Title        string `json:"title"`
	DueDate      string `json:"dueDate"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	ReminderTime string `json:"reminderTime"`
}

// decodeRawIntent extracts and unmarshals the JSON object from a model
// response. Markdown fences and surrounding prose are tolerated; malformed
// JSON gets one repair attempt before giving up.
func decodeRawIntent(content string) (*rawIntent, error) {
	payload := extractJSONObject(content)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(payload)
		if repairErr != nil {
			return nil, fmt.Errorf("unmarshaling intent: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil, fmt.Errorf("unmarshaling repaired intent: %w", err)
		}
	}

	return &raw, nil
}

// extractJSONObject returns the substring spanning the first '{' through
// the last '}' of s, or "" when no object is present.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// resolveIntent validates the discriminator and required fields, parses
// timestamps, and applies event-time defaults.
func resolveIntent(raw *rawIntent, referenceTime time.Time) (*model.ParsedIntent, error) {
	switch raw.Type {
	case string(model.IntentTask):
		description := strings.TrimSpace(raw.Description)
		if description == "" {
			return nil, fmt.Errorf("task intent has empty description")
		}
		return &model.ParsedIntent{
			Kind:        model.IntentTask,
			Description: description,
			DueDate:     parseOptionalTime(raw.DueDate),
		}, nil

	case string(model.IntentEvent):
		title := strings.TrimSpace(raw.Title)
		if title == "" {
			return nil, fmt.Errorf("event intent has empty title")
		}

		start := referenceTime
		if t := parseOptionalTime(raw.StartTime); t != nil {
			start = *t
		}

		end := start.Add(defaultEventDuration)
		if t := parseOptionalTime(raw.EndTime); t != nil && !t.Before(start) {
			end = *t
		}

		reminder := start.Add(-model.DefaultReminderLead)
		if t := parseOptionalTime(raw.ReminderTime); t != nil && !t.After(start) {
			reminder = *t
		}

		return &model.ParsedIntent{
			Kind:         model.IntentEvent,
			Title:        title,
			StartTime:    start,
			EndTime:      end,
			ReminderTime: reminder,
		}, nil

	default:
		return nil, fmt.Errorf("unrecognized intent type %q", raw.Type)
	}
}

// timeLayouts are the timestamp shapes accepted from the model, most
// specific first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseOptionalTime parses a timestamp string, returning nil when the
// field is absent or unparseable.
func parseOptionalTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// systemPrompt fixes the instruction contract with the completion
// capability: one JSON object, discriminated by "type".
const systemPrompt = "You are a helpful assistant that parses voice commands " +
	"into structured task or event data. Always return a single valid JSON object " +
	"and nothing else."

// buildUserPrompt embeds the transcript, the expected JSON shape, worked
// examples, and the reference time that anchors relative dates.
func buildUserPrompt(transcript string, referenceTime time.Time) string {
	var sb strings.Builder

	sb.WriteString("Parse the following voice command and determine if it's a ")
	sb.WriteString("task or calendar event. Extract relevant details and return ")
	sb.WriteString("a JSON object.\n\n")

	sb.WriteString(fmt.Sprintf("Voice command: %q\n\n", transcript))

	sb.WriteString("Return JSON in this format:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"type\": \"task\" | \"event\",\n")
	sb.WriteString("  \"description\": \"task description (for tasks)\",\n")
	sb.WriteString("  \"title\": \"event title (for events)\",\n")
	sb.WriteString("  \"dueDate\": \"ISO date string (optional)\",\n")
	sb.WriteString("  \"startTime\": \"ISO date string (for events)\",\n")
	sb.WriteString("  \"endTime\": \"ISO date string (for events)\",\n")
	sb.WriteString("  \"reminderTime\": \"ISO date string (optional)\"\n")
	sb.WriteString("}\n\n")

	sb.WriteString("All timestamps must be absolute ISO-8601 strings resolved ")
	sb.WriteString("relative to the current date/time below. Do not invent a ")
	sb.WriteString("precise clock time when the command only implies a date.\n\n")

	sb.WriteString("Examples:\n")
	sb.WriteString("- \"Remind me to buy milk tomorrow at 5 PM\" -> task with dueDate\n")
	sb.WriteString("- \"Schedule meeting with John for Tuesday at 10 AM\" -> event\n")
	sb.WriteString("- \"Call mom\" -> simple task without date\n")
	sb.WriteString("- \"Doctor appointment next Friday at 2 PM\" -> event\n\n")

	sb.WriteString("Current date/time: ")
	sb.WriteString(referenceTime.Format(time.RFC3339))

	return sb.String()
}
