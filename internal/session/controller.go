package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nhle/voiceflow/internal/ai"
	"github.com/nhle/voiceflow/internal/model"
	"github.com/nhle/voiceflow/internal/reminder"
	"github.com/nhle/voiceflow/internal/speech"
	"github.com/nhle/voiceflow/internal/store"
)

// State is the voice session lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	default:
		return "idle"
	}
}

var (
	// ErrBusy is returned when a stop cycle is already in flight.
	ErrBusy = errors.New("a voice command is already being processed")

	// ErrNotRecording is returned by StopRecording outside the
	// Recording state.
	ErrNotRecording = errors.New("no recording in progress")

	// ErrAlreadyRecording is returned by StartRecording outside the
	// Idle state.
	ErrAlreadyRecording = errors.New("recording already in progress")
)

// stepTimeout bounds each external call so a hung capability resolves to
// a failure instead of stalling the session forever.
const stepTimeout = 30 * time.Second

// Result reports what one completed voice session produced. Exactly one
// of Task or Event is set, matching Kind.
type Result struct {
	Kind       model.IntentKind
	Task       *model.Task
	Event      *model.Event
	Transcript string
}

// Controller orchestrates one record -> transcribe -> parse -> persist ->
// schedule cycle. It always returns to Idle after a stop cycle, whether the
// cycle succeeded or failed, so the user can retry. A transcript obtained
// before a later step failed remains visible through Transcript().
type Controller struct {
	recorder    speech.Recorder
	transcriber speech.Transcriber
	parser      *ai.Parser
	store       store.Store
	reminders   *reminder.System
	userID      string

	mu         sync.Mutex
	state      State
	transcript string
	lastErr    error
}

// NewController wires a voice session controller from its collaborators.
func NewController(
	recorder speech.Recorder,
	transcriber speech.Transcriber,
	parser *ai.Parser,
	s store.Store,
	reminders *reminder.System,
	userID string,
) *Controller {
	return &Controller{
		recorder:    recorder,
		transcriber: transcriber,
		parser:      parser,
		store:       s,
		reminders:   reminders,
		userID:      userID,
	}
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns the transcript from the most recent stop cycle, even
// when a later pipeline step failed.
func (c *Controller) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript
}

// LastError returns the error that ended the most recent cycle, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// StartRecording acquires the audio capture capability and moves the
// session from Idle to Recording. On capture failure the session stays
// Idle and the error is surfaced to the caller.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		if state == StateProcessing {
			return ErrBusy
		}
		return ErrAlreadyRecording
	}
	c.transcript = ""
	c.lastErr = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()

	if err := c.recorder.Start(ctx); err != nil {
		c.setIdle(err)
		return err
	}

	c.setState(StateRecording)
	return nil
}

// CancelRecording discards an in-progress recording and returns the
// session to Idle without running the processing pipeline.
func (c *Controller) CancelRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return ErrNotRecording
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()

	_, err := c.recorder.Stop(ctx)
	c.setIdle(nil)
	if err != nil && !speech.IsCaptureError(err) {
		return err
	}
	return nil
}

// StopRecording ends the capture and runs the processing pipeline:
// transcribe, parse, persist, then schedule reminders for the new item.
// Any step failure aborts the remaining steps; no step is retried within
// one invocation. A second StopRecording while a cycle is still
// processing is rejected with ErrBusy.
func (c *Controller) StopRecording(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	switch c.state {
	case StateProcessing:
		c.mu.Unlock()
		return nil, ErrBusy
	case StateIdle:
		c.mu.Unlock()
		return nil, ErrNotRecording
	}
	c.state = StateProcessing
	c.mu.Unlock()

	result, err := c.process(ctx)
	c.setIdle(err)
	return result, err
}

// process runs the pipeline steps in their required order. Scheduling
// needs the persisted entity's assigned id and resolved dates, so
// persistence strictly precedes it.
func (c *Controller) process(ctx context.Context) (*Result, error) {
	audio, err := withTimeout(ctx, func(ctx context.Context) ([]byte, error) {
		return c.recorder.Stop(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving captured audio: %w", err)
	}

	transcript, err := withTimeout(ctx, func(ctx context.Context) (string, error) {
		return c.transcriber.Transcribe(ctx, audio)
	})
	if err != nil {
		return nil, fmt.Errorf("transcribing audio: %w", err)
	}

	c.mu.Lock()
	c.transcript = transcript
	c.mu.Unlock()

	// Parse never fails: an unusable completion degrades to a task
	// intent carrying the verbatim transcript.
	intent, _ := withTimeout(ctx, func(ctx context.Context) (*model.ParsedIntent, error) {
		return c.parser.Parse(ctx, transcript, time.Now()), nil
	})

	result := &Result{Kind: intent.Kind, Transcript: transcript}

	switch intent.Kind {
	case model.IntentEvent:
		event, err := withTimeout(ctx, func(ctx context.Context) (*model.Event, error) {
			return c.store.CreateEvent(
				ctx, c.userID, intent.Title,
				intent.StartTime, intent.EndTime, intent.ReminderTime,
			)
		})
		if err != nil {
			return nil, fmt.Errorf("saving event: %w", err)
		}
		result.Event = event
		c.reminders.ScheduleEventReminders([]model.Event{*event})
		log.Info().Str("event_id", event.ID).Str("title", event.Title).Msg("event created from voice command")

	default:
		task, err := withTimeout(ctx, func(ctx context.Context) (*model.Task, error) {
			return c.store.CreateTask(ctx, c.userID, intent.Description, intent.DueDate)
		})
		if err != nil {
			return nil, fmt.Errorf("saving task: %w", err)
		}
		result.Task = task
		c.reminders.ScheduleTaskReminders([]model.Task{*task})
		log.Info().Str("task_id", task.ID).Msg("task created from voice command")
	}

	return result, nil
}

// withTimeout runs one pipeline step under the per-step deadline.
func withTimeout[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	stepCtx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()
	return fn(stepCtx)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) setIdle(err error) {
	c.mu.Lock()
	c.state = StateIdle
	c.lastErr = err
	c.mu.Unlock()
}
