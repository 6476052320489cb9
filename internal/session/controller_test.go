package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/voiceflow/internal/ai"
	"github.com/nhle/voiceflow/internal/model"
	"github.com/nhle/voiceflow/internal/reminder"
	"github.com/nhle/voiceflow/internal/speech"
	"github.com/nhle/voiceflow/tests/testutil"
)

type fakeRecorder struct {
	startErr error
	stopErr  error
	audio    []byte

	// blockStop, when set, makes Stop wait until the channel closes.
	blockStop chan struct{}

	started bool
	stopped bool
}

func (r *fakeRecorder) Start(context.Context) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.started = true
	return nil
}

func (r *fakeRecorder) Stop(ctx context.Context) ([]byte, error) {
	if r.blockStop != nil {
		select {
		case <-r.blockStop:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.stopped = true
	if r.stopErr != nil {
		return nil, r.stopErr
	}
	return r.audio, nil
}

type fakeTranscriber struct {
	transcript string
	err        error
	gotAudio   []byte
}

func (tr *fakeTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	tr.gotAudio = audio
	if tr.err != nil {
		return "", tr.err
	}
	return tr.transcript, nil
}

type fakeCompleter struct {
	response string
	err      error
}

func (c *fakeCompleter) Complete(context.Context, string, string) (string, error) {
	return c.response, c.err
}

type noopSink struct{}

func (noopSink) RequestPermission() bool { return false }
func (noopSink) Deliver(_, _, _ string)  {}

func newTestController(t *testing.T, rec *fakeRecorder, tr *fakeTranscriber, c *fakeCompleter) (*Controller, *reminder.System) {
	t.Helper()

	reminders := reminder.NewSystem(reminder.SystemClock(), noopSink{}, reminder.NewBus())
	t.Cleanup(reminders.ClearAll)

	controller := NewController(rec, tr, ai.NewParser(c), testutil.NewTestStore(t), reminders, "user-1")
	return controller, reminders
}

func TestFullCycle_creates_task_and_reminders(t *testing.T) {
	due := time.Now().Add(3 * time.Hour).UTC().Format(time.RFC3339)
	rec := &fakeRecorder{audio: []byte("pcm")}
	tr := &fakeTranscriber{transcript: "remind me to buy milk in three hours"}
	completer := &fakeCompleter{
		response: `{"type": "task", "description": "buy milk", "dueDate": "` + due + `"}`,
	}
	controller, reminders := newTestController(t, rec, tr, completer)
	ctx := context.Background()

	require.NoError(t, controller.StartRecording(ctx))
	assert.Equal(t, StateRecording, controller.State())

	result, err := controller.StopRecording(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, controller.State())

	require.Equal(t, model.IntentTask, result.Kind)
	require.NotNil(t, result.Task)
	assert.Nil(t, result.Event)
	assert.Equal(t, "buy milk", result.Task.Description)
	assert.Equal(t, "remind me to buy milk in three hours", result.Transcript)
	assert.Equal(t, []byte("pcm"), tr.gotAudio)

	// Due three hours out: both the early and the at-due reminder are live.
	assert.Len(t, reminders.ActiveReminders(), 2)
}

func TestFullCycle_creates_event_and_reminder(t *testing.T) {
	start := time.Now().Add(4 * time.Hour).UTC()
	rec := &fakeRecorder{audio: []byte("pcm")}
	tr := &fakeTranscriber{transcript: "schedule standup in four hours"}
	completer := &fakeCompleter{
		response: `{"type": "event", "title": "standup", "startTime": "` + start.Format(time.RFC3339) + `"}`,
	}
	controller, reminders := newTestController(t, rec, tr, completer)
	ctx := context.Background()

	require.NoError(t, controller.StartRecording(ctx))
	result, err := controller.StopRecording(ctx)
	require.NoError(t, err)

	require.Equal(t, model.IntentEvent, result.Kind)
	require.NotNil(t, result.Event)
	assert.Nil(t, result.Task)
	assert.Equal(t, "standup", result.Event.Title)

	active := reminders.ActiveReminders()
	require.Len(t, active, 1)
	assert.Equal(t, reminder.KindEvent, active[0].Kind)
	assert.Equal(t, result.Event.ID, active[0].ItemID)
}

func TestStartRecording_capture_failure_stays_idle(t *testing.T) {
	rec := &fakeRecorder{startErr: &speech.CaptureError{Reason: "no input device"}}
	controller, _ := newTestController(t, rec, &fakeTranscriber{}, &fakeCompleter{})

	err := controller.StartRecording(context.Background())
	require.Error(t, err)
	assert.True(t, speech.IsCaptureError(err))
	assert.Equal(t, StateIdle, controller.State())

	// The session is immediately usable again.
	rec.startErr = nil
	require.NoError(t, controller.StartRecording(context.Background()))
}

func TestStartRecording_rejects_double_start(t *testing.T) {
	controller, _ := newTestController(t, &fakeRecorder{}, &fakeTranscriber{}, &fakeCompleter{})
	ctx := context.Background()

	require.NoError(t, controller.StartRecording(ctx))
	assert.ErrorIs(t, controller.StartRecording(ctx), ErrAlreadyRecording)
}

func TestStopRecording_without_start(t *testing.T) {
	controller, _ := newTestController(t, &fakeRecorder{}, &fakeTranscriber{}, &fakeCompleter{})

	result, err := controller.StopRecording(context.Background())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestStopRecording_transcription_failure_keeps_state_recoverable(t *testing.T) {
	rec := &fakeRecorder{audio: []byte("pcm")}
	tr := &fakeTranscriber{err: &speech.TranscriptionError{Reason: "service unavailable"}}
	controller, reminders := newTestController(t, rec, tr, &fakeCompleter{})
	ctx := context.Background()

	require.NoError(t, controller.StartRecording(ctx))
	result, err := controller.StopRecording(ctx)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, speech.IsTranscriptionError(err))
	assert.Equal(t, StateIdle, controller.State())
	assert.ErrorIs(t, controller.LastError(), err)
	assert.Empty(t, reminders.ActiveReminders())
}

func TestStopRecording_parse_failure_degrades_to_verbatim_task(t *testing.T) {
	rec := &fakeRecorder{audio: []byte("pcm")}
	tr := &fakeTranscriber{transcript: "pick up the dry cleaning"}
	completer := &fakeCompleter{err: errors.New("model unreachable")}
	controller, _ := newTestController(t, rec, tr, completer)
	ctx := context.Background()

	require.NoError(t, controller.StartRecording(ctx))
	result, err := controller.StopRecording(ctx)

	require.NoError(t, err)
	require.Equal(t, model.IntentTask, result.Kind)
	require.NotNil(t, result.Task)
	assert.Equal(t, "pick up the dry cleaning", result.Task.Description)
	assert.Nil(t, result.Task.DueDate)
	assert.Equal(t, "pick up the dry cleaning", controller.Transcript())
}

func TestStopRecording_persistence_failure_returns_to_idle(t *testing.T) {
	rec := &fakeRecorder{audio: []byte("pcm")}
	// An empty transcript degrades to an empty-description fallback task,
	// which the store rejects.
	tr := &fakeTranscriber{transcript: ""}
	completer := &fakeCompleter{response: `{"type": "task", "description": ""}`}
	controller, reminders := newTestController(t, rec, tr, completer)
	ctx := context.Background()

	require.NoError(t, controller.StartRecording(ctx))
	result, err := controller.StopRecording(ctx)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, StateIdle, controller.State())
	assert.Empty(t, reminders.ActiveReminders())
}

func TestStopRecording_rejects_concurrent_stop(t *testing.T) {
	rec := &fakeRecorder{audio: []byte("pcm"), blockStop: make(chan struct{})}
	tr := &fakeTranscriber{transcript: "buy milk"}
	completer := &fakeCompleter{response: `{"type": "task", "description": "buy milk"}`}
	controller, _ := newTestController(t, rec, tr, completer)
	ctx := context.Background()

	require.NoError(t, controller.StartRecording(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := controller.StopRecording(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return controller.State() == StateProcessing
	}, time.Second, 5*time.Millisecond)

	_, err := controller.StopRecording(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	// StartRecording is equally rejected while processing.
	assert.ErrorIs(t, controller.StartRecording(ctx), ErrBusy)

	close(rec.blockStop)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, controller.State())
}

func TestCancelRecording_discards_without_processing(t *testing.T) {
	rec := &fakeRecorder{audio: []byte("pcm")}
	tr := &fakeTranscriber{transcript: "should never be seen"}
	controller, reminders := newTestController(t, rec, tr, &fakeCompleter{})
	ctx := context.Background()

	require.NoError(t, controller.StartRecording(ctx))
	require.NoError(t, controller.CancelRecording(ctx))

	assert.Equal(t, StateIdle, controller.State())
	assert.Empty(t, controller.Transcript())
	assert.Empty(t, reminders.ActiveReminders())
	assert.Nil(t, tr.gotAudio)
}

func TestCancelRecording_requires_recording(t *testing.T) {
	controller, _ := newTestController(t, &fakeRecorder{}, &fakeTranscriber{}, &fakeCompleter{})
	assert.ErrorIs(t, controller.CancelRecording(context.Background()), ErrNotRecording)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "recording", StateRecording.String())
	assert.Equal(t, "processing", StateProcessing.String())
}
