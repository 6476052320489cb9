package speech

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureScript writes a shell script that behaves like a real capture
// tool: it runs until interrupted, then writes payload to the output file
// path it received as its argument.
func captureScript(t *testing.T, payload string) []string {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	script := "out=\"$1\"\n" +
		"trap 'printf %s \"" + payload + "\" > \"$out\"; exit 0' INT TERM\n" +
		"while :; do sleep 0.05; done\n"

	path := filepath.Join(t.TempDir(), "capture.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return []string{"sh", path}
}

func TestCommandRecorder_capture_round_trip(t *testing.T) {
	rec := NewCommandRecorder(captureScript(t, "fake-audio-bytes"))

	require.NoError(t, rec.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)

	audio, err := rec.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-audio-bytes"), audio)
}

func TestCommandRecorder_process_outlives_start_context(t *testing.T) {
	rec := NewCommandRecorder(captureScript(t, "fake-audio-bytes"))

	// Callers bound Start with a short-lived context and cancel it as soon
	// as the call returns. The capture process must keep running anyway,
	// until Stop interrupts it.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	require.NoError(t, rec.Start(ctx))
	cancel()

	time.Sleep(300 * time.Millisecond)

	audio, err := rec.Stop(context.Background())
	require.NoError(t, err, "capture process must survive cancellation of the start context")
	assert.NotEmpty(t, audio)
}

func TestCommandRecorder_empty_capture_is_an_error(t *testing.T) {
	rec := NewCommandRecorder(captureScript(t, ""))

	require.NoError(t, rec.Start(context.Background()))
	time.Sleep(150 * time.Millisecond)

	_, err := rec.Stop(context.Background())
	require.Error(t, err)
	assert.True(t, IsCaptureError(err))
}

func TestCommandRecorder_rejects_double_start(t *testing.T) {
	rec := NewCommandRecorder(captureScript(t, "x"))
	ctx := context.Background()

	require.NoError(t, rec.Start(ctx))
	t.Cleanup(func() { rec.Stop(ctx) })

	err := rec.Start(ctx)
	require.Error(t, err)
	assert.True(t, IsCaptureError(err))
}

func TestCommandRecorder_stop_without_start(t *testing.T) {
	rec := NewCommandRecorder(captureScript(t, "x"))

	_, err := rec.Stop(context.Background())
	require.Error(t, err)
	assert.True(t, IsCaptureError(err))
}

func TestCommandRecorder_missing_command(t *testing.T) {
	rec := NewCommandRecorder([]string{"voiceflow-no-such-capture-tool"})

	err := rec.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsCaptureError(err))
}

func TestCommandRecorder_no_command_configured(t *testing.T) {
	rec := NewCommandRecorder(nil)

	err := rec.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsCaptureError(err))
}

func TestCommandRecorder_cancelled_start_context(t *testing.T) {
	rec := NewCommandRecorder(captureScript(t, "x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rec.Start(ctx)
	require.Error(t, err)
	assert.True(t, IsCaptureError(err))
}
