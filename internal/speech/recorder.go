package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// stopGrace is how long Stop waits for the capture process to flush and
// exit after being interrupted before it is killed outright.
const stopGrace = 3 * time.Second

// Recorder is the audio capture capability. Start begins capturing;
// Stop ends the capture and returns the recorded audio payload. The
// payload format is opaque to the rest of the system.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) ([]byte, error)
}

// CommandRecorder captures audio by running an external capture command
// (arecord, sox, ffmpeg, ...) that writes to a temporary file until it is
// interrupted. The output file path is appended as the final argument.
type CommandRecorder struct {
	command []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	outPath string
	done    chan error
}

// NewCommandRecorder creates a recorder around the given capture command.
func NewCommandRecorder(command []string) *CommandRecorder {
	return &CommandRecorder{command: command}
}

// Start launches the capture process. Fails with a CaptureError when the
// command is missing, cannot start, or a capture is already in progress.
// ctx bounds only the acquisition; the capture process itself must keep
// running after Start returns, until Stop interrupts it.
func (r *CommandRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &CaptureError{Reason: "capture cancelled", Err: err}
	}
	if r.cmd != nil {
		return &CaptureError{Reason: "capture already in progress"}
	}
	if len(r.command) == 0 {
		return &CaptureError{Reason: "no capture command configured"}
	}
	if _, err := exec.LookPath(r.command[0]); err != nil {
		return &CaptureError{Reason: fmt.Sprintf("capture command %q not found", r.command[0]), Err: err}
	}

	outPath := filepath.Join(os.TempDir(), fmt.Sprintf("voiceflow-%d.audio", time.Now().UnixNano()))

	args := append(append([]string{}, r.command[1:]...), outPath)
	cmd := exec.Command(r.command[0], args...)

	if err := cmd.Start(); err != nil {
		return &CaptureError{Reason: "starting capture command", Err: err}
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	r.cmd = cmd
	r.outPath = outPath
	r.done = done
	return nil
}

// Stop interrupts the capture process, waits for it to exit, and returns
// the recorded bytes. The temporary output file is removed afterwards.
func (r *CommandRecorder) Stop(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	cmd, outPath, done := r.cmd, r.outPath, r.done
	r.cmd, r.outPath, r.done = nil, "", nil
	r.mu.Unlock()

	if cmd == nil {
		return nil, &CaptureError{Reason: "no capture in progress"}
	}
	defer os.Remove(outPath)

	// Interrupt lets the capture tool finalize its output file.
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		log.Debug().Err(err).Msg("interrupt failed; killing capture process")
		_ = cmd.Process.Kill()
	}

	select {
	case <-done:
		// Capture tools exit non-zero when interrupted; the output file
		// is still usable, so the exit status is ignored here.
	case <-time.After(stopGrace):
		_ = cmd.Process.Kill()
		<-done
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return nil, &CaptureError{Reason: "capture cancelled", Err: ctx.Err()}
	}

	audio, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &CaptureError{Reason: "reading captured audio", Err: err}
	}
	if len(audio) == 0 {
		return nil, &CaptureError{Reason: "capture produced no audio"}
	}

	return audio, nil
}
