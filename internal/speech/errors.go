package speech

import (
	"errors"
	"fmt"
)

// CaptureError indicates the audio capture capability is unavailable,
// denied, or failed to produce a recording.
type CaptureError struct {
	Reason string
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio capture: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("audio capture: %s", e.Reason)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// IsCaptureError reports whether err (or any error in its chain) is a CaptureError.
func IsCaptureError(err error) bool {
	var capErr *CaptureError
	return errors.As(err, &capErr)
}

// TranscriptionError indicates the external transcription call failed
// or returned an empty transcript.
type TranscriptionError struct {
	Reason string
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transcription: %s", e.Reason)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// IsTranscriptionError reports whether err (or any error in its chain) is a TranscriptionError.
func IsTranscriptionError(err error) bool {
	var trErr *TranscriptionError
	return errors.As(err, &trErr)
}
