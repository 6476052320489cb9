package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	defaultTranscribeBaseURL = "https://api.openai.com/v1"
	defaultTranscribeModel   = "whisper-1"
)

// Transcriber is the speech-to-text capability: audio bytes in, text out.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// WhisperClient is a Transcriber backed by an OpenAI-compatible audio
// transcriptions endpoint.
type WhisperClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewWhisperClient creates a transcription client with the given
// configuration. Empty values fall back to defaults.
func NewWhisperClient(apiKey, baseURL, modelName string) *WhisperClient {
	if baseURL == "" {
		baseURL = defaultTranscribeBaseURL
	}
	if modelName == "" {
		modelName = defaultTranscribeModel
	}

	return &WhisperClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client:  &http.Client{},
	}
}

// Transcribe uploads the audio payload as a multipart form and returns the
// transcript text. An empty transcript is reported as a TranscriptionError.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", &TranscriptionError{Reason: "building upload form", Err: err}
	}
	if _, err := part.Write(audio); err != nil {
		return "", &TranscriptionError{Reason: "writing audio payload", Err: err}
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return "", &TranscriptionError{Reason: "writing model field", Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &TranscriptionError{Reason: "finalizing upload form", Err: err}
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body,
	)
	if err != nil {
		return "", &TranscriptionError{Reason: "creating request", Err: err}
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &TranscriptionError{Reason: "calling transcription API", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TranscriptionError{Reason: "reading response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &TranscriptionError{
			Reason: fmt.Sprintf("API error (%d): %s", resp.StatusCode, string(respBody)),
		}
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &TranscriptionError{Reason: "decoding response", Err: err}
	}

	transcript := strings.TrimSpace(result.Text)
	if transcript == "" {
		return "", &TranscriptionError{Reason: "empty transcript"}
	}

	return transcript, nil
}
