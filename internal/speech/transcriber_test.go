package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhisperClient_Transcribe(t *testing.T) {
	var gotModel string
	var gotAudio []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		buf := make([]byte, 16)
		n, _ := file.Read(buf)
		gotAudio = buf[:n]

		json.NewEncoder(w).Encode(map[string]string{"text": "  buy milk tomorrow  "})
	}))
	defer server.Close()

	client := NewWhisperClient("secret", server.URL, "whisper-1")
	transcript, err := client.Transcribe(context.Background(), []byte("pcm"))

	require.NoError(t, err)
	assert.Equal(t, "buy milk tomorrow", transcript, "transcript is trimmed")
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, []byte("pcm"), gotAudio)
}

func TestWhisperClient_empty_transcript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "   "})
	}))
	defer server.Close()

	client := NewWhisperClient("k", server.URL, "")
	_, err := client.Transcribe(context.Background(), []byte("pcm"))

	require.Error(t, err)
	assert.True(t, IsTranscriptionError(err))
}

func TestWhisperClient_api_error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewWhisperClient("k", server.URL, "")
	_, err := client.Transcribe(context.Background(), []byte("pcm"))

	require.Error(t, err)
	assert.True(t, IsTranscriptionError(err))
	assert.Contains(t, err.Error(), "429")
}
