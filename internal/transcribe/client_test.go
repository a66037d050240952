package transcribe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMediaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movie.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake media bytes"), 0o644))
	return path
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestTranscribeUploadsMultipart(t *testing.T) {
	mediaPath := writeMediaFile(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/whisper/transcribe", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "en", r.FormValue("language"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "movie.mp4", header.Filename)

		fmt.Fprint(w, `{"success":true,"data":{"duration":12.5,"subtitles":[{"id":1,"startSeconds":0,"endSeconds":2.5,"text":"hello"}]}}`)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, Token: "test-token"})
	require.NoError(t, err)

	result, err := client.Transcribe(context.Background(), mediaPath, "en")
	require.NoError(t, err)
	assert.Equal(t, 12.5, result.DurationSeconds)
	require.Len(t, result.Track, 1)
	assert.Equal(t, "hello", result.Track[0].Text)
	assert.Equal(t, 2.5, result.Track[0].EndSeconds)
}

func TestTranscribeUnauthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Transcribe(context.Background(), writeMediaFile(t), "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authenticated")
}

func TestTranscribeServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "whisper queue full", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Transcribe(context.Background(), writeMediaFile(t), "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "whisper queue full")
}

func TestTranscribeEnvelopeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"message":"unsupported format"}`)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Transcribe(context.Background(), writeMediaFile(t), "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestTranscribeMissingFile(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	_, err = client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), "en")
	assert.Error(t, err)
}
