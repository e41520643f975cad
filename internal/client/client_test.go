package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:8080", time.Second)
	assert.Error(t, err)
}

func TestUploadBookThenAsk_KeepsSessionCookie(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload_pdf":
			fh, hdr, err := r.FormFile("pdf")
			require.NoError(t, err)
			defer fh.Close()
			assert.Equal(t, "book.pdf", hdr.Filename)
			http.SetCookie(w, &http.Cookie{Name: "booktalk_session", Value: "s1", Path: "/"})
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"key": "uploads/book.pdf", "original_filename": "book.pdf"})
		case "/ask":
			ck, err := r.Cookie("booktalk_session")
			require.NoError(t, err)
			assert.Equal(t, "s1", ck.Value)
			assert.Equal(t, "What is chapter 2 about?", r.FormValue("question"))
			w.Header().Set("X-Audio-File", "answer.mp3")
			w.Header().Set("X-Transcript-File", "answer.txt")
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("MP3"))
		case "/tts/answer.txt":
			_, _ = io.WriteString(w, "Chapter 2 covers X.")
		default:
			http.NotFound(w, r)
		}
	})

	path := filepath.Join(t.TempDir(), "book.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	ctx := context.Background()
	doc, err := c.UploadBook(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "book.pdf", doc.OriginalFilename)

	ans, err := c.Ask(ctx, "What is chapter 2 about?")
	require.NoError(t, err)
	assert.Equal(t, []byte("MP3"), ans.Audio)
	assert.Equal(t, "audio/mpeg", ans.MediaType)
	assert.Equal(t, "answer.mp3", ans.AudioFile)

	text, err := c.Transcript(ctx, ans)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 2 covers X.", text)
}

func TestAskRecording(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fh, hdr, err := r.FormFile("audio_data")
		require.NoError(t, err)
		defer fh.Close()
		assert.Equal(t, "question.wav", hdr.Filename)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("MP3"))
	})

	path := filepath.Join(t.TempDir(), "question.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o600))

	ans, err := c.AskRecording(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("MP3"), ans.Audio)
	assert.Empty(t, ans.TranscriptFile)
}

func TestAsk_DecodesErrorEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"request_id":"rid-1","error":{"code":"NO_DOCUMENT","message":"upload a book first"}}`)
	})

	_, err := c.Ask(context.Background(), "hi")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "NO_DOCUMENT", apiErr.Code)
	assert.Equal(t, "rid-1", apiErr.RequestID)
}

func TestAsk_NonJSONError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.Ask(context.Background(), "hi")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "HTTP_ERROR", apiErr.Code)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestTranscript_RequiresFile(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.Transcript(context.Background(), &Answer{})
	assert.Error(t, err)
}
