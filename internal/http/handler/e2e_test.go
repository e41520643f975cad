package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"booktalk/internal/config"
	"booktalk/internal/http/middleware"
	"booktalk/internal/llm"
	llmMocks "booktalk/internal/llm/mocks"
	"booktalk/internal/model"
	"booktalk/internal/repository/memory"
	"booktalk/internal/service"
	"booktalk/internal/session"
	"booktalk/internal/speech"
	speechMocks "booktalk/internal/speech/mocks"
	"booktalk/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type e2eApp struct {
	app    *fiber.App
	dir    string
	client *llmMocks.MockClient
	synth  *speechMocks.MockSynthesizer
	cookie *http.Cookie
}

func newE2EApp(t *testing.T) *e2eApp {
	t.Helper()
	quietLogs(t)

	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	require.NoError(t, err)

	client := new(llmMocks.MockClient)
	synth := new(speechMocks.MockSynthesizer)
	sessions := session.NewMemory()
	cfg := config.PipelineConfig{
		GroundingMode: config.GroundingHandle,
		MaxBookChars:  service.DefaultMaxBookChars,
		StageTimeout:  5 * time.Second,
	}

	docs := service.NewDocumentService(store, client, sessions, cfg)
	speechSvc := service.NewSpeechService(store, synth)
	asst := service.NewAssistantService(service.AssistantDeps{
		Sessions:     sessions,
		Transcriber:  service.NewTranscriptionService(store, client),
		Answerer:     service.NewAnswerService(store, client, cfg),
		Speech:       speechSvc,
		Interactions: memory.NewInteractionMemory(),
		StageTimeout: cfg.StageTimeout,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Use(middleware.Session())
	RegisterRoutes(app, Deps{Documents: docs, Assistant: asst, Speech: speechSvc, StaticDir: dir})

	return &e2eApp{app: app, dir: dir, client: client, synth: synth}
}

// do sends req with the current session cookie and remembers any cookie the server issues.
func (e *e2eApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookie {
			e.cookie = &http.Cookie{Name: ck.Name, Value: ck.Value}
		}
	}
	return resp
}

func (e *e2eApp) postFile(t *testing.T, target, field, filename string, content []byte) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	part.Write(content)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(t, req)
}

func TestEndToEnd_AskAboutUploadedBook(t *testing.T) {
	e := newE2EApp(t)

	e.client.On("Upload", mock.Anything, mock.Anything, "book.pdf", "application/pdf").
		Return(model.DocumentHandle{Name: "files/h1", URI: "h1", MIMEType: "application/pdf"}, nil).Once()
	e.client.On("Upload", mock.Anything, mock.Anything, mock.MatchedBy(func(name string) bool {
		return strings.HasSuffix(name, ".wav")
	}), "audio/wav").Return(model.DocumentHandle{Name: "files/a1", URI: "a1", MIMEType: "audio/wav"}, nil).Once()
	e.client.On("Generate", mock.Anything, mock.MatchedBy(func(req llm.GenerateRequest) bool {
		return len(req.Files) == 1 && req.Files[0].URI == "a1"
	})).Return("What is chapter 2 about?", nil).Once()
	e.client.On("Generate", mock.Anything, mock.MatchedBy(func(req llm.GenerateRequest) bool {
		return len(req.Files) == 1 && req.Files[0].URI == "h1" && strings.Contains(req.Prompt, "What is chapter 2 about?")
	})).Return("Chapter 2 covers X.", nil).Once()
	e.synth.On("Encoding").Return(speech.EncodingMP3)
	e.synth.On("Synthesize", mock.Anything, "Chapter 2 covers X.").Return([]byte("ID3-synthesized"), nil).Once()

	resp := e.postFile(t, "/upload_pdf", "pdf", "book.pdf", []byte("%PDF-1.4 fake book"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var doc model.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "h1", doc.Handle.URI)
	require.NotNil(t, e.cookie)

	resp = e.postFile(t, "/ask", "audio_data", "question.wav", []byte("RIFF-fake-wave"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	audio, _ := io.ReadAll(resp.Body)
	assert.Equal(t, []byte("ID3-synthesized"), audio)

	audioFile := resp.Header.Get(AudioFileHeader)
	require.True(t, strings.HasSuffix(audioFile, ".mp3"))
	assert.Equal(t, audioFile+".txt", resp.Header.Get(TranscriptFileHeader))

	sidecar, err := os.ReadFile(filepath.Join(e.dir, model.FolderSpeech, audioFile+".txt"))
	require.NoError(t, err)
	assert.Equal(t, "Chapter 2 covers X.", string(sidecar))

	// repeated reads of the persisted answer return identical bytes
	for i := 0; i < 2; i++ {
		resp = e.do(t, httptest.NewRequest(http.MethodGet, "/tts/"+audioFile, nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got, _ := io.ReadAll(resp.Body)
		assert.Equal(t, []byte("ID3-synthesized"), got)
	}

	resp = e.do(t, httptest.NewRequest(http.MethodGet, "/answers", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hist service.InteractionListResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hist))
	require.Equal(t, 1, hist.Total)
	assert.Equal(t, "What is chapter 2 about?", hist.Items[0].Question)
	assert.Equal(t, "Chapter 2 covers X.", hist.Items[0].Answer)

	e.client.AssertExpectations(t)
	e.synth.AssertExpectations(t)
}

func TestEndToEnd_AskWithoutDocument(t *testing.T) {
	e := newE2EApp(t)

	body := strings.NewReader("question=Anything%3F")
	req := httptest.NewRequest(http.MethodPost, "/ask", body)
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	resp := e.do(t, req)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NO_DOCUMENT", decodeError(t, resp).Error.Code)
	e.client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestEndToEnd_FailedUploadKeepsPreviousDocument(t *testing.T) {
	e := newE2EApp(t)

	e.client.On("Upload", mock.Anything, mock.Anything, "first.pdf", "application/pdf").
		Return(model.DocumentHandle{URI: "h1"}, nil).Once()
	e.client.On("Upload", mock.Anything, mock.Anything, "second.pdf", "application/pdf").
		Return(model.DocumentHandle{}, assert.AnError).Once()
	e.client.On("Generate", mock.Anything, mock.MatchedBy(func(req llm.GenerateRequest) bool {
		return len(req.Files) == 1 && req.Files[0].URI == "h1"
	})).Return("From the first book.", nil).Once()
	e.synth.On("Encoding").Return(speech.EncodingMP3)
	e.synth.On("Synthesize", mock.Anything, "From the first book.").Return([]byte("ID3"), nil).Once()

	resp := e.postFile(t, "/upload_pdf", "pdf", "first.pdf", []byte("%PDF one"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.postFile(t, "/upload_pdf", "pdf", "second.pdf", []byte("%PDF two"))
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "UPLOAD_FAILED", decodeError(t, resp).Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader("question=Which+book%3F"))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	resp = e.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	e.client.AssertExpectations(t)
}

func TestEndToEnd_ServeRejectsOtherFolders(t *testing.T) {
	e := newE2EApp(t)
	require.NoError(t, os.MkdirAll(filepath.Join(e.dir, "private"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "private", "key.txt"), []byte("secret"), 0o644))

	for _, target := range []string{"/private/key.txt", "/tts/missing.mp3", "/uploads/..%2Fprivate%2Fkey.txt"} {
		resp := e.do(t, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, target)
	}
}
