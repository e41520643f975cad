package handler

import (
	"context"
	"database/sql"
	"mime/multipart"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"booktalk/internal/http/middleware"
	"booktalk/internal/model"
	"booktalk/internal/service"
)

const (
	// AudioFileHeader names the served audio file of an answer.
	AudioFileHeader = "X-Audio-File"
	// TranscriptFileHeader names the sidecar transcript of an answer.
	TranscriptFileHeader = "X-Transcript-File"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	DB        *sql.DB // nil when running without a database
	Documents service.DocumentService
	Assistant service.AssistantService
	Speech    service.SpeechService
	StaticDir string
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// The catch-all file route is registered last so it never shadows the fixed paths.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	app.Get("/", Index(d.StaticDir))
	app.Get("/script.js", Script(d.StaticDir))

	app.Post("/upload_pdf", UploadDocument(d.Documents))
	app.Post("/upload", Upload(d.Documents, d.Assistant))
	app.Post("/ask", Ask(d.Documents, d.Assistant))
	app.Post("/upload_text", UploadText(d.Assistant))
	app.Get("/answers", ListAnswers(d.Assistant))

	app.Get("/:folder/:filename", ServeFile(d.Speech))
}

// HealthCheck pings the database when one is configured.
//
// @Summary Readiness probe
// @Produce json
// @Success 200
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy", "database": "disabled"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
//
// @Summary Liveness probe
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Index serves the single page client.
func Index(staticDir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendFile(filepath.Join(staticDir, "index.html"))
	}
}

// Script serves the client script.
func Script(staticDir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Type("js")
		return c.SendFile(filepath.Join(staticDir, "script.js"))
	}
}

// UploadDocument accepts a book (multipart field "pdf" or "file") and makes it the
// session's active document.
//
// @Summary Upload a book and make it the session's active document
// @Accept mpfd
// @Produce json
// @Param pdf formData file true "PDF or plain-text book"
// @Param redirect formData string false "1 to answer with a 303 redirect to /"
// @Success 201 {object} model.Document
// @Success 303
// @Failure 400 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /upload_pdf [post]
func UploadDocument(docs service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return uploadDocument(c, docs)
	}
}

// Upload is the combined form endpoint: an "audio_data" part is treated as a question,
// anything else as a document upload.
func Upload(docs service.DocumentService, asst service.AssistantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if fh, err := c.FormFile("audio_data"); err == nil {
			return ask(c, docs, asst, fh)
		}
		return uploadDocument(c, docs)
	}
}

func uploadDocument(c *fiber.Ctx, docs service.DocumentService) error {
	fh, err := formFile(c, "pdf", "file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	}

	f, err := fh.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
	}
	defer f.Close()

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}

	doc, err := docs.SubmitDocument(c.UserContext(), middleware.SessionID(c), f, fh.Filename, ct, fh.Size)
	if err != nil {
		return writeServiceError(c, err)
	}
	if c.FormValue("redirect") == "1" {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// Ask answers a recorded ("audio_data") or typed ("question") question with speech.
//
// @Summary Ask a recorded or typed question about the active document
// @Accept mpfd
// @Produce audio/mpeg,audio/wav
// @Param audio_data formData file false "Recorded question"
// @Param question formData string false "Typed question; takes precedence over audio_data"
// @Success 200 {file} binary "Synthesized answer"
// @Header 200 {string} X-Audio-File "served audio filename"
// @Header 200 {string} X-Transcript-File "sidecar transcript filename"
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload "No document uploaded"
// @Failure 502 {object} errorPayload "Upstream stage failed"
// @Failure 504 {object} errorPayload "Upstream stage timed out"
// @Router /ask [post]
func Ask(docs service.DocumentService, asst service.AssistantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, _ := c.FormFile("audio_data")
		return ask(c, docs, asst, fh)
	}
}

func ask(c *fiber.Ctx, docs service.DocumentService, asst service.AssistantService, fh *multipart.FileHeader) error {
	in := service.AskInput{Question: strings.TrimSpace(c.FormValue("question"))}
	if in.Question == "" && fh == nil {
		return writeError(c, fiber.StatusBadRequest, "QUESTION_REQUIRED", "audio_data or question is required")
	}

	if in.Question == "" {
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ref, err := docs.SubmitAudioQuery(c.UserContext(), f, fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		in.Audio = &ref
	}

	ans, err := asst.Ask(c.UserContext(), middleware.SessionID(c), in)
	if err != nil {
		return writeServiceError(c, err)
	}
	return sendAnswer(c, ans)
}

// UploadText synthesizes the "text" form field directly.
//
// @Summary Synthesize text directly
// @Accept x-www-form-urlencoded
// @Produce audio/mpeg,audio/wav
// @Param text formData string true "Text to speak"
// @Success 200 {file} binary "Synthesized audio"
// @Failure 400 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /upload_text [post]
func UploadText(asst service.AssistantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		text := c.FormValue("text")
		if text == "" {
			return writeError(c, fiber.StatusBadRequest, "TEXT_REQUIRED", "text is required")
		}
		ans, err := asst.Speak(c.UserContext(), text)
		if err != nil {
			return writeServiceError(c, err)
		}
		return sendAnswer(c, ans)
	}
}

// ListAnswers returns the session's answered questions with limit & offset.
//
// @Summary List the session's answered questions
// @Produce json
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Items to skip" default(0)
// @Success 200 {object} service.InteractionListResult
// @Failure 400 {object} errorPayload
// @Router /answers [get]
func ListAnswers(asst service.AssistantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := asst.History(c.UserContext(), middleware.SessionID(c), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// ServeFile streams a persisted upload or synthesized answer.
//
// @Summary Download a persisted upload or synthesized answer
// @Param folder path string true "Folder" Enums(uploads, tts)
// @Param filename path string true "File name"
// @Success 200 {file} binary "File content"
// @Failure 404 {object} errorPayload
// @Router /{folder}/{filename} [get]
func ServeFile(speech service.SpeechService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, info, err := speech.Open(c.UserContext(), c.Params("folder"), c.Params("filename"))
		if err != nil {
			return writeServiceError(c, err)
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		} else {
			c.Type(filepath.Ext(info.Key))
		}
		size := -1
		if info.Size > 0 {
			size = int(info.Size)
		}
		return c.SendStream(rc, size)
	}
}

func sendAnswer(c *fiber.Ctx, ans *model.Answer) error {
	if ans.AudioKey != "" {
		c.Set(AudioFileHeader, path.Base(ans.AudioKey))
	}
	if ans.TranscriptKey != "" {
		c.Set(TranscriptFileHeader, path.Base(ans.TranscriptKey))
	}
	c.Set(fiber.HeaderContentType, ans.MediaType)
	return c.Send(ans.Audio)
}

func formFile(c *fiber.Ctx, fields ...string) (*multipart.FileHeader, error) {
	var lastErr error
	for _, f := range fields {
		fh, err := c.FormFile(f)
		if err == nil {
			return fh, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
