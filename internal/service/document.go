package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"booktalk/internal/config"
	"booktalk/internal/llm"
	"booktalk/internal/model"
	"booktalk/internal/session"
	"booktalk/internal/storage"
)

// documentTypes maps allowed book extensions to the MIME type registered upstream.
var documentTypes = map[string]string{
	".pdf": "application/pdf",
	".txt": "text/plain",
}

// audioTypes maps recorded-question extensions to their MIME type.
var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
}

// DocumentService handles ingestion of books and recorded questions.
type DocumentService interface {
	// SubmitDocument stores a book and makes it the session's active document.
	// In handle grounding mode the book is also registered with the generation service;
	// if that fails the session keeps its previous document.
	SubmitDocument(ctx context.Context, sessionID string, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, error)

	// SubmitAudioQuery stores a recorded question under a fresh timestamped key.
	SubmitAudioQuery(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64) (model.AudioRef, error)
}

type documentService struct {
	store     storage.Storage
	llm       llm.Client
	sessions  session.Store
	grounding string
	timeout   time.Duration
	now       func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, client llm.Client, sessions session.Store, cfg config.PipelineConfig) DocumentService {
	return &documentService{
		store:     store,
		llm:       client,
		sessions:  sessions,
		grounding: cfg.GroundingMode,
		timeout:   cfg.StageTimeout,
		now:       time.Now,
	}
}

func (s *documentService) SubmitDocument(ctx context.Context, sessionID string, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	mimeType, ok := documentTypes[ext]
	if !ok {
		return nil, stageErr(StageIngestion, ErrUpload, fmt.Errorf("%w: %q", ErrUnsupportedType, ext))
	}
	data, err := readAll(r)
	if err != nil {
		return nil, stageErr(StageIngestion, ErrUpload, err)
	}

	key := objectKey(model.FolderUploads, s.now(), ext)
	info, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{
		Size:        int64(len(data)),
		ContentType: mimeType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, stageErr(StageIngestion, ErrUpload, fmt.Errorf("write document: %w", err))
	}

	doc := model.Document{
		Key:              info.Key,
		OriginalFilename: originalFilename,
		ContentType:      mimeType,
		Size:             int64(len(data)),
		CreatedAt:        s.now().UTC(),
	}

	if s.grounding != config.GroundingInline {
		rctx, cancel := withTimeout(ctx, s.timeout)
		handle, err := s.llm.Upload(rctx, bytes.NewReader(data), originalFilename, mimeType)
		cancel()
		if err != nil {
			return nil, stageErr(StageIngestion, ErrUpload, fmt.Errorf("register document: %w", err))
		}
		if handle.IsZero() {
			return nil, stageErr(StageIngestion, ErrUpload, fmt.Errorf("register document: empty handle"))
		}
		doc.Handle = handle
	}

	if err := s.sessions.SetDocument(ctx, sessionID, doc); err != nil {
		return nil, stageErr(StageIngestion, ErrUpload, fmt.Errorf("save session: %w", err))
	}
	return &doc, nil
}

func (s *documentService) SubmitAudioQuery(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64) (model.AudioRef, error) {
	data, err := readAll(r)
	if err != nil {
		return model.AudioRef{}, stageErr(StageIngestion, ErrUpload, err)
	}
	ext, mimeType := audioType(originalFilename, contentType)
	key := objectKey(model.FolderUploads, s.now(), ext)
	info, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{
		Size:        int64(len(data)),
		ContentType: mimeType,
	})
	if err != nil {
		return model.AudioRef{}, stageErr(StageIngestion, ErrUpload, fmt.Errorf("write audio: %w", err))
	}
	return model.AudioRef{Key: info.Key, MIMEType: mimeType, Size: int64(len(data))}, nil
}

// audioType picks the extension from the filename, then the content type, then falls back to wav.
func audioType(filename, contentType string) (string, string) {
	ext := strings.ToLower(filepath.Ext(filename))
	if mt, ok := audioTypes[ext]; ok {
		return ext, mt
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for e, mt := range audioTypes {
		if mt == ct {
			return e, mt
		}
	}
	return ".wav", audioTypes[".wav"]
}

func readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, ErrEmptyInput
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	return data, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
