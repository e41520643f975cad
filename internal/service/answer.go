package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"booktalk/internal/config"
	"booktalk/internal/llm"
	"booktalk/internal/model"
	"booktalk/internal/pdftext"
	"booktalk/internal/storage"
)

// DefaultMaxBookChars bounds the book text inlined into a prompt.
const DefaultMaxBookChars = 15000

const handleSystemInstruction = "You are a helpful assistant. Answer using only the uploaded document. " +
	"If the document does not contain the answer, say so."

const answerInstruction = "Answer clearly based only on the book. Keep your answer concise (1-3 sentences)."

// AnswerService produces an answer grounded in the session's document.
type AnswerService interface {
	// Answer returns the answer text and the grounding mode actually used.
	Answer(ctx context.Context, doc *model.Document, question string) (string, string, error)
}

type answerService struct {
	store      storage.Storage
	llm        llm.Client
	extractors map[string]pdftext.Extractor
	mode       string
	maxChars   int
}

func NewAnswerService(store storage.Storage, client llm.Client, cfg config.PipelineConfig) AnswerService {
	maxChars := cfg.MaxBookChars
	if maxChars <= 0 {
		maxChars = DefaultMaxBookChars
	}
	return &answerService{
		store: store,
		llm:   client,
		extractors: map[string]pdftext.Extractor{
			".pdf": pdftext.NewPDF(),
			".txt": pdftext.Plain{},
		},
		mode:     cfg.GroundingMode,
		maxChars: maxChars,
	}
}

func (s *answerService) Answer(ctx context.Context, doc *model.Document, question string) (string, string, error) {
	if doc == nil {
		return "", "", ErrNoDocument
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", "", stageErr(StageAnswering, ErrAnswerGeneration, ErrEmptyInput)
	}

	mode := s.mode
	if mode != config.GroundingInline && doc.Handle.IsZero() {
		// Uploaded while running inline; there is nothing to reference upstream.
		mode = config.GroundingInline
	}

	var req llm.GenerateRequest
	switch mode {
	case config.GroundingInline:
		book, err := s.bookText(ctx, doc)
		if err != nil {
			return "", mode, stageErr(StageAnswering, ErrAnswerGeneration, err)
		}
		req = llm.GenerateRequest{Prompt: BuildInlinePrompt(book, question, s.maxChars)}
	default:
		mode = config.GroundingHandle
		req = llm.GenerateRequest{
			System: handleSystemInstruction,
			Prompt: BuildHandlePrompt(question),
			Files:  []model.DocumentHandle{doc.Handle},
		}
	}
	req.Temperature = 0.5
	req.MaxOutputTokens = 512

	text, err := s.llm.Generate(ctx, req)
	if err != nil {
		return "", mode, stageErr(StageAnswering, ErrAnswerGeneration, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", mode, stageErr(StageAnswering, ErrAnswerGeneration, errors.New("empty answer"))
	}
	return text, mode, nil
}

func (s *answerService) bookText(ctx context.Context, doc *model.Document) (string, error) {
	ext := strings.ToLower(filepath.Ext(doc.Key))
	ex, ok := s.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	rc, _, err := s.store.Get(ctx, doc.Key)
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return ex.Extract(ctx, data)
}

// Truncate returns at most n characters of s. Content past the cut is dropped; there is no chunking.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// BuildInlinePrompt interpolates the first maxChars characters of the book and the question.
func BuildInlinePrompt(book, question string, maxChars int) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant. The user uploaded the following book:\n\n")
	b.WriteString("---BOOK START---\n")
	b.WriteString(Truncate(book, maxChars))
	b.WriteString("\n---BOOK END---\n\n")
	fmt.Fprintf(&b, "They asked: %q\n\n", question)
	b.WriteString(answerInstruction)
	return b.String()
}

// BuildHandlePrompt is the user turn sent alongside the registered document.
func BuildHandlePrompt(question string) string {
	return fmt.Sprintf("They asked: %q\n\n%s", question, answerInstruction)
}
