package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"booktalk/internal/llm"
	"booktalk/internal/model"
	"booktalk/internal/storage"
)

const transcriptionPrompt = `Please provide only the transcription of the user's speech. Do not include any extra commentary or formatting.
Return only the raw text that was spoken.`

// TranscriptionService turns a recorded question into text.
type TranscriptionService interface {
	Transcribe(ctx context.Context, ref model.AudioRef) (string, error)
}

type transcriptionService struct {
	store storage.Storage
	llm   llm.Client
}

func NewTranscriptionService(store storage.Storage, client llm.Client) TranscriptionService {
	return &transcriptionService{store: store, llm: client}
}

// Transcribe makes a single attempt; there is no retry.
func (s *transcriptionService) Transcribe(ctx context.Context, ref model.AudioRef) (string, error) {
	rc, _, err := s.store.Get(ctx, ref.Key)
	if err != nil {
		return "", stageErr(StageTranscription, ErrTranscription, fmt.Errorf("load audio: %w", err))
	}
	defer rc.Close()

	handle, err := s.llm.Upload(ctx, rc, path.Base(ref.Key), ref.MIMEType)
	if err != nil {
		return "", stageErr(StageTranscription, ErrTranscription, err)
	}
	text, err := s.llm.Generate(ctx, llm.GenerateRequest{
		Prompt:          transcriptionPrompt,
		Files:           []model.DocumentHandle{handle},
		Temperature:     0.3,
		MaxOutputTokens: 2048,
	})
	if err != nil {
		return "", stageErr(StageTranscription, ErrTranscription, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", stageErr(StageTranscription, ErrTranscription, errors.New("empty transcription"))
	}
	return text, nil
}
