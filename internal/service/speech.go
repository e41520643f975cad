package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"booktalk/internal/model"
	"booktalk/internal/speech"
	"booktalk/internal/storage"
)

// SpeechService synthesizes answers and serves persisted files.
type SpeechService interface {
	// Synthesize converts text to audio in the configured encoding.
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// PersistAndServe writes the sidecar transcript, synthesizes text and writes the audio
	// next to it. The transcript is written first so a synthesis failure still leaves it on disk.
	PersistAndServe(ctx context.Context, text string) (*model.Answer, error)

	// Open returns a persisted file from one of the served folders.
	// Unknown folders, unsafe names and missing files all yield ErrNotFound.
	Open(ctx context.Context, folder, filename string) (io.ReadCloser, storage.Entry, error)
}

var servedFolders = map[string]bool{
	model.FolderUploads: true,
	model.FolderSpeech:  true,
}

type speechService struct {
	store storage.Storage
	synth speech.Synthesizer
	now   func() time.Time
}

func NewSpeechService(store storage.Storage, synth speech.Synthesizer) SpeechService {
	return &speechService{store: store, synth: synth, now: time.Now}
}

func (s *speechService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, stageErr(StageSynthesis, ErrSynthesis, ErrEmptyInput)
	}
	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return nil, stageErr(StageSynthesis, ErrSynthesis, err)
	}
	if len(audio) == 0 {
		return nil, stageErr(StageSynthesis, ErrSynthesis, errors.New("empty audio"))
	}
	return audio, nil
}

func (s *speechService) PersistAndServe(ctx context.Context, text string) (*model.Answer, error) {
	if strings.TrimSpace(text) == "" {
		return nil, stageErr(StageSynthesis, ErrSynthesis, ErrEmptyInput)
	}
	enc := s.synth.Encoding()
	audioKey := objectKey(model.FolderSpeech, s.now(), enc.Extension())
	transcriptKey := audioKey + ".txt"

	if _, err := s.store.Put(ctx, transcriptKey, strings.NewReader(text), storage.PutOptions{
		Size:        int64(len(text)),
		ContentType: "text/plain; charset=utf-8",
	}); err != nil {
		return nil, stageErr(StageDelivery, ErrSynthesis, fmt.Errorf("write transcript: %w", err))
	}

	audio, err := s.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Put(ctx, audioKey, bytes.NewReader(audio), storage.PutOptions{
		Size:        int64(len(audio)),
		ContentType: enc.MediaType(),
	}); err != nil {
		return nil, stageErr(StageDelivery, ErrSynthesis, fmt.Errorf("write audio: %w", err))
	}

	return &model.Answer{
		Text:          text,
		AudioKey:      audioKey,
		TranscriptKey: transcriptKey,
		MediaType:     enc.MediaType(),
		Audio:         audio,
	}, nil
}

func (s *speechService) Open(ctx context.Context, folder, filename string) (io.ReadCloser, storage.Entry, error) {
	if !servedFolders[folder] || !safeFilename(filename) {
		return nil, storage.Entry{}, ErrNotFound
	}
	rc, info, err := s.store.Get(ctx, folder+"/"+filename)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.Entry{}, ErrNotFound
		}
		return nil, storage.Entry{}, err
	}
	return rc, info, nil
}
