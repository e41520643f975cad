package service

import (
	"errors"
	"fmt"
)

var (
	ErrUpload           = errors.New("upload failed")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrTranscription    = errors.New("transcription failed")
	ErrAnswerGeneration = errors.New("answer generation failed")
	ErrSynthesis        = errors.New("speech synthesis failed")
	ErrNotFound         = errors.New("file not found")
	ErrNoDocument       = errors.New("no document uploaded")
	ErrEmptyInput       = errors.New("empty input")
)

// Stage names a step of the ask pipeline.
type Stage string

const (
	StageIngestion     Stage = "ingestion"
	StageTranscription Stage = "transcription"
	StageAnswering     Stage = "answering"
	StageSynthesis     Stage = "synthesis"
	StageDelivery      Stage = "delivery"
)

// StageError reports which stage failed. Kind is one of the sentinel errors above and Err
// is the underlying cause; errors.Is matches either.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stageErr(stage Stage, kind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
