package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"booktalk/internal/applog"
	"booktalk/internal/model"
	"booktalk/internal/repository"
	"booktalk/internal/session"
)

var tracer = otel.Tracer("booktalk/internal/service")

// AskInput is a question as either a recorded clip or typed text. Typed text wins.
type AskInput struct {
	Audio    *model.AudioRef
	Question string
}

// InteractionListResult is the service-level DTO for paginated interactions.
type InteractionListResult struct {
	Items []model.Interaction `json:"data"`
	Total int                 `json:"total"`
}

// AssistantService runs the question pipeline:
// Received -> Ingested -> [Transcribed] -> Answered -> Synthesized -> Delivered.
type AssistantService interface {
	// Ask answers a question about the session's active document with synthesized speech.
	Ask(ctx context.Context, sessionID string, in AskInput) (*model.Answer, error)

	// Speak synthesizes text directly, skipping transcription and answering.
	Speak(ctx context.Context, text string) (*model.Answer, error)

	// History lists the session's answered questions, newest first.
	History(ctx context.Context, sessionID string, limit, offset int) (*InteractionListResult, error)
}

// AssistantDeps wires the pipeline stages together.
type AssistantDeps struct {
	Sessions     session.Store
	Transcriber  TranscriptionService
	Answerer     AnswerService
	Speech       SpeechService
	Interactions repository.InteractionRepository
	Metrics      *Metrics
	// StageTimeout bounds each stage; zero leaves only the request context.
	StageTimeout time.Duration
}

type assistantService struct {
	AssistantDeps
	now func() time.Time
}

func NewAssistantService(d AssistantDeps) AssistantService {
	return &assistantService{AssistantDeps: d, now: time.Now}
}

func (s *assistantService) Ask(ctx context.Context, sessionID string, in AskInput) (*model.Answer, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess.Document == nil {
		return nil, ErrNoDocument
	}
	doc := sess.Document

	question := strings.TrimSpace(in.Question)
	if question == "" {
		if in.Audio == nil {
			return nil, fmt.Errorf("%w: audio or question is required", ErrEmptyInput)
		}
		err := s.runStage(ctx, StageTranscription, func(ctx context.Context) error {
			var err error
			question, err = s.Transcriber.Transcribe(ctx, *in.Audio)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	var text, grounding string
	err = s.runStage(ctx, StageAnswering, func(ctx context.Context) error {
		var err error
		text, grounding, err = s.Answerer.Answer(ctx, doc, question)
		return err
	})
	if err != nil {
		return nil, err
	}

	var answer *model.Answer
	err = s.runStage(ctx, StageSynthesis, func(ctx context.Context) error {
		var err error
		answer, err = s.Speech.PersistAndServe(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	answer.Question = question
	answer.Grounding = grounding

	s.record(ctx, sessionID, doc, answer)
	return answer, nil
}

func (s *assistantService) Speak(ctx context.Context, text string) (*model.Answer, error) {
	var answer *model.Answer
	err := s.runStage(ctx, StageSynthesis, func(ctx context.Context) error {
		var err error
		answer, err = s.Speech.PersistAndServe(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// History returns paginated interactions without exposing repository types.
func (s *assistantService) History(ctx context.Context, sessionID string, limit, offset int) (*InteractionListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	if s.Interactions == nil {
		return &InteractionListResult{Items: []model.Interaction{}}, nil
	}
	res, err := s.Interactions.List(ctx, sessionID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &InteractionListResult{Items: res.Items, Total: res.Total}, nil
}

// runStage runs fn under the stage timeout, inside a span, and records its outcome.
func (s *assistantService) runStage(ctx context.Context, stage Stage, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "pipeline."+string(stage))
	defer span.End()
	ctx, cancel := withTimeout(ctx, s.StageTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	s.Metrics.observe(stage, err, elapsed)

	span.SetAttributes(attribute.String("pipeline.stage", string(stage)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		applog.Error("pipeline", "stage_failed", err, map[string]any{
			"stage":       string(stage),
			"duration_ms": elapsed.Milliseconds(),
		})
		return err
	}
	return nil
}

// record appends to the ledger. Failures are logged; the caller already has its answer.
func (s *assistantService) record(ctx context.Context, sessionID string, doc *model.Document, a *model.Answer) {
	if s.Interactions == nil {
		return
	}
	_, err := s.Interactions.Create(ctx, &model.Interaction{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		DocumentKey: doc.Key,
		Question:    a.Question,
		Answer:      a.Text,
		AudioKey:    a.AudioKey,
		Grounding:   a.Grounding,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		applog.Error("pipeline", "interaction_record_failed", err, map[string]any{"session_id": sessionID})
	}
}
