package mocks

import (
	"context"
	"io"

	"booktalk/internal/model"
	"booktalk/internal/service"
	"booktalk/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) SubmitDocument(ctx context.Context, sessionID string, r io.Reader, originalFilename, contentType string, size int64) (*model.Document, error) {
	args := m.Called(ctx, sessionID, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) SubmitAudioQuery(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64) (model.AudioRef, error) {
	args := m.Called(ctx, r, originalFilename, contentType, size)
	return args.Get(0).(model.AudioRef), args.Error(1)
}

type MockTranscriptionService struct {
	mock.Mock
}

func (m *MockTranscriptionService) Transcribe(ctx context.Context, ref model.AudioRef) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

type MockAnswerService struct {
	mock.Mock
}

func (m *MockAnswerService) Answer(ctx context.Context, doc *model.Document, question string) (string, string, error) {
	args := m.Called(ctx, doc, question)
	return args.String(0), args.String(1), args.Error(2)
}

type MockSpeechService struct {
	mock.Mock
}

func (m *MockSpeechService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSpeechService) PersistAndServe(ctx context.Context, text string) (*model.Answer, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Answer), args.Error(1)
}

func (m *MockSpeechService) Open(ctx context.Context, folder, filename string) (io.ReadCloser, storage.Entry, error) {
	args := m.Called(ctx, folder, filename)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.Entry), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.Entry), args.Error(2)
}

type MockAssistantService struct {
	mock.Mock
}

func (m *MockAssistantService) Ask(ctx context.Context, sessionID string, in service.AskInput) (*model.Answer, error) {
	args := m.Called(ctx, sessionID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Answer), args.Error(1)
}

func (m *MockAssistantService) Speak(ctx context.Context, text string) (*model.Answer, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Answer), args.Error(1)
}

func (m *MockAssistantService) History(ctx context.Context, sessionID string, limit, offset int) (*service.InteractionListResult, error) {
	args := m.Called(ctx, sessionID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InteractionListResult), args.Error(1)
}
