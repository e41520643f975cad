package mocks

import (
	"context"
	"io"

	"booktalk/internal/llm"
	"booktalk/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Upload(ctx context.Context, r io.Reader, displayName, mimeType string) (model.DocumentHandle, error) {
	args := m.Called(ctx, r, displayName, mimeType)
	return args.Get(0).(model.DocumentHandle), args.Error(1)
}

func (m *MockClient) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
