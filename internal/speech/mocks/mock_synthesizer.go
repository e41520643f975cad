package mocks

import (
	"context"

	"booktalk/internal/speech"

	"github.com/stretchr/testify/mock"
)

type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSynthesizer) Encoding() speech.Encoding {
	args := m.Called()
	return args.Get(0).(speech.Encoding)
}
