package mocks

import (
	"context"

	"booktalk/internal/model"
	"booktalk/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockInteractionRepository struct {
	mock.Mock
}

func (m *MockInteractionRepository) Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Interaction), args.Error(1)
}

func (m *MockInteractionRepository) List(ctx context.Context, sessionID string, pq repository.PageQuery) (*repository.PageResult[model.Interaction], error) {
	args := m.Called(ctx, sessionID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Interaction]), args.Error(1)
}
