package repository

import (
	"context"

	"booktalk/internal/model"
)

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, memory) inside this directory.

// InteractionRepository records answered questions. No business logic here,
// strictly persistence operations.
type InteractionRepository interface {
	// Create inserts a new interaction. The caller provides ID and CreatedAt.
	Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error)

	// List returns a session's interactions, newest first, with the session's total count.
	List(ctx context.Context, sessionID string, pq PageQuery) (*PageResult[model.Interaction], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
