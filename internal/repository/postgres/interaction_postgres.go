package postgres

import (
	"context"
	"database/sql"

	"booktalk/internal/model"
	"booktalk/internal/repository"
)

// InteractionPostgres is a PostgreSQL implementation of repository.InteractionRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type InteractionPostgres struct {
	db *sql.DB
}

// NewInteractionPostgres creates a new InteractionPostgres repository.
func NewInteractionPostgres(db *sql.DB) *InteractionPostgres {
	return &InteractionPostgres{db: db}
}

var _ repository.InteractionRepository = (*InteractionPostgres)(nil)

// Create inserts a new interaction row and returns the stored record.
func (r *InteractionPostgres) Create(ctx context.Context, in *model.Interaction) (*model.Interaction, error) {
	const q = `
		INSERT INTO interactions (id, session_id, document_key, question, answer, audio_key, grounding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, session_id, document_key, question, answer, audio_key, grounding, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		in.ID,
		in.SessionID,
		in.DocumentKey,
		in.Question,
		in.Answer,
		in.AudioKey,
		in.Grounding,
		in.CreatedAt,
	)
	var out model.Interaction
	if err := scanInteraction(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a session's interactions using LIMIT/OFFSET pagination and a total count.
func (r *InteractionPostgres) List(ctx context.Context, sessionID string, pq repository.PageQuery) (*repository.PageResult[model.Interaction], error) {
	const qCount = `SELECT COUNT(*) FROM interactions WHERE session_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, sessionID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, session_id, document_key, question, answer, audio_key, grounding, created_at
		FROM interactions
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, sessionID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Interaction, 0)
	for rows.Next() {
		var it model.Interaction
		if err := scanInteraction(rows, &it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Interaction]{
		Items: items,
		Total: total,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInteraction(s scanner, out *model.Interaction) error {
	return s.Scan(
		&out.ID,
		&out.SessionID,
		&out.DocumentKey,
		&out.Question,
		&out.Answer,
		&out.AudioKey,
		&out.Grounding,
		&out.CreatedAt,
	)
}
