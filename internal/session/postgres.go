package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"booktalk/internal/model"
)

// Postgres stores sessions in the sessions table so they survive restarts and are shared
// between replicas.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var _ Store = (*Postgres)(nil)

func (p *Postgres) Get(ctx context.Context, id string) (*model.Session, error) {
	const q = `
		SELECT document_key, original_filename, content_type, size,
		       handle_name, handle_uri, handle_mime, document_created_at, updated_at
		FROM sessions
		WHERE id = $1
	`
	var (
		d model.Document
		s = model.Session{ID: id}
	)
	err := p.db.QueryRowContext(ctx, q, id).Scan(
		&d.Key,
		&d.OriginalFilename,
		&d.ContentType,
		&d.Size,
		&d.Handle.Name,
		&d.Handle.URI,
		&d.Handle.MIMEType,
		&d.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &s, nil
		}
		return nil, err
	}
	s.Document = &d
	return &s, nil
}

func (p *Postgres) SetDocument(ctx context.Context, id string, doc model.Document) error {
	const q = `
		INSERT INTO sessions (id, document_key, original_filename, content_type, size,
		                      handle_name, handle_uri, handle_mime, document_created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			document_key = EXCLUDED.document_key,
			original_filename = EXCLUDED.original_filename,
			content_type = EXCLUDED.content_type,
			size = EXCLUDED.size,
			handle_name = EXCLUDED.handle_name,
			handle_uri = EXCLUDED.handle_uri,
			handle_mime = EXCLUDED.handle_mime,
			document_created_at = EXCLUDED.document_created_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := p.db.ExecContext(ctx, q,
		id,
		doc.Key,
		doc.OriginalFilename,
		doc.ContentType,
		doc.Size,
		doc.Handle.Name,
		doc.Handle.URI,
		doc.Handle.MIMEType,
		doc.CreatedAt,
		time.Now().UTC(),
	)
	return err
}

func (p *Postgres) ActiveDocumentKeys(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT document_key FROM sessions WHERE document_key <> ''`
	rows, err := p.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
