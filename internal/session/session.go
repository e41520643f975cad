package session

import (
	"context"

	"booktalk/internal/model"
)

// Store keeps each caller's active document, keyed by session id.
// A session with no document is returned as a Session with a nil Document, not an error.
type Store interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	// SetDocument makes doc the session's active document, replacing any previous one.
	SetDocument(ctx context.Context, id string, doc model.Document) error
	// ActiveDocumentKeys lists the storage keys of every session's active document.
	ActiveDocumentKeys(ctx context.Context) ([]string, error)
}
