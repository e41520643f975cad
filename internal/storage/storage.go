// Package storage persists uploaded books, recorded questions and synthesized speech.
// Keys are slash separated: "<folder>/<name>".
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned by Get when nothing is stored under the key.
var ErrObjectNotFound = errors.New("object not found")

// PutOptions describe an object being written. Size is -1 when unknown.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// Entry describes a stored object.
type Entry struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is implemented by the local directory backend and by MinIO.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (Entry, error)
	// Get streams the object; the caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, Entry, error)
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
	// List returns the objects directly under a folder prefix such as "tts/".
	List(ctx context.Context, prefix string) ([]Entry, error)
}
