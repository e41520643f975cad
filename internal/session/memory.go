package session

import (
	"context"
	"sync"
	"time"

	"booktalk/internal/model"
)

// Memory is a process-local Store. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]model.Session), now: time.Now}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, id string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return &model.Session{ID: id}, nil
	}
	out := s
	if s.Document != nil {
		d := *s.Document
		out.Document = &d
	}
	return &out, nil
}

func (m *Memory) SetDocument(_ context.Context, id string, doc model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = model.Session{ID: id, Document: &doc, UpdatedAt: m.now().UTC()}
	return nil
}

func (m *Memory) ActiveDocumentKeys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{}, len(m.sessions))
	keys := make([]string, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.Document == nil || s.Document.Key == "" {
			continue
		}
		if _, ok := seen[s.Document.Key]; ok {
			continue
		}
		seen[s.Document.Key] = struct{}{}
		keys = append(keys, s.Document.Key)
	}
	return keys, nil
}
