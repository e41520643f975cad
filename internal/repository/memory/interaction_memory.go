package memory

import (
	"context"
	"sort"
	"sync"

	"booktalk/internal/model"
	"booktalk/internal/repository"
)

// InteractionMemory keeps the ledger in process memory; used when no database is configured.
type InteractionMemory struct {
	mu    sync.RWMutex
	items []model.Interaction
}

func NewInteractionMemory() *InteractionMemory {
	return &InteractionMemory{}
}

var _ repository.InteractionRepository = (*InteractionMemory)(nil)

func (r *InteractionMemory) Create(_ context.Context, in *model.Interaction) (*model.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *in)
	out := *in
	return &out, nil
}

func (r *InteractionMemory) List(_ context.Context, sessionID string, pq repository.PageQuery) (*repository.PageResult[model.Interaction], error) {
	r.mu.RLock()
	matched := make([]model.Interaction, 0)
	for _, it := range r.items {
		if it.SessionID == sessionID {
			matched = append(matched, it)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(max(pq.Offset, 0), total)
	end := total
	if pq.Limit > 0 {
		end = min(start+pq.Limit, total)
	}
	return &repository.PageResult[model.Interaction]{
		Items: matched[start:end],
		Total: total,
	}, nil
}
