package memory

import (
	"context"
	"sync"

	"contest-scoring-service/internal/domain"
)

// KeyRepository is an in-memory implementation of app.KeyRepository.
// The audit log is an append-only slice; entries are never rewritten.
type KeyRepository struct {
	mu     sync.RWMutex
	keys   map[domain.Category]domain.AnswerKey
	events []domain.KeyChangeEvent
}

func NewKeyRepository() *KeyRepository {
	return &KeyRepository{keys: make(map[domain.Category]domain.AnswerKey)}
}

func (r *KeyRepository) GetKey(_ context.Context, category domain.Category) (domain.AnswerKey, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.keys[category]
	if !ok {
		return nil, false, nil
	}
	return key.Clone(), true, nil
}

func (r *KeyRepository) SaveKey(_ context.Context, event domain.KeyChangeEvent) error {
	event.Key = event.Key.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[event.Category] = event.Key.Clone()
	r.events = append(r.events, event)
	return nil
}

// History walks the log backwards so the newest event comes first.
func (r *KeyRepository) History(_ context.Context, limit int) ([]domain.KeyChangeEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.KeyChangeEvent, 0, n)
	for i := len(r.events) - 1; i >= 0 && len(out) < n; i-- {
		e := r.events[i]
		e.Key = e.Key.Clone()
		out = append(out, e)
	}
	return out, nil
}
