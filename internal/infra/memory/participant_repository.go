package memory

import (
	"context"
	"sort"
	"sync"

	"contest-scoring-service/internal/domain"
)

// ParticipantRepository is an in-memory implementation of app.ParticipantRepository.
type ParticipantRepository struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
}

func NewParticipantRepository() *ParticipantRepository {
	return &ParticipantRepository{participants: make(map[string]domain.Participant)}
}

// List returns every participant ordered by ID so callers see a stable sequence.
func (r *ParticipantRepository) List(_ context.Context) ([]domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ParticipantRepository) Get(_ context.Context, id string) (domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return p, nil
}

func (r *ParticipantRepository) Upsert(_ context.Context, p domain.Participant) error {
	p.Answers = append(domain.AnswerSheet(nil), p.Answers...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.ID] = p
	return nil
}
