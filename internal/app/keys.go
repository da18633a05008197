package app

import (
	"context"

	"contest-scoring-service/internal/domain"
	"github.com/sirupsen/logrus"
)

// KeyRepository persists the current key per category and the audit log.
// SaveKey must replace the category key and append the event as one unit:
// either both happen or neither does.
type KeyRepository interface {
	GetKey(ctx context.Context, category domain.Category) (domain.AnswerKey, bool, error)
	SaveKey(ctx context.Context, event domain.KeyChangeEvent) error
	History(ctx context.Context, limit int) ([]domain.KeyChangeEvent, error)
}

// AnswerKeyStore guards the official keys: validation, placeholders and auditing.
type AnswerKeyStore struct {
	repo KeyRepository
	opts options
}

func NewAnswerKeyStore(repo KeyRepository, opts ...Option) *AnswerKeyStore {
	return &AnswerKeyStore{repo: repo, opts: buildOptions(opts)}
}

// GetKey returns the current key of category, or the all-blank placeholder if
// it was never set.
func (s *AnswerKeyStore) GetKey(ctx context.Context, category domain.Category) (domain.AnswerKey, error) {
	if !category.Valid() {
		return nil, domain.Invalid("category", "unknown category %q", string(category))
	}
	key, ok, err := s.repo.GetKey(ctx, category)
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.EmptyKey(), nil
	}
	return key, nil
}

// SetKey replaces the whole key of one category and records the change.
func (s *AnswerKeyStore) SetKey(ctx context.Context, category domain.Category, key domain.AnswerKey) (domain.KeyChangeEvent, error) {
	start := s.opts.now()
	event, err := s.setKey(ctx, category, key)
	s.opts.metrics.ObserveOperation("set_key", err, s.opts.now().Sub(start))
	return event, err
}

func (s *AnswerKeyStore) setKey(ctx context.Context, category domain.Category, key domain.AnswerKey) (domain.KeyChangeEvent, error) {
	if !category.Valid() {
		return domain.KeyChangeEvent{}, domain.Invalid("category", "unknown category %q", string(category))
	}
	if err := key.Validate(); err != nil {
		return domain.KeyChangeEvent{}, err
	}

	event := domain.KeyChangeEvent{
		ID:         s.opts.newID(),
		Category:   category,
		Key:        key.Clone(),
		RecordedAt: s.opts.now(),
	}
	if err := s.repo.SaveKey(ctx, event); err != nil {
		s.opts.log.WithError(err).WithField("category", category).Error("save answer key failed")
		return domain.KeyChangeEvent{}, err
	}

	s.opts.metrics.KeyUpdated(category)
	s.opts.log.WithFields(logrus.Fields{
		"category": category,
		"event":    event.ID,
		"complete": key.IsComplete(),
	}).Info("answer key updated")
	return event, nil
}

// History returns up to limit audit events, newest first.
func (s *AnswerKeyStore) History(ctx context.Context, limit int) ([]domain.KeyChangeEvent, error) {
	if limit <= 0 {
		limit = s.opts.historyLimit
	}
	return s.repo.History(ctx, limit)
}

// ScoringKey returns the key of category only if it can be used to score.
// A placeholder yields NotConfiguredError; a partially set key is a validation error.
func (s *AnswerKeyStore) ScoringKey(ctx context.Context, category domain.Category) (domain.AnswerKey, error) {
	key, err := s.GetKey(ctx, category)
	if err != nil {
		return nil, err
	}
	if key.IsPlaceholder() {
		return nil, &domain.NotConfiguredError{Category: category}
	}
	if !key.IsComplete() {
		return nil, domain.Invalid("key", "answer key for %s is incomplete", category)
	}
	return key, nil
}
