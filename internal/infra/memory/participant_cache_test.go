package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"contest-scoring-service/internal/domain"
)

func TestParticipantCacheCaches(t *testing.T) {
	store := &countingStore{ParticipantStore: NewParticipantRepository()}
	if err := store.Upsert(context.Background(), sampleParticipant("1001")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cache := NewParticipantCache(store, time.Minute)

	list, err := cache.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || store.lists != 1 {
		t.Fatalf("expected one participant from one load, got %d entries, %d loads", len(list), store.lists)
	}

	if _, err := cache.List(context.Background()); err != nil {
		t.Fatalf("list 2: %v", err)
	}
	if store.lists != 1 {
		t.Fatalf("expected cache hit, store loads %d", store.lists)
	}
}

func TestParticipantCacheInvalidatesOnUpsert(t *testing.T) {
	store := &countingStore{ParticipantStore: NewParticipantRepository()}
	cache := NewParticipantCache(store, time.Minute)

	if err := cache.Upsert(context.Background(), sampleParticipant("1001")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := cache.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := cache.Upsert(context.Background(), sampleParticipant("1002")); err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	list, err := cache.List(context.Background())
	if err != nil {
		t.Fatalf("list 2: %v", err)
	}
	if len(list) != 2 || store.lists != 2 {
		t.Fatalf("expected reload with 2 participants, got %d entries, %d loads", len(list), store.lists)
	}
}

func TestParticipantCacheExpires(t *testing.T) {
	store := &countingStore{ParticipantStore: NewParticipantRepository()}
	_ = store.Upsert(context.Background(), sampleParticipant("1001"))
	cache := NewParticipantCache(store, time.Minute)
	now := time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	_, _ = cache.List(context.Background())
	now = now.Add(2 * time.Minute)
	_, _ = cache.List(context.Background())
	if store.lists != 2 {
		t.Fatalf("expected expired entry to reload, loads %d", store.lists)
	}
}

func TestParticipantCacheListAfterUpsertSkipsInFlightLoad(t *testing.T) {
	store := &pausingStore{ParticipantStore: NewParticipantRepository(), loaded: make(chan struct{}), release: make(chan struct{})}
	cache := NewParticipantCache(store, time.Minute)

	done := make(chan []domain.Participant)
	go func() {
		list, err := cache.List(context.Background())
		if err != nil {
			t.Errorf("slow list: %v", err)
		}
		done <- list
	}()

	// The slow load already read an empty store.
	<-store.loaded
	if err := cache.Upsert(context.Background(), sampleParticipant("1001")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	list, err := cache.List(context.Background())
	if err != nil {
		t.Fatalf("list after upsert: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list after upsert returned %d participants, want 1", len(list))
	}

	close(store.release)
	if old := <-done; len(old) != 0 {
		t.Fatalf("slow load should return what it read, got %d", len(old))
	}

	list, err = cache.List(context.Background())
	if err != nil {
		t.Fatalf("list after slow load: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("slow load replaced the cache with a stale list: %d participants", len(list))
	}
}

// pausingStore blocks its first List after reading, until release is closed.
type pausingStore struct {
	ParticipantStore
	loaded  chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *pausingStore) List(ctx context.Context) ([]domain.Participant, error) {
	list, err := s.ParticipantStore.List(ctx)
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.loaded)
		<-s.release
	}
	return list, err
}

type countingStore struct {
	ParticipantStore
	lists int
}

func (s *countingStore) List(ctx context.Context) ([]domain.Participant, error) {
	s.lists++
	return s.ParticipantStore.List(ctx)
}

func sampleParticipant(id string) domain.Participant {
	return domain.Participant{
		ID:          id,
		Name:        "Participant " + id,
		Institution: "IE San Martin",
		Grade:       5,
		Category:    domain.Category1,
		Teacher:     domain.TeacherNotRecorded,
		SubmittedAt: domain.NewTimeOfDay(10, 30, 0),
		Answers:     make(domain.AnswerSheet, domain.QuestionCount),
		Score:       domain.ScoreBreakdown{Blank: domain.QuestionCount},
	}
}
