package memory

import (
	"context"
	"testing"
	"time"

	"contest-scoring-service/internal/domain"
)

func TestKeyRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewKeyRepository()

	if _, ok, err := repo.GetKey(ctx, domain.Category1); ok || err != nil {
		t.Fatalf("expected no key yet, ok=%v err=%v", ok, err)
	}

	first := uniformKey(domain.ChoiceA)
	second := uniformKey(domain.ChoiceB)
	base := time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC)
	for i, key := range []domain.AnswerKey{first, second} {
		event := domain.KeyChangeEvent{ID: string(rune('a' + i)), Category: domain.Category1, Key: key, RecordedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.SaveKey(ctx, event); err != nil {
			t.Fatalf("save key: %v", err)
		}
	}

	got, ok, err := repo.GetKey(ctx, domain.Category1)
	if err != nil || !ok {
		t.Fatalf("get key: ok=%v err=%v", ok, err)
	}
	if got[0] != domain.ChoiceB {
		t.Fatalf("expected latest key, got %v", got)
	}

	history, err := repo.History(ctx, 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ID != "b" {
		t.Fatalf("expected newest event first, got %+v", history)
	}

	all, _ := repo.History(ctx, 10)
	if len(all) != 2 || all[1].ID != "a" {
		t.Fatalf("expected both events newest first, got %+v", all)
	}
}

func TestKeyRepositoryIsolatesSnapshots(t *testing.T) {
	ctx := context.Background()
	repo := NewKeyRepository()
	key := uniformKey(domain.ChoiceC)
	_ = repo.SaveKey(ctx, domain.KeyChangeEvent{ID: "x", Category: domain.Category2, Key: key})

	key[0] = domain.ChoiceE
	got, _, _ := repo.GetKey(ctx, domain.Category2)
	if got[0] != domain.ChoiceC {
		t.Fatalf("stored key must not alias caller slice")
	}
	history, _ := repo.History(ctx, 1)
	history[0].Key[1] = domain.ChoiceE
	again, _ := repo.History(ctx, 1)
	if again[0].Key[1] != domain.ChoiceC {
		t.Fatalf("audit snapshot must be immutable")
	}
}

func uniformKey(c domain.Choice) domain.AnswerKey {
	key := make(domain.AnswerKey, domain.QuestionCount)
	for i := range key {
		key[i] = c
	}
	return key
}
