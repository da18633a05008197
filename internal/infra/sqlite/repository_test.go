package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"contest-scoring-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewKeyRepository(openTestDB(t))

	_, ok, err := repo.GetKey(ctx, domain.Category1)
	require.NoError(t, err)
	assert.False(t, ok)

	first := keyEvent("e1", domain.Category1, domain.ChoiceA, time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC))
	second := keyEvent("e2", domain.Category1, domain.ChoiceC, first.RecordedAt.Add(time.Minute))
	second.Key[4] = domain.Blank
	require.NoError(t, repo.SaveKey(ctx, first))
	require.NoError(t, repo.SaveKey(ctx, second))

	key, ok, err := repo.GetKey(ctx, domain.Category1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.Key, key)

	history, err := repo.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "e2", history[0].ID)
	assert.Equal(t, "e1", history[1].ID)
	assert.Equal(t, first.RecordedAt, history[1].RecordedAt)
}

func TestKeyRepositoryDuplicateEventRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewKeyRepository(openTestDB(t))

	at := time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveKey(ctx, keyEvent("dup", domain.Category2, domain.ChoiceA, at)))
	err := repo.SaveKey(ctx, keyEvent("dup", domain.Category2, domain.ChoiceB, at))
	require.Error(t, err)

	key, _, err := repo.GetKey(ctx, domain.Category2)
	require.NoError(t, err)
	assert.Equal(t, domain.ChoiceA, key[0], "failed audit append must not replace the key")
}

func TestParticipantRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewParticipantRepository(openTestDB(t))

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)

	p := domain.Participant{
		ID:          "41000001",
		Name:        "Ana",
		Institution: "IE Alfa",
		Grade:       5,
		Category:    domain.Category1,
		Management:  domain.ManagementPrivate,
		Teacher:     domain.TeacherNotRecorded,
		SubmittedAt: domain.NewTimeOfDay(10, 5, 0),
		Answers:     make(domain.AnswerSheet, domain.QuestionCount),
		Score:       domain.ScoreBreakdown{Blank: 20},
		ScoredAt:    time.Date(2025, 11, 20, 10, 6, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(ctx, p))

	p.Answers[0] = domain.ChoiceA
	p.Score = domain.ScoreBreakdown{Correct: 1, Blank: 19, Points: 5}
	require.NoError(t, repo.Upsert(ctx, p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "contest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func keyEvent(id string, category domain.Category, c domain.Choice, at time.Time) domain.KeyChangeEvent {
	key := make(domain.AnswerKey, domain.QuestionCount)
	for i := range key {
		key[i] = c
	}
	return domain.KeyChangeEvent{ID: id, Category: category, Key: key, RecordedAt: at}
}
