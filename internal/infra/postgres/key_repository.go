package postgres

import (
	"context"
	"encoding/json"

	"contest-scoring-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
)

// KeyRepository stores the current answer keys in answer_keys and the audit
// log in key_change_events. Keys are JSONB arrays of 20 letters.
type KeyRepository struct {
	pool *pgxpool.Pool
}

func NewKeyRepository(pool *pgxpool.Pool) *KeyRepository {
	return &KeyRepository{pool: pool}
}

func (r *KeyRepository) GetKey(ctx context.Context, category domain.Category) (domain.AnswerKey, bool, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT key FROM answer_keys WHERE category=$1`, string(category)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "load answer key")
	}
	key, err := decodeKey(raw)
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// SaveKey replaces the current key and appends the audit event in one transaction.
func (r *KeyRepository) SaveKey(ctx context.Context, event domain.KeyChangeEvent) (err error) {
	raw, err := json.Marshal(event.Key.Strings())
	if err != nil {
		return errors.Wrap(err, "marshal answer key")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin key transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO answer_keys (category, key, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (category) DO UPDATE SET key=EXCLUDED.key, updated_at=EXCLUDED.updated_at`,
		string(event.Category), raw, event.RecordedAt)
	if err != nil {
		return errors.Wrap(err, "upsert answer key")
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO key_change_events (id, category, key, recorded_at) VALUES ($1, $2, $3, $4)`,
		event.ID, string(event.Category), raw, event.RecordedAt)
	if err != nil {
		return errors.Wrap(err, "append key change event")
	}
	if err = tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit key transaction")
	}
	return nil
}

// History returns the latest events, newest first.
func (r *KeyRepository) History(ctx context.Context, limit int) ([]domain.KeyChangeEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category, key, recorded_at FROM key_change_events ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query key history")
	}
	defer rows.Close()

	var events []domain.KeyChangeEvent
	for rows.Next() {
		var (
			event    domain.KeyChangeEvent
			category string
			raw      []byte
		)
		if err := rows.Scan(&event.ID, &category, &raw, &event.RecordedAt); err != nil {
			return nil, errors.Wrap(err, "scan key history")
		}
		event.Category = domain.Category(category)
		if event.Key, err = decodeKey(raw); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, errors.Wrap(rows.Err(), "iterate key history")
}

func decodeKey(raw []byte) (domain.AnswerKey, error) {
	var letters []string
	if err := json.Unmarshal(raw, &letters); err != nil {
		return nil, errors.Wrap(err, "unmarshal answer key")
	}
	key := make(domain.AnswerKey, len(letters))
	for i, l := range letters {
		key[i] = domain.Choice(l)
	}
	return key, nil
}
