package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"contest-scoring-service/internal/domain"
	"github.com/pkg/errors"
)

// KeyRepository is the embedded-database implementation of app.KeyRepository.
type KeyRepository struct {
	db *sql.DB
}

func NewKeyRepository(db *sql.DB) *KeyRepository {
	return &KeyRepository{db: db}
}

func (r *KeyRepository) GetKey(ctx context.Context, category domain.Category) (domain.AnswerKey, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT key_json FROM answer_keys WHERE category=?`, string(category)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "load answer key")
	}
	var key domain.AnswerKey
	if err := json.Unmarshal([]byte(raw), &key); err != nil {
		return nil, false, errors.Wrap(err, "unmarshal answer key")
	}
	return key, true, nil
}

func (r *KeyRepository) SaveKey(ctx context.Context, event domain.KeyChangeEvent) (err error) {
	raw, err := json.Marshal(event.Key)
	if err != nil {
		return errors.Wrap(err, "marshal answer key")
	}
	at := event.RecordedAt.UnixNano()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin key transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO answer_keys (category, key_json, updated_at) VALUES (?, ?, ?)
ON CONFLICT(category) DO UPDATE SET key_json=excluded.key_json, updated_at=excluded.updated_at`,
		string(event.Category), string(raw), at)
	if err != nil {
		return errors.Wrap(err, "upsert answer key")
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO key_change_events (id, category, key_json, recorded_at) VALUES (?, ?, ?, ?)`,
		event.ID, string(event.Category), string(raw), at)
	if err != nil {
		return errors.Wrap(err, "append key change event")
	}
	return errors.Wrap(tx.Commit(), "commit key transaction")
}

func (r *KeyRepository) History(ctx context.Context, limit int) ([]domain.KeyChangeEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, key_json, recorded_at FROM key_change_events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query key history")
	}
	defer rows.Close()

	var events []domain.KeyChangeEvent
	for rows.Next() {
		var (
			e        domain.KeyChangeEvent
			category string
			raw      string
			at       int64
		)
		if err := rows.Scan(&e.ID, &category, &raw, &at); err != nil {
			return nil, errors.Wrap(err, "scan key history")
		}
		if err := json.Unmarshal([]byte(raw), &e.Key); err != nil {
			return nil, errors.Wrap(err, "unmarshal answer key")
		}
		e.Category = domain.Category(category)
		e.RecordedAt = time.Unix(0, at).UTC()
		events = append(events, e)
	}
	return events, errors.Wrap(rows.Err(), "iterate key history")
}
