package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0001_create_answer_keys.sql
var createAnswerKeysSQL string

//go:embed 0002_create_key_change_events.sql
var createKeyChangeEventsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.ExecContext(ctx, createAnswerKeysSQL); err != nil {
				return err
			}
			_, err := db.ExecContext(ctx, createKeyChangeEventsSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS key_change_events`); err != nil {
				return err
			}
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS answer_keys`)
			return err
		},
	)
}
