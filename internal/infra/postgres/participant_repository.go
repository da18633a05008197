package postgres

import (
	"context"
	"encoding/json"

	"contest-scoring-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
)

const participantColumns = `id, name, institution, grade, category, category_overridden, region,
	management, teacher, submitted_at, answers, correct, incorrect, blank, points, scored_at`

// ParticipantRepository persists scored participants; re-registering an ID overwrites the row.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

func (r *ParticipantRepository) List(ctx context.Context) ([]domain.Participant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+participantColumns+` FROM participants ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "query participants")
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, errors.Wrap(rows.Err(), "iterate participants")
}

func (r *ParticipantRepository) Get(ctx context.Context, id string) (domain.Participant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants WHERE id=$1`, id)
	p, err := scanParticipant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return p, err
}

func (r *ParticipantRepository) Upsert(ctx context.Context, p domain.Participant) error {
	answers, err := json.Marshal(p.Answers.Strings())
	if err != nil {
		return errors.Wrap(err, "marshal answers")
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO participants (`+participantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name, institution=EXCLUDED.institution, grade=EXCLUDED.grade,
			category=EXCLUDED.category, category_overridden=EXCLUDED.category_overridden,
			region=EXCLUDED.region, management=EXCLUDED.management, teacher=EXCLUDED.teacher,
			submitted_at=EXCLUDED.submitted_at, answers=EXCLUDED.answers, correct=EXCLUDED.correct,
			incorrect=EXCLUDED.incorrect, blank=EXCLUDED.blank, points=EXCLUDED.points,
			scored_at=EXCLUDED.scored_at`,
		p.ID, p.Name, p.Institution, p.Grade, string(p.Category), p.CategoryOverridden, p.Region,
		string(p.Management), p.Teacher, int(p.SubmittedAt), answers,
		p.Score.Correct, p.Score.Incorrect, p.Score.Blank, p.Score.Points, p.ScoredAt)
	return errors.Wrapf(err, "upsert participant %s", p.ID)
}

func scanParticipant(row pgx.Row) (domain.Participant, error) {
	var (
		p           domain.Participant
		category    string
		management  string
		submittedAt int
		answers     []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Institution, &p.Grade, &category, &p.CategoryOverridden,
		&p.Region, &management, &p.Teacher, &submittedAt, &answers,
		&p.Score.Correct, &p.Score.Incorrect, &p.Score.Blank, &p.Score.Points, &p.ScoredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, err
		}
		return p, errors.Wrap(err, "scan participant")
	}
	p.Category = domain.Category(category)
	p.Management = domain.Management(management)
	p.SubmittedAt = domain.TimeOfDay(submittedAt)

	var letters []string
	if err := json.Unmarshal(answers, &letters); err != nil {
		return p, errors.Wrap(err, "unmarshal answers")
	}
	p.Answers = make(domain.AnswerSheet, len(letters))
	for i, l := range letters {
		p.Answers[i] = domain.Choice(l)
	}
	return p, nil
}
