package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"contest-scoring-service/internal/domain"
	"github.com/pkg/errors"
)

const participantColumns = `id, name, institution, grade, category, category_overridden, region,
  management, teacher, submitted_at, answers_json, correct, incorrect, blank, points, scored_at`

// ParticipantRepository is the embedded-database implementation of app.ParticipantRepository.
type ParticipantRepository struct {
	db *sql.DB
}

func NewParticipantRepository(db *sql.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) List(ctx context.Context) ([]domain.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+participantColumns+` FROM participants ORDER BY id`)
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
	row := r.db.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM participants WHERE id=?`, id)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return p, err
}

func (r *ParticipantRepository) Upsert(ctx context.Context, p domain.Participant) error {
	answers, err := json.Marshal(p.Answers)
	if err != nil {
		return errors.Wrap(err, "marshal answers")
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO participants (`+participantColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name, institution=excluded.institution, grade=excluded.grade,
  category=excluded.category, category_overridden=excluded.category_overridden,
  region=excluded.region, management=excluded.management, teacher=excluded.teacher,
  submitted_at=excluded.submitted_at, answers_json=excluded.answers_json,
  correct=excluded.correct, incorrect=excluded.incorrect, blank=excluded.blank,
  points=excluded.points, scored_at=excluded.scored_at`,
		p.ID, p.Name, p.Institution, p.Grade, string(p.Category), p.CategoryOverridden, p.Region,
		string(p.Management), p.Teacher, int(p.SubmittedAt), string(answers),
		p.Score.Correct, p.Score.Incorrect, p.Score.Blank, p.Score.Points, p.ScoredAt.UnixNano())
	return errors.Wrapf(err, "upsert participant %s", p.ID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row scanner) (domain.Participant, error) {
	var (
		p           domain.Participant
		category    string
		management  string
		submittedAt int
		answers     string
		scoredAt    int64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Institution, &p.Grade, &category, &p.CategoryOverridden,
		&p.Region, &management, &p.Teacher, &submittedAt, &answers,
		&p.Score.Correct, &p.Score.Incorrect, &p.Score.Blank, &p.Score.Points, &scoredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, errors.Wrap(err, "scan participant")
	}
	if err := json.Unmarshal([]byte(answers), &p.Answers); err != nil {
		return p, errors.Wrap(err, "unmarshal answers")
	}
	p.Category = domain.Category(category)
	p.Management = domain.Management(management)
	p.SubmittedAt = domain.TimeOfDay(submittedAt)
	p.ScoredAt = time.Unix(0, scoredAt).UTC()
	return p, nil
}
