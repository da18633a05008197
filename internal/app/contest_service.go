package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"contest-scoring-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ParticipantRepository stores scored participants keyed by identity.
// Upsert is last-write-wins.
type ParticipantRepository interface {
	List(ctx context.Context) ([]domain.Participant, error)
	Get(ctx context.Context, id string) (domain.Participant, error)
	Upsert(ctx context.Context, p domain.Participant) error
}

// Registration is the raw input of one answer sheet submission.
type Registration struct {
	ID          string   `json:"id" validate:"required,max=32"`
	Name        string   `json:"name" validate:"required,max=200"`
	Institution string   `json:"institution" validate:"max=200"`
	Grade       string   `json:"grade" validate:"required"`
	Category    string   `json:"category"`
	Region      string   `json:"region" validate:"max=100"`
	Management  string   `json:"management"`
	Teacher     string   `json:"teacher" validate:"max=200"`
	SubmittedAt string   `json:"submittedAt"`
	Answers     []string `json:"answers" validate:"required,len=20"`
}

// ContestService wires the key store, scorer, ranker and aggregator to storage.
type ContestService struct {
	keys         *AnswerKeyStore
	participants ParticipantRepository
	hub          *LeaderboardHub
	validate     *validator.Validate
	opts         options
}

func NewContestService(keys *AnswerKeyStore, participants ParticipantRepository, opts ...Option) *ContestService {
	return &ContestService{
		keys:         keys,
		participants: participants,
		hub:          NewLeaderboardHub(),
		validate:     validator.New(),
		opts:         buildOptions(opts),
	}
}

// Keys exposes the answer key store.
func (s *ContestService) Keys() *AnswerKeyStore {
	return s.keys
}

// Register scores a submission against its category key and stores it,
// replacing any earlier record of the same participant.
func (s *ContestService) Register(ctx context.Context, reg Registration) (domain.Participant, error) {
	start := s.opts.now()
	p, err := s.register(ctx, reg)
	s.opts.metrics.ObserveOperation("register", err, s.opts.now().Sub(start))
	if err != nil {
		return domain.Participant{}, err
	}
	s.publish(ctx)
	return p, nil
}

func (s *ContestService) register(ctx context.Context, reg Registration) (domain.Participant, error) {
	p, err := s.participantFrom(reg)
	if err != nil {
		return domain.Participant{}, err
	}
	key, err := s.keys.ScoringKey(ctx, p.Category)
	if err != nil {
		return domain.Participant{}, err
	}
	if p.Score, err = Score(p.Answers, key); err != nil {
		return domain.Participant{}, err
	}
	p.ScoredAt = s.opts.now()

	if err := s.participants.Upsert(ctx, p); err != nil {
		s.opts.log.WithError(err).WithField("participant", p.ID).Error("store participant failed")
		return domain.Participant{}, err
	}

	s.opts.metrics.ParticipantScored(p.Category, p.Score.Points)
	s.opts.log.WithFields(logrus.Fields{
		"participant": p.ID,
		"category":    p.Category,
		"points":      p.Score.Points,
		"correct":     p.Score.Correct,
	}).Info("participant scored")
	return p, nil
}

func (s *ContestService) participantFrom(reg Registration) (domain.Participant, error) {
	reg.ID = strings.TrimSpace(reg.ID)
	reg.Name = strings.TrimSpace(reg.Name)
	if err := s.validate.Struct(reg); err != nil {
		return domain.Participant{}, validationError(err)
	}

	grade, err := domain.ParseGrade(reg.Grade)
	if err != nil {
		return domain.Participant{}, err
	}
	var override domain.Category
	if strings.TrimSpace(reg.Category) != "" {
		if override, err = domain.ParseCategory(reg.Category); err != nil {
			return domain.Participant{}, err
		}
	}
	category, overridden, err := domain.ResolveCategory(grade, override)
	if err != nil {
		return domain.Participant{}, err
	}
	submittedAt, err := domain.ParseTimeOfDay(reg.SubmittedAt)
	if err != nil {
		return domain.Participant{}, err
	}
	answers, err := domain.ParseSheet(reg.Answers)
	if err != nil {
		return domain.Participant{}, err
	}

	teacher := strings.TrimSpace(reg.Teacher)
	if teacher == "" {
		teacher = domain.TeacherNotRecorded
	}
	return domain.Participant{
		ID:                 reg.ID,
		Name:               reg.Name,
		Institution:        strings.TrimSpace(reg.Institution),
		Grade:              grade,
		Category:           category,
		CategoryOverridden: overridden,
		Region:             strings.TrimSpace(reg.Region),
		Management:         domain.ParseManagement(reg.Management),
		Teacher:            teacher,
		SubmittedAt:        submittedAt,
		Answers:            answers,
	}, nil
}

// validationError turns the first validator failure into a domain error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.Invalid(strings.ToLower(fe.Field()), "failed %q rule", fe.Tag())
	}
	return domain.Invalid("", "%v", err)
}

// Participant returns one stored participant.
func (s *ContestService) Participant(ctx context.Context, id string) (domain.Participant, error) {
	return s.participants.Get(ctx, strings.TrimSpace(id))
}

// RescoreCategory recomputes every stored score of category against the
// current key and returns how many records were rewritten.
//
// Records are rewritten one by one. If a write fails, the records already
// rewritten stay rewritten and the count so far is returned with the error;
// calling it again is idempotent and finishes the rest.
func (s *ContestService) RescoreCategory(ctx context.Context, category domain.Category) (int, error) {
	start := s.opts.now()
	updated, err := s.rescore(ctx, category)
	s.opts.metrics.ObserveOperation("rescore", err, s.opts.now().Sub(start))
	if updated > 0 {
		s.publish(ctx)
	}
	return updated, err
}

func (s *ContestService) rescore(ctx context.Context, category domain.Category) (int, error) {
	key, err := s.keys.ScoringKey(ctx, category)
	if err != nil {
		return 0, err
	}
	all, err := s.participants.List(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, p := range all {
		if p.Category != category {
			continue
		}
		score, err := Score(p.Answers, key)
		if err != nil {
			return updated, fmt.Errorf("rescore %s: %w", p.ID, err)
		}
		if score == p.Score {
			continue
		}
		p.Score = score
		p.ScoredAt = s.opts.now()
		if err := s.participants.Upsert(ctx, p); err != nil {
			s.opts.log.WithError(err).WithFields(logrus.Fields{
				"category":    category,
				"participant": p.ID,
				"updated":     updated,
			}).Error("rescore interrupted")
			return updated, err
		}
		s.opts.metrics.ParticipantScored(p.Category, p.Score.Points)
		updated++
	}
	s.opts.log.WithFields(logrus.Fields{"category": category, "updated": updated}).Info("category rescored")
	return updated, nil
}

// Leaderboard ranks the cohort selected by filter.
func (s *ContestService) Leaderboard(ctx context.Context, filter domain.RankFilter) (domain.Leaderboard, error) {
	all, err := s.participants.List(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Filter: filter, Entries: Rank(all, filter), UpdatedAt: s.opts.now()}, nil
}

// Standings returns institutions ordered by summed points.
func (s *ContestService) Standings(ctx context.Context) ([]domain.InstitutionStanding, error) {
	all, err := s.participants.List(ctx)
	if err != nil {
		return nil, err
	}
	return InstitutionStandings(all), nil
}

// Recognitions returns teacher recognitions for the topN of each category.
func (s *ContestService) Recognitions(ctx context.Context, topN int) ([]domain.TeacherRecognition, error) {
	if topN <= 0 {
		topN = s.opts.recognitionSize
	}
	all, err := s.participants.List(ctx)
	if err != nil {
		return nil, err
	}
	return TeacherRecognitions(all, topN), nil
}

// Report assembles the official results document data.
func (s *ContestService) Report(ctx context.Context) (domain.Report, error) {
	all, err := s.participants.List(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	return BuildReport(all, ReportOptions{
		TopSize:         s.opts.reportSize,
		RecognitionSize: s.opts.recognitionSize,
	}, s.opts.now()), nil
}

// Subscribe returns a channel of leaderboard snapshots for filter.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ContestService) Subscribe(ctx context.Context, filter domain.RankFilter) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Leaderboard(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.subscribe(filter, initial)
	return ch, cancel, nil
}

func (s *ContestService) publish(ctx context.Context) {
	if s.hub.Subscribers() == 0 {
		return
	}
	all, err := s.participants.List(ctx)
	if err != nil {
		s.opts.log.WithError(err).Warn("leaderboard broadcast skipped")
		return
	}
	s.hub.broadcast(all, s.opts.now())
}
