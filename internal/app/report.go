package app

import (
	"time"

	"contest-scoring-service/internal/domain"
)

// DefaultReportSize is the number of participants listed per category in the report.
const DefaultReportSize = 20

// ReportOptions controls the length of the report sections.
type ReportOptions struct {
	TopSize         int
	RecognitionSize int
}

// Summarize computes headline statistics.
func Summarize(participants []domain.Participant) domain.Summary {
	s := domain.Summary{Evaluated: len(participants)}
	if len(participants) == 0 {
		return s
	}
	total := 0
	for i, p := range participants {
		total += p.Score.Points
		if i == 0 || p.Score.Points > s.MaxPoints {
			s.MaxPoints = p.Score.Points
		}
	}
	s.AveragePoints = float64(total) / float64(len(participants))
	return s
}

// BuildReport assembles the official results: per-category leaders, the
// champion institution with two runners-up, and teacher recognitions.
func BuildReport(participants []domain.Participant, opts ReportOptions, now time.Time) domain.Report {
	if opts.TopSize <= 0 {
		opts.TopSize = DefaultReportSize
	}
	if opts.RecognitionSize <= 0 {
		opts.RecognitionSize = DefaultRecognitionSize
	}

	report := domain.Report{
		GeneratedAt:   now,
		Summary:       Summarize(participants),
		TopByCategory: make(map[domain.Category][]domain.RankedEntry, len(domain.Categories)),
		RunnersUp:     []domain.InstitutionStanding{},
		Recognitions:  TeacherRecognitions(participants, opts.RecognitionSize),
	}
	for _, category := range domain.Categories {
		report.TopByCategory[category] = Top(Rank(participants, domain.RankFilter{Category: category}), opts.TopSize)
	}

	standings := InstitutionStandings(participants)
	if len(standings) > 0 {
		champion := standings[0]
		report.Champion = &champion
	}
	for i := 1; i < len(standings) && i <= 2; i++ {
		report.RunnersUp = append(report.RunnersUp, standings[i])
	}
	return report
}
