package app

import (
	"sort"

	"contest-scoring-service/internal/domain"
)

// Rank orders the cohort selected by filter and numbers it from 1.
// Order: points desc, correct answers desc, submission time asc, then ID asc so
// the result is a total order. Fully tied entries still get distinct ranks.
// The input slice is left untouched.
func Rank(participants []domain.Participant, filter domain.RankFilter) []domain.RankedEntry {
	cohort := make([]domain.Participant, 0, len(participants))
	for _, p := range participants {
		if filter.Matches(p) {
			cohort = append(cohort, p)
		}
	}

	sort.SliceStable(cohort, func(i, j int) bool {
		return ranksBefore(cohort[i], cohort[j])
	})

	entries := make([]domain.RankedEntry, len(cohort))
	for i, p := range cohort {
		entries[i] = domain.RankedEntry{Rank: i + 1, Participant: p}
	}
	return entries
}

func ranksBefore(a, b domain.Participant) bool {
	if a.Score.Points != b.Score.Points {
		return a.Score.Points > b.Score.Points
	}
	if a.Score.Correct != b.Score.Correct {
		return a.Score.Correct > b.Score.Correct
	}
	if a.SubmittedAt != b.SubmittedAt {
		return a.SubmittedAt < b.SubmittedAt
	}
	return a.ID < b.ID
}

// Top returns at most n leading entries.
func Top(entries []domain.RankedEntry, n int) []domain.RankedEntry {
	if n >= 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}
