package app

import "contest-scoring-service/internal/domain"

const (
	PointsCorrect   = 5
	PointsIncorrect = -2
)

// Score computes the breakdown of one sheet against a key.
//
// A blank answer scores 0, a match +5 and a mismatch -2; the total never goes
// below zero. A blank slot in the key cannot be scored and counts as blank for
// the participant. Malformed sheets or keys are rejected before any counting.
func Score(sheet domain.AnswerSheet, key domain.AnswerKey) (domain.ScoreBreakdown, error) {
	if err := sheet.Validate(); err != nil {
		return domain.ScoreBreakdown{}, err
	}
	if err := key.Validate(); err != nil {
		return domain.ScoreBreakdown{}, err
	}

	var b domain.ScoreBreakdown
	for i, answer := range sheet {
		switch {
		case answer == domain.Blank || key[i] == domain.Blank:
			b.Blank++
		case answer == key[i]:
			b.Correct++
			b.Points += PointsCorrect
		default:
			b.Incorrect++
			b.Points += PointsIncorrect
		}
	}
	if b.Points < 0 {
		b.Points = 0
	}
	return b, nil
}
