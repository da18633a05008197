package app

import (
	"sort"
	"strings"

	"contest-scoring-service/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// DefaultRecognitionSize is how many top participants per category earn their teacher a recognition.
const DefaultRecognitionSize = 3

// InstitutionStandings sums points per institution across every category and grade.
// Ties on points are ordered by institution name.
func InstitutionStandings(participants []domain.Participant) []domain.InstitutionStanding {
	byKey := make(map[string]*domain.InstitutionStanding)
	order := make([]string, 0)
	for _, p := range participants {
		key := institutionKey(p.Institution)
		standing, ok := byKey[key]
		if !ok {
			standing = &domain.InstitutionStanding{Institution: strings.TrimSpace(p.Institution)}
			byKey[key] = standing
			order = append(order, key)
		}
		standing.Points += p.Score.Points
		standing.Participants++
	}

	standings := make([]domain.InstitutionStanding, 0, len(order))
	for _, key := range order {
		standings = append(standings, *byKey[key])
	}
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].Institution < standings[j].Institution
	})
	for i := range standings {
		standings[i].Place = i + 1
	}
	return standings
}

// institutionKey folds spelling variants that differ only in surrounding
// whitespace or Unicode composition.
func institutionKey(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// TeacherRecognitions lists the advisors of the topN participants of each category.
func TeacherRecognitions(participants []domain.Participant, topN int) []domain.TeacherRecognition {
	if topN <= 0 {
		topN = DefaultRecognitionSize
	}
	recognitions := make([]domain.TeacherRecognition, 0, topN*len(domain.Categories))
	for _, category := range domain.Categories {
		ranked := Top(Rank(participants, domain.RankFilter{Category: category}), topN)
		for _, entry := range ranked {
			recognitions = append(recognitions, domain.TeacherRecognition{
				Category:        category,
				Rank:            entry.Rank,
				Teacher:         entry.Teacher,
				ParticipantID:   entry.ID,
				ParticipantName: entry.Name,
				Institution:     entry.Institution,
				Points:          entry.Score.Points,
			})
		}
	}
	return recognitions
}
