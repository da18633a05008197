package domain

import (
	"strings"
	"time"
)

// TeacherNotRecorded is stored when a participant has no advisor teacher on file.
const TeacherNotRecorded = "No registrado"

// Management is the school-management type.
type Management string

const (
	ManagementPublic  Management = "public"
	ManagementPrivate Management = "private"
)

// ParseManagement maps free-form labels such as "Gestión privada" onto a Management.
// Anything not mentioning "priv" is public.
func ParseManagement(raw string) Management {
	if strings.Contains(strings.ToLower(raw), "priv") {
		return ManagementPrivate
	}
	return ManagementPublic
}

// ScoreBreakdown is the result of scoring one sheet. Correct+Incorrect+Blank is always QuestionCount.
type ScoreBreakdown struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Blank     int `json:"blank"`
	Points    int `json:"points"`
}

// Participant is a contestant together with their last computed score.
type Participant struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Institution        string         `json:"institution"`
	Grade              int            `json:"grade"`
	Category           Category       `json:"category"`
	CategoryOverridden bool           `json:"categoryOverridden"`
	Region             string         `json:"region"`
	Management         Management     `json:"management"`
	Teacher            string         `json:"teacher"`
	SubmittedAt        TimeOfDay      `json:"submittedAt"`
	Answers            AnswerSheet    `json:"answers"`
	Score              ScoreBreakdown `json:"score"`
	ScoredAt           time.Time      `json:"scoredAt"`
}

// KeyChangeEvent is one immutable entry of the answer-key audit log.
type KeyChangeEvent struct {
	ID         string    `json:"id"`
	Category   Category  `json:"category"`
	Key        AnswerKey `json:"key"`
	RecordedAt time.Time `json:"recordedAt"`
}

// RankFilter narrows a cohort; zero values mean "any".
type RankFilter struct {
	Grade    int      `json:"grade,omitempty"`
	Category Category `json:"category,omitempty"`
}

// Matches reports whether p belongs to the filtered cohort.
func (f RankFilter) Matches(p Participant) bool {
	if f.Grade != 0 && p.Grade != f.Grade {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	return true
}

// RankedEntry is a participant with their position inside a cohort.
type RankedEntry struct {
	Rank        int `json:"rank"`
	Participant `json:"participant"`
}

// Leaderboard captures the ordered ranking of a cohort at a point in time.
type Leaderboard struct {
	Filter    RankFilter    `json:"filter"`
	Entries   []RankedEntry `json:"entries"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// InstitutionStanding is the summed score of one institution.
type InstitutionStanding struct {
	Place        int    `json:"place"`
	Institution  string `json:"institution"`
	Points       int    `json:"points"`
	Participants int    `json:"participants"`
}

// TeacherRecognition surfaces the advisor of a top-ranked participant.
type TeacherRecognition struct {
	Category        Category `json:"category"`
	Rank            int      `json:"rank"`
	Teacher         string   `json:"teacher"`
	ParticipantID   string   `json:"participantId"`
	ParticipantName string   `json:"participantName"`
	Institution     string   `json:"institution"`
	Points          int      `json:"points"`
}

// Summary holds headline statistics over all scored participants.
type Summary struct {
	Evaluated     int     `json:"evaluated"`
	AveragePoints float64 `json:"averagePoints"`
	MaxPoints     int     `json:"maxPoints"`
}

// Report is the data behind the official results document.
type Report struct {
	GeneratedAt   time.Time                  `json:"generatedAt"`
	Summary       Summary                    `json:"summary"`
	TopByCategory map[Category][]RankedEntry `json:"topByCategory"`
	Champion      *InstitutionStanding       `json:"champion,omitempty"`
	RunnersUp     []InstitutionStanding      `json:"runnersUp"`
	Recognitions  []TeacherRecognition       `json:"recognitions"`
}
