package models

import (
	"time"

	"github.com/google/uuid"
)

// Assessment test types shown on the dashboard.
const (
	TestDepression = "depression"
	TestAnxiety    = "anxiety"
	TestOCD        = "ocd"
	TestWellness   = "wellness"
)

// AssessmentScore is one submitted self-assessment result (0-100).
type AssessmentScore struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	TestType  string    `json:"testType"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"date"`
}

// ScoreSummary holds a user's score values per test, oldest first. The
// dashboard charts these as plain number series.
type ScoreSummary struct {
	DepressionScores []int `json:"depressionScores"`
	AnxietyScores    []int `json:"anxietyScores"`
	OCDScores        []int `json:"ocdScores"`
	WellnessScores   []int `json:"wellnessScores"`
}

// Empty reports whether the user has no scores at all.
func (s ScoreSummary) Empty() bool {
	return len(s.DepressionScores)+len(s.AnxietyScores)+len(s.OCDScores)+len(s.WellnessScores) == 0
}
