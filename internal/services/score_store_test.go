package services

import (
	"testing"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidTestType(t *testing.T) {
	for _, tt := range []string{"depression", "anxiety", "ocd", "wellness"} {
		assert.True(t, IsValidTestType(tt), tt)
	}
	assert.False(t, IsValidTestType("Depression"))
	assert.False(t, IsValidTestType("stress"))
}

func TestGroupScores(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	scores := []models.AssessmentScore{
		{TestType: models.TestAnxiety, Score: 40, CreatedAt: base},
		{TestType: models.TestDepression, Score: 55, CreatedAt: base.Add(time.Hour)},
		{TestType: models.TestAnxiety, Score: 30, CreatedAt: base.Add(2 * time.Hour)},
		{TestType: "unknown", Score: 1},
	}
	summary := GroupScores(scores)

	assert.Equal(t, []int{40, 30}, summary.AnxietyScores)
	assert.Equal(t, []int{55}, summary.DepressionScores)
	assert.NotNil(t, summary.OCDScores)
	assert.Empty(t, summary.WellnessScores)
	assert.False(t, summary.Empty())
	assert.True(t, GroupScores(nil).Empty())
}

func TestScoreQueries(t *testing.T) {
	rec := &models.AssessmentScore{
		ID:        uuid.New(),
		Email:     "asha@example.com",
		TestType:  models.TestAnxiety,
		Score:     42,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	query, args, err := insertScoreQuery(rec)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO assessment_scores (id,email,test_type,score,created_at) VALUES ($1,$2,$3,$4,$5)", query)
	assert.Equal(t, []any{rec.ID, rec.Email, rec.TestType, rec.Score, rec.CreatedAt}, args)

	query, args, err = listScoresQuery("asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, email, test_type, score, created_at FROM assessment_scores WHERE email = $1 ORDER BY created_at ASC", query)
	assert.Equal(t, []any{"asha@example.com"}, args)
}

func TestPostgresScoreStoreRejectsInvalidInput(t *testing.T) {
	store := NewPostgresScoreStore(nil)
	ctx := t.Context()

	for _, tc := range []struct {
		name, email, testType string
		score                 int
	}{
		{"empty email", " ", "anxiety", 10},
		{"unknown test", "a@b.co", "stress", 10},
		{"negative", "a@b.co", "ocd", -1},
		{"too high", "a@b.co", "ocd", 101},
	} {
		_, err := store.Add(ctx, tc.email, tc.testType, tc.score)
		assert.ErrorIs(t, err, ErrInvalidInput, tc.name)
	}
}
