package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/models"
	"github.com/AnshRaj112/wellnest-backend/pkg/utils"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const scoresTable = "assessment_scores"

var (
	psql         = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	scoreColumns = []string{"id", "email", "test_type", "score", "created_at"}
)

const (
	MinScore = 0
	MaxScore = 100
)

// ScoreStore persists self-assessment results.
type ScoreStore interface {
	Add(ctx context.Context, email, testType string, score int) (*models.AssessmentScore, error)
	// ListByOwner groups the owner's scores per test type, oldest first.
	ListByOwner(ctx context.Context, email string) (models.ScoreSummary, error)
}

// IsValidTestType reports whether testType is one of the dashboard tests.
func IsValidTestType(testType string) bool {
	switch testType {
	case models.TestDepression, models.TestAnxiety, models.TestOCD, models.TestWellness:
		return true
	}
	return false
}

// NewScoreSummary returns a summary whose slices encode as [] instead of null.
func NewScoreSummary() models.ScoreSummary {
	return models.ScoreSummary{
		DepressionScores: make([]int, 0),
		AnxietyScores:    make([]int, 0),
		OCDScores:        make([]int, 0),
		WellnessScores:   make([]int, 0),
	}
}

// GroupScores appends each score value to its test's series, preserving input order.
// Unknown test types are dropped.
func GroupScores(scores []models.AssessmentScore) models.ScoreSummary {
	summary := NewScoreSummary()
	for _, s := range scores {
		switch s.TestType {
		case models.TestDepression:
			summary.DepressionScores = append(summary.DepressionScores, s.Score)
		case models.TestAnxiety:
			summary.AnxietyScores = append(summary.AnxietyScores, s.Score)
		case models.TestOCD:
			summary.OCDScores = append(summary.OCDScores, s.Score)
		case models.TestWellness:
			summary.WellnessScores = append(summary.WellnessScores, s.Score)
		}
	}
	return summary
}

// PostgresScoreStore is the ScoreStore backed by the assessment_scores table.
type PostgresScoreStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresScoreStore(db *sql.DB) *PostgresScoreStore {
	return &PostgresScoreStore{db: db, now: time.Now}
}

func (s *PostgresScoreStore) Add(ctx context.Context, email, testType string, score int) (*models.AssessmentScore, error) {
	email = utils.NormalizeEmail(email)
	testType = strings.ToLower(strings.TrimSpace(testType))
	if email == "" || !IsValidTestType(testType) || score < MinScore || score > MaxScore {
		return nil, ErrInvalidInput
	}

	rec := &models.AssessmentScore{
		ID:        uuid.New(),
		Email:     email,
		TestType:  testType,
		Score:     score,
		CreatedAt: s.now().UTC(),
	}
	query, args, err := insertScoreQuery(rec)
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert score: %w: %w", ErrStoreUnavailable, err)
	}
	return rec, nil
}

func (s *PostgresScoreStore) ListByOwner(ctx context.Context, email string) (models.ScoreSummary, error) {
	query, args, err := listScoresQuery(email)
	if err != nil {
		return models.ScoreSummary{}, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return models.ScoreSummary{}, fmt.Errorf("query scores: %w: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var scores []models.AssessmentScore
	for rows.Next() {
		var sc models.AssessmentScore
		if err := rows.Scan(&sc.ID, &sc.Email, &sc.TestType, &sc.Score, &sc.CreatedAt); err != nil {
			return models.ScoreSummary{}, fmt.Errorf("scan score: %w: %w", ErrStoreUnavailable, err)
		}
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return models.ScoreSummary{}, fmt.Errorf("iterate scores: %w: %w", ErrStoreUnavailable, err)
	}
	return GroupScores(scores), nil
}

func insertScoreQuery(rec *models.AssessmentScore) (string, []any, error) {
	return psql.Insert(scoresTable).
		Columns(scoreColumns...).
		Values(rec.ID, rec.Email, rec.TestType, rec.Score, rec.CreatedAt).
		ToSql()
}

func listScoresQuery(email string) (string, []any, error) {
	return psql.Select(scoreColumns...).
		From(scoresTable).
		Where(squirrel.Eq{"email": email}).
		OrderBy("created_at ASC").
		ToSql()
}
