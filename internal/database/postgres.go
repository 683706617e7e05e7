package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AnshRaj112/wellnest-backend/internal/logging"
	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL and creates the assessment tables.
// PostgresDB is set only once the schema is in place.
func ConnectPostgres(postgresURI string) error {
	return connectPostgres("postgres", postgresURI)
}

func connectPostgres(driverName, postgresURI string) error {
	db, err := sql.Open(driverName, postgresURI)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	logging.Info().Msg("✅ Connected to PostgreSQL")

	if err := InitPostgresTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("init postgres tables: %w", err)
	}

	PostgresDB = db
	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS assessment_scores (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			test_type VARCHAR(20) NOT NULL CHECK (test_type IN ('depression', 'anxiety', 'ocd', 'wellness')),
			score INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessment_scores_email_created ON assessment_scores(email, created_at)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	logging.Info().Msg("✅ PostgreSQL tables initialized")
	return nil
}

func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
