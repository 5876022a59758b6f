package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"semantist/internal/models"

	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New opens the SQLite campaign-history database at path.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite writes are serialized; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ SQLite database connected")

	return &DB{db}, nil
}

// Initialize creates all required tables
func (db *DB) Initialize() error {
	log.Println("🔍 Checking database schema...")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS campaign_runs (
			id         TEXT PRIMARY KEY,
			campaign   TEXT NOT NULL,
			source     TEXT NOT NULL,
			phrases    INTEGER NOT NULL,
			groups_n   INTEGER NOT NULL,
			rows_n     INTEGER NOT NULL,
			file_path  TEXT,
			sheet_url  TEXT,
			mock_data  INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create campaign_runs table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_campaign_runs_created ON campaign_runs(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create campaign_runs index: %w", err)
	}

	log.Println("✅ Database initialized successfully")
	return nil
}

// InsertCampaignRun records one completed pipeline run.
func (db *DB) InsertCampaignRun(ctx context.Context, run *models.CampaignRun) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO campaign_runs (id, campaign, source, phrases, groups_n, rows_n, file_path, sheet_url, mock_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Campaign, run.Source, run.Phrases, run.Groups, run.Rows,
		run.FilePath, run.SheetURL, boolToInt(run.MockData), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert campaign run: %w", err)
	}
	return nil
}

// ListCampaignRuns returns the most recent runs, newest first.
func (db *DB) ListCampaignRuns(ctx context.Context, limit int) ([]models.CampaignRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, campaign, source, phrases, groups_n, rows_n,
		       COALESCE(file_path, ''), COALESCE(sheet_url, ''), mock_data, created_at
		FROM campaign_runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign runs: %w", err)
	}
	defer rows.Close()

	var runs []models.CampaignRun
	for rows.Next() {
		var run models.CampaignRun
		var mock int
		if err := rows.Scan(&run.ID, &run.Campaign, &run.Source, &run.Phrases,
			&run.Groups, &run.Rows, &run.FilePath, &run.SheetURL, &mock, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan campaign run: %w", err)
		}
		run.MockData = mock != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
