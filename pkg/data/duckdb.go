package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb/v2"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          VARCHAR PRIMARY KEY,
	kind        VARCHAR NOT NULL,
	series_key  VARCHAR,
	skipped     INTEGER,
	succeeded   INTEGER,
	failed      INTEGER,
	cancelled   INTEGER,
	started_at  TIMESTAMP,
	finished_at TIMESTAMP
)`

func InitDuckDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Repository stores the history of download runs.
type Repository struct {
	db *sql.DB
}

func NewDuckDBRepository(path string) (*Repository, error) {
	db, err := InitDuckDB(path)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) SaveRun(run *Run) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO runs
			(id, kind, series_key, skipped, succeeded, failed, cancelled, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.SeriesKey,
		run.Skipped, run.Succeeded, run.Failed, run.Cancelled,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all of them.
func (r *Repository) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, kind, series_key, skipped, succeeded, failed, cancelled, started_at, finished_at
		FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var series sql.NullString
		if err := rows.Scan(
			&run.ID, &run.Kind, &series,
			&run.Skipped, &run.Succeeded, &run.Failed, &run.Cancelled,
			&run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, err
		}
		run.SeriesKey = series.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
