package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-body-analyzer/pkg/models"

	_ "modernc.org/sqlite"
)

// timestampLayout is fixed-width so that text ordering matches time ordering
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteAnalysisRepository implements AnalysisRepository on a SQLite file
type SQLiteAnalysisRepository struct {
	db *sql.DB
}

// NewSQLiteAnalysisRepository opens (or creates) the database at dbPath
func NewSQLiteAnalysisRepository(dbPath string) (*SQLiteAnalysisRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	repo := &SQLiteAnalysisRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// Close closes the database
func (r *SQLiteAnalysisRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteAnalysisRepository) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS analyses (
        id TEXT PRIMARY KEY,
        request_id TEXT NOT NULL DEFAULT '',
        timestamp TEXT NOT NULL,
        content_type TEXT NOT NULL,
        bodyfat REAL NOT NULL,
        category TEXT NOT NULL,
        goal_suggestion TEXT NOT NULL,
        suggested_calories INTEGER NOT NULL,
        notes TEXT NOT NULL,
        aspect_ratio REAL NOT NULL,
        area_ratio REAL NOT NULL,
        width_ratio REAL NOT NULL,
        estimate_source TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);
    CREATE INDEX IF NOT EXISTS idx_analyses_request_id ON analyses(request_id);
    `

	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveAnalysisResult inserts a record. The record must carry an ID.
func (r *SQLiteAnalysisRepository) SaveAnalysisResult(ctx context.Context, record *models.HistoryRecord) error {
	if record == nil || record.ID == "" {
		return errors.New("record must have an id")
	}
	notes, err := json.Marshal(record.Result.Notes)
	if err != nil {
		return fmt.Errorf("failed to encode notes: %w", err)
	}

	query := `
        INSERT INTO analyses (id, request_id, timestamp, content_type, bodyfat, category, goal_suggestion,
            suggested_calories, notes, aspect_ratio, area_ratio, width_ratio, estimate_source)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = r.db.ExecContext(ctx, query,
		record.ID, record.RequestID, record.Timestamp.UTC().Format(timestampLayout), record.ContentType,
		record.Result.BodyFat, record.Result.Category, record.Result.GoalSuggestion,
		record.Result.SuggestedCalories, string(notes),
		record.Metrics.AspectRatio, record.Metrics.AreaRatio, record.Metrics.WidthRatio,
		string(record.EstimateSource))
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

const selectColumns = `
        SELECT id, request_id, timestamp, content_type, bodyfat, category, goal_suggestion,
            suggested_calories, notes, aspect_ratio, area_ratio, width_ratio, estimate_source
        FROM analyses
    `

// GetAnalysisResult returns ErrAnalysisNotFound when id is unknown
func (r *SQLiteAnalysisRepository) GetAnalysisResult(ctx context.Context, id string) (*models.HistoryRecord, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return record, nil
}

// GetAnalysisHistory returns up to limit records, newest first
func (r *SQLiteAnalysisRepository) GetAnalysisHistory(ctx context.Context, limit int) ([]*models.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+" ORDER BY timestamp DESC, id DESC LIMIT ?", NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	records := make([]*models.HistoryRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*models.HistoryRecord, error) {
	record := &models.HistoryRecord{}
	var timestampStr, notesStr, sourceStr string

	err := s.Scan(
		&record.ID, &record.RequestID, &timestampStr, &record.ContentType,
		&record.Result.BodyFat, &record.Result.Category, &record.Result.GoalSuggestion,
		&record.Result.SuggestedCalories, &notesStr,
		&record.Metrics.AspectRatio, &record.Metrics.AreaRatio, &record.Metrics.WidthRatio,
		&sourceStr,
	)
	if err != nil {
		return nil, err
	}

	record.Timestamp, err = time.Parse(timestampLayout, timestampStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	if err := json.Unmarshal([]byte(notesStr), &record.Result.Notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	record.EstimateSource = models.EstimateSource(sourceStr)
	return record, nil
}
